// server/internal/api/handlers/patient_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"care-referral-api-server/internal/ledger"
	"care-referral-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type PatientHandler struct {
	DB      *mongo.Database
	Ledger  *ledger.Ledger
	Timeout time.Duration
}

func (h *PatientHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

type CreatePatientRequest struct {
	Name        string `json:"name" binding:"required"`
	DateOfBirth string `json:"dateOfBirth"`
	Sex         string `json:"sex"`
	Phone       string `json:"phone"`
}

// CreatePatient registers a patient in the network registry.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newPatient := models.Patient{
		PatientID:   "PAT-" + uuid.New().String()[:8],
		Name:        req.Name,
		DateOfBirth: req.DateOfBirth,
		Sex:         req.Sex,
		Phone:       req.Phone,
		CreatedAt:   time.Now(),
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	result, err := h.DB.Collection("patients").InsertOne(ctx, newPatient)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create patient"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"patientID": newPatient.PatientID, "id": result.InsertedID})
}

// GetPatient returns one patient record.
func (h *PatientHandler) GetPatient(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	patient, err := h.Ledger.PatientByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}
