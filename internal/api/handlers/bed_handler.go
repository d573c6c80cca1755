// server/internal/api/handlers/bed_handler.go
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

type BedHandler struct {
	DB      *mongo.Database
	Ledger  *ledger.Ledger
	Timeout time.Duration
}

func (h *BedHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

type CreateBedRequest struct {
	FacilityID string `json:"facilityID" binding:"required"`
	WardType   string `json:"wardType" binding:"required"`
}

// CreateBed registers a new bed, starting out available.
func (h *BedHandler) CreateBed(c *gin.Context) {
	var req CreateBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if _, err := h.Ledger.FacilityByID(ctx, req.FacilityID); err != nil {
		respondError(c, err)
		return
	}

	newBed := models.Bed{
		BedID:      "BED-" + uuid.New().String()[:8],
		FacilityID: req.FacilityID,
		WardType:   req.WardType,
		Status:     models.BedAvailable,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	result, err := h.DB.Collection("beds").InsertOne(ctx, newBed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bedID": newBed.BedID, "id": result.InsertedID})
}

// GetBedsByFacility is the destination dashboard's bed telemetry view:
// filtered by ward type and status via query parameters.
func (h *BedHandler) GetBedsByFacility(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	beds, err := h.Ledger.BedsByFacility(ctx, c.Param("id"), c.Query("wardType"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, beds)
}

// FreeBed moves a bed to cleaning after discharge. Idempotent.
func (h *BedHandler) FreeBed(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Ledger.FreeBed(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Bed moved to cleaning"})
}
