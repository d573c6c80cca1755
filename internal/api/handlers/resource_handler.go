// server/internal/api/handlers/resource_handler.go
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

type ResourceHandler struct {
	DB      *mongo.Database
	Ledger  *ledger.Ledger
	Timeout time.Duration
}

func (h *ResourceHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

type CreateResourceRequest struct {
	FacilityID   string `json:"facilityID" binding:"required"`
	Name         string `json:"name" binding:"required"`
	ResourceType string `json:"resourceType" binding:"required,oneof=DEPARTMENT EQUIPMENT SUPPLY"`
	Status       string `json:"status" binding:"required"`
}

// CreateResource registers a department, piece of equipment or supply line
// at a facility.
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	var req CreateResourceRequest
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

	newResource := models.FacilityResource{
		ResourceID:   "RES-" + uuid.New().String()[:8],
		FacilityID:   req.FacilityID,
		Name:         req.Name,
		ResourceType: req.ResourceType,
		Status:       req.Status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	result, err := h.DB.Collection("facility_resources").InsertOne(ctx, newResource)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create resource"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resourceID": newResource.ResourceID, "id": result.InsertedID})
}
