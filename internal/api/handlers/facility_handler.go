// server/internal/api/handlers/facility_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"care-referral-api-server/internal/ledger"
	"care-referral-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type FacilityHandler struct {
	DB      *mongo.Database
	Ledger  *ledger.Ledger
	Timeout time.Duration
}

func (h *FacilityHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

type AddressRequest struct {
	FullText  string  `json:"fullText" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

type CreateFacilityRequest struct {
	FacilityID string         `json:"facilityID" binding:"required"`
	Name       string         `json:"name" binding:"required"`
	Type       string         `json:"type" binding:"required"`
	Address    AddressRequest `json:"address" binding:"required"`
}

// CreateFacility registers a care facility. The coordinates anchor every ETA
// computed against this destination.
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	var req CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	collection := h.DB.Collection("facilities")

	count, err := collection.CountDocuments(ctx, bson.M{"facilityID": req.FacilityID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for facility"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Facility with this ID already exists"})
		return
	}

	newFacility := models.Facility{
		FacilityID: req.FacilityID,
		Name:       req.Name,
		Type:       req.Type,
		Address: models.Address{
			FullText:  req.Address.FullText,
			Latitude:  req.Address.Latitude,
			Longitude: req.Address.Longitude,
		},
		Status:    "ACTIVE",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	result, err := collection.InsertOne(ctx, newFacility)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create facility"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newFacility.ID = oid
	}

	c.JSON(http.StatusCreated, newFacility)
}

// GetAllFacilities lists every facility in the network.
func (h *FacilityHandler) GetAllFacilities(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	cursor, err := h.DB.Collection("facilities").Find(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query facilities"})
		return
	}
	defer cursor.Close(ctx)

	var facilities []models.Facility
	if err = cursor.All(ctx, &facilities); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode facilities"})
		return
	}
	if facilities == nil {
		facilities = []models.Facility{}
	}

	c.JSON(http.StatusOK, facilities)
}

// GetFacilityByID returns one facility by its friendly id.
func (h *FacilityHandler) GetFacilityByID(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	facility, err := h.Ledger.FacilityByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, facility)
}

// UpdateFacility replaces the facility's descriptive fields.
func (h *FacilityHandler) UpdateFacility(c *gin.Context) {
	facilityID := c.Param("id")

	var req CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	_, err := h.DB.Collection("facilities").UpdateOne(ctx, bson.M{"facilityID": facilityID}, bson.M{"$set": bson.M{
		"name": req.Name,
		"type": req.Type,
		"address": models.Address{
			FullText:  req.Address.FullText,
			Latitude:  req.Address.Latitude,
			Longitude: req.Address.Longitude,
		},
		"updatedAt": time.Now(),
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update facility"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Facility updated successfully"})
}

// DeleteFacility removes a facility.
func (h *FacilityHandler) DeleteFacility(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	_, err := h.DB.Collection("facilities").DeleteOne(ctx, bson.M{"facilityID": c.Param("id")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete facility"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Facility deleted successfully"})
}

// GetResourcesByFacility returns the read-only routing context (departments,
// equipment, supplies) for a destination. Optional type= filter.
func (h *FacilityHandler) GetResourcesByFacility(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	resources, err := h.Ledger.ResourcesByFacility(ctx, c.Param("id"), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resources)
}
