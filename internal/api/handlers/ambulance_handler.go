// server/internal/api/handlers/ambulance_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"care-referral-api-server/config"
	"care-referral-api-server/internal/geo"
	"care-referral-api-server/internal/ledger"
	"care-referral-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type AmbulanceHandler struct {
	DB      *mongo.Database
	Ledger  *ledger.Ledger
	Tracker config.TrackerConfig
	Timeout time.Duration
}

func (h *AmbulanceHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

type CreateAmbulanceRequest struct {
	PlateNumber string `json:"plateNumber" binding:"required"`
}

// CreateAmbulance registers a new ambulance, available and without telemetry.
func (h *AmbulanceHandler) CreateAmbulance(c *gin.Context) {
	var req CreateAmbulanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newAmbulance := models.Ambulance{
		AmbulanceID: "AMB-" + uuid.New().String()[:8],
		PlateNumber: req.PlateNumber,
		IsAvailable: true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	result, err := h.DB.Collection("ambulances").InsertOne(ctx, newAmbulance)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ambulance"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ambulanceID": newAmbulance.AmbulanceID, "id": result.InsertedID})
}

// GetAmbulances lists the fleet for dispatch pickers.
func (h *AmbulanceHandler) GetAmbulances(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	ambulances, err := h.Ledger.Ambulances(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ambulances)
}

// GetPosition returns the last known coordinate, or nulls before the first
// telemetry update. The animation block tells dashboards how to smooth
// subsequent position events; interpolated positions are presentation state
// and never come back as telemetry.
func (h *AmbulanceHandler) GetPosition(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	amb, err := h.Ledger.AmbulanceByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ambulanceID": amb.AmbulanceID,
		"position":    amb.Position,
		"updatedAt":   amb.UpdatedAt,
		"animation": gin.H{
			"steps":          h.Tracker.AnimationSteps,
			"snapEpsilonDeg": h.Tracker.SnapEpsilonDeg,
		},
	})
}

type PositionUpdateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

// UpdatePosition ingests raw telemetry from the vehicle and fans the new
// snapshot out to every subscriber.
func (h *AmbulanceHandler) UpdatePosition(c *gin.Context) {
	var req PositionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	amb, err := h.Ledger.UpdateAmbulancePosition(ctx, c.Param("id"), *req.Latitude, *req.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, amb)
}

// GetETA computes the straight-line arrival estimate towards a facility.
// Missing telemetry yields the awaiting-signal sentinel, never an error.
func (h *AmbulanceHandler) GetETA(c *gin.Context) {
	facilityID := c.Query("facilityID")
	if facilityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "facilityID query parameter is required"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	amb, err := h.Ledger.AmbulanceByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	facility, err := h.Ledger.FacilityByID(ctx, facilityID)
	if err != nil {
		respondError(c, err)
		return
	}

	eta := geo.Estimate(amb.Position, facility.Address, h.Tracker.AssumedSpeedKmh)
	c.JSON(http.StatusOK, gin.H{
		"ambulanceID": amb.AmbulanceID,
		"facilityID":  facility.FacilityID,
		"eta":         eta,
		"display":     eta.Display(),
	})
}
