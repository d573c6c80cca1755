// server/internal/api/handlers/referral_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"care-referral-api-server/internal/api/middleware"
	"care-referral-api-server/internal/referral"
	"care-referral-api-server/internal/s3"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	Coordinator *referral.Coordinator
	Store       *referral.Store
	S3Uploader  *s3.Uploader
	Timeout     time.Duration
}

func (h *ReferralHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

type CreateReferralRequest struct {
	PatientID             string `json:"patientID" binding:"required"`
	DestinationFacilityID string `json:"destinationFacilityID" binding:"required"`
	AmbulanceID           string `json:"ambulanceID" binding:"required"`
	ChiefComplaint        string `json:"chiefComplaint" binding:"required"`
	SlipReference         string `json:"slipReference" binding:"required"`
}

// CreateReferral issues a referral from the caller's home facility: reserves
// the ambulance and writes the PENDING record as one unit of work.
func (h *ReferralHandler) CreateReferral(c *gin.Context) {
	staffID := c.GetString(middleware.CtxStaffID)
	facilityID := c.GetString(middleware.CtxFacilityID)

	var req CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	created, err := h.Coordinator.CreateReferral(ctx, referral.CreateInput{
		PatientID:             req.PatientID,
		OriginFacilityID:      facilityID,
		DestinationFacilityID: req.DestinationFacilityID,
		AmbulanceID:           req.AmbulanceID,
		ReferringStaffID:      staffID,
		ChiefComplaint:        req.ChiefComplaint,
		SlipReference:         req.SlipReference,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

type AcceptReferralRequest struct {
	ServiceStream string `json:"serviceStream" binding:"required"`
	BedID         string `json:"bedID"`
	DepartmentID  string `json:"departmentID"`
	ResourceID    string `json:"resourceID"`
}

// AcceptReferral lets the destination facility claim the referral. The
// stream decides what gets reserved; racing acceptors are resolved by the
// store's conditional update.
func (h *ReferralHandler) AcceptReferral(c *gin.Context) {
	facilityID := c.GetString(middleware.CtxFacilityID)

	var req AcceptReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	updated, err := h.Coordinator.AcceptReferral(ctx, referral.AcceptInput{
		ReferralID:       c.Param("id"),
		CallerFacilityID: facilityID,
		ServiceStream:    req.ServiceStream,
		BedID:            req.BedID,
		DepartmentID:     req.DepartmentID,
		ResourceID:       req.ResourceID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

type DivertReferralRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DivertReferral rejects the referral at this destination. The ambulance
// stays reserved; the origin re-creates the referral towards a new
// destination with the same ambulance.
func (h *ReferralHandler) DivertReferral(c *gin.Context) {
	facilityID := c.GetString(middleware.CtxFacilityID)

	var req DivertReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	updated, err := h.Coordinator.DivertReferral(ctx, referral.DivertInput{
		ReferralID:       c.Param("id"),
		CallerFacilityID: facilityID,
		Reason:           req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetReferral returns the fully denormalized referral, with the slip
// reference resolved to a retrievable URL.
func (h *ReferralHandler) GetReferral(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	r, err := h.Store.ByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	full, err := h.Store.Denormalize(ctx, *r)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.S3Uploader != nil {
		full.SlipURL = h.S3Uploader.Resolve(full.SlipReference)
	}

	c.JSON(http.StatusOK, full)
}

// GetMyFacilityReferrals lists referrals touching the caller's facility.
// Query params: role=origin|destination (default either), status=.
func (h *ReferralHandler) GetMyFacilityReferrals(c *gin.Context) {
	facilityID := c.GetString(middleware.CtxFacilityID)

	ctx, cancel := h.ctx(c)
	defer cancel()

	referrals, err := h.Store.ByFacility(ctx, facilityID, c.Query("role"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, referrals)
}

// UploadSlip stores a referral slip document and returns the opaque
// reference plus a retrievable URL. The reference goes into CreateReferral.
func (h *ReferralHandler) UploadSlip(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'file' part is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	ctx, cancel := h.ctx(c)
	defer cancel()

	reference, err := h.S3Uploader.Upload(ctx, file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload referral slip", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reference": reference,
		"url":       h.S3Uploader.Resolve(reference),
	})
}
