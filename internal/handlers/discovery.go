package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lyrebird-health/flarelog-backend/internal/services"
)

type DiscoveryHandler struct {
	discoveryService services.DiscoveryService
}

func NewDiscoveryHandler(discoveryService services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoveryService: discoveryService}
}

type runAnalysisRequest struct {
	Timezone string `json:"timezone,omitempty"`
}

// POST /api/discoveries/analyze
func (dh *DiscoveryHandler) RunAnalysis(c *gin.Context) {
	var req runAnalysisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	result, err := dh.discoveryService.RunDeepAnalysis(c.Request.Context(), req.Timezone)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "analysis_failed", err)
		return
	}
	RespondOK(c, result)
}

// GET /api/discoveries?min_confidence=0.3&status=confirmed
func (dh *DiscoveryHandler) List(c *gin.Context) {
	minConfidence := 0.0
	if raw := c.Query("min_confidence"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || f > 1 {
			RespondError(c, http.StatusBadRequest, "invalid_min_confidence", err)
			return
		}
		minConfidence = f
	}
	discoveries, err := dh.discoveryService.GetDiscoveries(c.Request.Context(), minConfidence, c.Query("status"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "discovery_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"discoveries": discoveries})
}

// GET /api/discoveries/unsurfaced
func (dh *DiscoveryHandler) ListUnsurfaced(c *gin.Context) {
	discoveries, err := dh.discoveryService.GetUnsurfaced(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "discovery_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"discoveries": discoveries})
}

type markSurfacedRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// POST /api/discoveries/surfaced
func (dh *DiscoveryHandler) MarkSurfaced(c *gin.Context) {
	var req markSurfacedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.IDs) == 0 {
		RespondError(c, http.StatusBadRequest, "no_ids", nil)
		return
	}
	if err := dh.discoveryService.MarkSurfaced(c.Request.Context(), req.IDs); err != nil {
		RespondError(c, http.StatusInternalServerError, "mark_surfaced_failed", err)
		return
	}
	RespondOK(c, gin.H{"updated": len(req.IDs)})
}

// POST /api/discoveries/:id/acknowledge
func (dh *DiscoveryHandler) Acknowledge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_discovery_id", err)
		return
	}
	if err := dh.discoveryService.Acknowledge(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "acknowledge_failed", err)
		return
	}
	RespondOK(c, gin.H{"acknowledged": id})
}
