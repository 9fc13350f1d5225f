package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lyrebird-health/flarelog-backend/internal/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type ingestEventsRequest struct {
	Events []services.EventInput `json:"events"`
}

// POST /api/events
func (eh *EventHandler) Ingest(c *gin.Context) {
	var req ingestEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := eh.eventService.Ingest(c.Request.Context(), req.Events)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "event_ingest_failed", err)
		return
	}
	RespondOK(c, gin.H{"created": created})
}

// GET /api/events?limit=N
func (eh *EventHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	events, err := eh.eventService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "event_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}
