package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// RosterHandler roster reconciliation and grading hours.
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler creates a RosterHandler.
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// Sync reconciles the local roster with the platform and returns the delta.
// POST /api/v1/gat/courses/:course/roster/sync
func (h *RosterHandler) Sync(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	delta, err := h.rosterSvc.Sync(c.Request.Context(), c.Param("course"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, delta)
}

// List GET /api/v1/gat/courses/:course/roster
func (h *RosterHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	entries, err := h.rosterSvc.List(c.Request.Context(), c.Param("course"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, entries)
}

// SetGradingHours PUT /api/v1/gat/courses/:course/roster/hours
func (h *RosterHandler) SetGradingHours(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SetGradingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.rosterSvc.SetGradingHours(c.Request.Context(), c.Param("course"), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, entry)
}
