package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// UserAPIHandler machine access with the shared API key. Requests run as
// service.SystemActor.
type UserAPIHandler struct {
	authSvc     service.AuthService
	rosterSvc   service.RosterService
	gradingSvc  service.GradingService
	activitySvc service.ActivityService
}

// NewUserAPIHandler creates a UserAPIHandler.
func NewUserAPIHandler(
	authSvc service.AuthService,
	rosterSvc service.RosterService,
	gradingSvc service.GradingService,
	activitySvc service.ActivityService,
) *UserAPIHandler {
	return &UserAPIHandler{authSvc: authSvc, rosterSvc: rosterSvc, gradingSvc: gradingSvc, activitySvc: activitySvc}
}

// Verifier checks the API key presented to this group.
func (h *UserAPIHandler) Verifier() service.AuthService {
	return h.authSvc
}

// SyncRoster POST /api/v1/user-api/courses/:course/roster/sync
func (h *UserAPIHandler) SyncRoster(c *gin.Context) {
	delta, err := h.rosterSvc.Sync(c.Request.Context(), c.Param("course"), service.SystemActor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, delta)
}

// GetAssignment GET /api/v1/user-api/assignments/:id
func (h *UserAPIHandler) GetAssignment(c *gin.Context) {
	batch, err := h.gradingSvc.Get(c.Request.Context(), c.Param("id"), service.SystemActor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, batch)
}

// SubmissionHistogram GET /api/v1/user-api/tango-histogram
func (h *UserAPIHandler) SubmissionHistogram(c *gin.Context) {
	hist, err := h.activitySvc.SubmissionHistogram(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, hist)
}
