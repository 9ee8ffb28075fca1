package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// GradingHandler grading assignment batches and their pairs.
type GradingHandler struct {
	gradingSvc service.GradingService
}

// NewGradingHandler creates a GradingHandler.
func NewGradingHandler(gradingSvc service.GradingService) *GradingHandler {
	return &GradingHandler{gradingSvc: gradingSvc}
}

// Create runs the allocation pipeline for one assessment.
// POST /api/v1/gat/courses/:course/assignments
func (h *GradingHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	batch, err := h.gradingSvc.CreateAssignment(c.Request.Context(), c.Param("course"), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, batch)
}

// List GET /api/v1/gat/courses/:course/assignments?include_archived=
func (h *GradingHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var q dto.ListAssignmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.gradingSvc.List(c.Request.Context(), c.Param("course"), actor, q.IncludeArchived)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// Get GET /api/v1/gat/assignments/:id
func (h *GradingHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	batch, err := h.gradingSvc.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, batch)
}

// Mine GET /api/v1/gat/assignments/:id/mine
func (h *GradingHandler) Mine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	batch, err := h.gradingSvc.Mine(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, batch)
}

// SetArchived PUT /api/v1/gat/assignments/:id/archived
func (h *GradingHandler) SetArchived(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SetArchivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	batch, err := h.gradingSvc.SetArchived(c.Request.Context(), c.Param("id"), actor, *req.Archived)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, batch)
}

// SetPairCompleted PUT /api/v1/gat/pairs/:id/completed
func (h *GradingHandler) SetPairCompleted(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SetCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	pair, err := h.gradingSvc.SetPairCompleted(c.Request.Context(), c.Param("id"), actor, *req.Completed)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, pair)
}
