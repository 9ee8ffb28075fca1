package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// ConflictHandler conflicts of interest of a course.
type ConflictHandler struct {
	conflictSvc service.ConflictService
}

// NewConflictHandler creates a ConflictHandler.
func NewConflictHandler(conflictSvc service.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflictSvc: conflictSvc}
}

// List GET /api/v1/gat/courses/:course/conflicts
func (h *ConflictHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.conflictSvc.List(c.Request.Context(), c.Param("course"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// Create POST /api/v1/gat/courses/:course/conflicts
func (h *ConflictHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	conflict, err := h.conflictSvc.Create(c.Request.Context(), c.Param("course"), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, conflict)
}

// Delete DELETE /api/v1/gat/courses/:course/conflicts/:id
func (h *ConflictHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.conflictSvc.Delete(c.Request.Context(), c.Param("course"), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}
