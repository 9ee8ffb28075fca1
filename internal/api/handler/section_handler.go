package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// SectionHandler course sections on the platform.
type SectionHandler struct {
	sectionSvc service.SectionService
}

// NewSectionHandler creates a SectionHandler.
func NewSectionHandler(sectionSvc service.SectionService) *SectionHandler {
	return &SectionHandler{sectionSvc: sectionSvc}
}

// List GET /api/v1/sections/:course
func (h *SectionHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	sections, err := h.sectionSvc.List(c.Request.Context(), c.Param("course"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, sections)
}

// Upsert validates every section and sends them all, or none.
// POST /api/v1/sections/:course
func (h *SectionHandler) Upsert(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpsertSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	sections, err := h.sectionSvc.Upsert(c.Request.Context(), c.Param("course"), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, sections)
}

// ImportICS reads sections from an uploaded calendar.
// POST /api/v1/sections/:course/import-ics
func (h *SectionHandler) ImportICS(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "an .ics file must be uploaded as form field \"file\"")
		return
	}
	defer file.Close()

	sections, err := h.sectionSvc.ImportICS(c.Request.Context(), c.Param("course"), actor, file)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, sections)
}
