package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// CourseHandler platform courses and their local shadows.
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// MyCourses GET /api/v1/gat/my-courses
func (h *CourseHandler) MyCourses(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	courses, err := h.courseSvc.MyCourses(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, courses)
}

// Create starts tracking a platform course and reconciles its roster.
// POST /api/v1/gat/courses
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// Get GET /api/v1/gat/courses/:course
func (h *CourseHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Get(c.Request.Context(), c.Param("course"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, course)
}

// Assessments GET /api/v1/gat/courses/:course/assessments
func (h *CourseHandler) Assessments(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.courseSvc.Assessments(c.Request.Context(), c.Param("course"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// CreateAutolabCourse creates a brand new course on the platform.
// POST /api/v1/autolab/courses
func (h *CourseHandler) CreateAutolabCourse(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateAutolabCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.courseSvc.CreateAutolabCourse(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", result.Location)
	response.Created(c, result)
}
