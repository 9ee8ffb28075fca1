package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/allocation"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// respondError maps a service error onto the response envelope. Every
// handler funnels its failures through here so a sentinel always yields the
// same status and code.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validation *service.ValidationError
	if errors.As(err, &validation) {
		switch {
		case errors.Is(err, service.ErrInvalidSections):
			response.ErrorWithData(c, http.StatusBadRequest, 45001, validation.Kind.Error(), validation.Problems)
		default:
			// Bad data from the platform, not from the caller.
			response.ErrorWithData(c, http.StatusBadGateway, 50201, validation.Kind.Error(), validation.Problems)
		}
		return
	}

	var unassignable *allocation.UnassignableStudentError
	var duplicate *service.DuplicateConflictError

	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, err.Error())

	// ── courses and roster ──
	case errors.Is(err, service.ErrRosterNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrCourseExists):
		response.Conflict(c, 20002, err.Error())
	case errors.Is(err, service.ErrRosterEntryNotFound):
		response.NotFound(c, 20003, err.Error())
	case errors.Is(err, service.ErrHoursForNonGrader):
		response.BadRequest(c, 20004, err.Error())
	case errors.Is(err, service.ErrInvalidSemester):
		response.BadRequest(c, 20005, err.Error())

	// ── conflicts ──
	case errors.As(err, &duplicate):
		response.ConflictWithDetails(c, 30001, service.ErrDuplicateConflict.Error(),
			duplicate.Grader+" / "+duplicate.Student)
	case errors.Is(err, service.ErrDuplicateConflict):
		response.Conflict(c, 30001, err.Error())
	case errors.Is(err, service.ErrConflictNotFound):
		response.NotFound(c, 30002, err.Error())
	case errors.Is(err, service.ErrSelfConflict):
		response.BadRequest(c, 30003, err.Error())

	// ── grading assignments ──
	case errors.Is(err, allocation.ErrNoEligibleGrader):
		response.Error(c, http.StatusUnprocessableEntity, 40001, allocation.ErrNoEligibleGrader.Error())
	case errors.As(err, &unassignable):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 40002,
			allocation.ErrUnassignableStudent.Error(), unassignable.Student)
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 40003, err.Error())
	case errors.Is(err, service.ErrPairNotFound):
		response.NotFound(c, 40004, err.Error())
	case errors.Is(err, service.ErrActiveAssignmentExists):
		response.Conflict(c, 40005, err.Error())
	case errors.Is(err, service.ErrAssignmentLocked):
		response.Conflict(c, 40006, err.Error())
	case errors.Is(err, service.ErrNoOpToggle):
		response.Conflict(c, 40007, err.Error())
	case errors.Is(err, service.ErrNotPairGrader):
		response.Forbidden(c, 40008, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 40009, err.Error())

	// ── sections ──
	case errors.Is(err, service.ErrNoSections):
		response.BadRequest(c, 45002, err.Error())
	case errors.Is(err, service.ErrInvalidCalendar):
		response.BadRequest(c, 45003, err.Error())

	// ── auth ──
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11002, err.Error())
	case errors.Is(err, service.ErrDevModeDisabled):
		response.Forbidden(c, 11003, err.Error())
	case errors.Is(err, service.ErrNotPlatformAdmin):
		response.Forbidden(c, 11004, err.Error())

	// ── infrastructure ──
	case errors.Is(err, service.ErrActivityDisabled):
		response.Error(c, http.StatusServiceUnavailable, 50300, err.Error())
	case errors.Is(err, autolab.ErrRateLimited):
		response.TooManyRequests(c, 50202, autolab.ErrRateLimited.Error())
	case errors.Is(err, service.ErrUpstream):
		response.BadGateway(c, 50200, service.ErrUpstream.Error())
	case errors.Is(err, service.ErrPersistence):
		response.Error(c, http.StatusInternalServerError, 50001, "the database request failed, nothing was modified")
	default:
		response.InternalError(c)
	}
}

// bindFailed writes the standard 400 for a request that failed binding.
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request parameters", err.Error())
}
