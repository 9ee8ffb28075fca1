package handler

import (
	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
)

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Course   *CourseHandler
	Roster   *RosterHandler
	Conflict *ConflictHandler
	Grading  *GradingHandler
	Export   *ExportHandler
	Section  *SectionHandler
	UserAPI  *UserAPIHandler
}

// NewHandler creates the Handler aggregate.
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth, cfg.Auth.Cookie, cfg.Auth.AccessTokenTTL),
		User:     NewUserHandler(svc.User),
		Course:   NewCourseHandler(svc.Course),
		Roster:   NewRosterHandler(svc.Roster),
		Conflict: NewConflictHandler(svc.Conflict),
		Grading:  NewGradingHandler(svc.Grading),
		Export:   NewExportHandler(svc.Export),
		Section:  NewSectionHandler(svc.Section),
		UserAPI:  NewUserAPIHandler(svc.Auth, svc.Roster, svc.Grading, svc.Activity),
	}
}
