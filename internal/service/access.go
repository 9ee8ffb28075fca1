package service

import (
	"context"
	"errors"
	"slices"

	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// SystemActor runs maintenance commands with administrator rights.
var SystemActor = Actor{UserID: "", Email: "portalctl", IsAdmin: true}

var graderRoles = []string{model.RoleInstructor, model.RoleAssistant}

// loadCourse finds the local shadow of a platform course.
func loadCourse(ctx context.Context, repo *repository.Repository, name string) (*model.Course, error) {
	course, err := repo.Course.GetByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &RosterNotFoundError{Course: name}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load course", Err: err}
	}
	return course, nil
}

// requireRosterRole passes administrators and roster members holding one of
// roles.
func requireRosterRole(ctx context.Context, repo *repository.Repository, course *model.Course, actor Actor, roles ...string) error {
	if actor.IsAdmin {
		return nil
	}
	entry, err := repo.Roster.GetByEmail(ctx, course.CourseID, normalizeEmail(actor.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return &PersistenceError{Op: "load roster entry", Err: err}
	}
	if !slices.Contains(roles, entry.Role) {
		return ErrForbidden
	}
	return nil
}

// requirePlatformInstructor checks the platform rather than the local roster,
// for courses the portal may not track yet. The returned course is nil for
// administrators who are not members.
func requirePlatformInstructor(ctx context.Context, platform autolab.API, actor Actor, courseName string) (*autolab.Course, error) {
	courses, err := platform.UserCourses(ctx, actor.Email)
	if err != nil {
		return nil, upstreamError(err)
	}
	for i := range courses.Courses {
		c := &courses.Courses[i]
		if c.Name == courseName && c.Role == autolab.RoleInstructor {
			return c, nil
		}
	}
	if actor.IsAdmin {
		return nil, nil
	}
	return nil, ErrForbidden
}
