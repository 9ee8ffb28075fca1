package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/metrics"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
)

// RosterService keeps local rosters in agreement with the platform and
// manages operator-set grading hours.
type RosterService interface {
	Sync(ctx context.Context, courseName string, actor Actor) (*dto.RosterDeltaResponse, error)
	List(ctx context.Context, courseName string, actor Actor) ([]dto.RosterEntryResponse, error)
	SetGradingHours(ctx context.Context, courseName string, actor Actor, req *dto.SetGradingHoursRequest) (*dto.RosterEntryResponse, error)
}

type rosterService struct {
	repo     *repository.Repository
	platform autolab.API
	recorder metrics.Recorder
	now      func() time.Time
	logger   *zap.Logger
}

// NewRosterService creates a RosterService.
func NewRosterService(repo *repository.Repository, platform autolab.API, recorder metrics.Recorder, logger *zap.Logger) RosterService {
	return &rosterService{
		repo:     repo,
		platform: platform,
		recorder: recorder,
		now:      time.Now,
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Reconciliation
// ═══════════════════════════════════════════════════════════

// RosterMember is one row of the authoritative roster.
type RosterMember struct {
	Email       string `json:"email"        validate:"required,email,max=255"`
	DisplayName string `json:"display_name" validate:"max=255"`
	Role        string `json:"role"         validate:"course_role"`
}

type rosterInput struct {
	Members []RosterMember `json:"members" validate:"dive"`
}

// RosterDelta is what one reconciliation run wrote.
type RosterDelta struct {
	Created []model.CourseUser
	Updated []model.CourseUser
	Deleted []model.CourseUser
}

// Empty reports a run with nothing to write.
func (d *RosterDelta) Empty() bool {
	return len(d.Created) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

func (d *RosterDelta) response() dto.RosterDeltaResponse {
	emails := func(entries []model.CourseUser) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.Email
		}
		return out
	}
	return dto.RosterDeltaResponse{
		Created: emails(d.Created),
		Updated: emails(d.Updated),
		Deleted: emails(d.Deleted),
	}
}

// membersFromPlatform converts platform users, mapping the platform's
// assistant role name onto ours.
func membersFromPlatform(users []autolab.CourseUser) []RosterMember {
	out := make([]RosterMember, len(users))
	for i, u := range users {
		role := u.Role
		if role == autolab.RoleCourseAssistant {
			role = model.RoleAssistant
		}
		out[i] = RosterMember{
			Email:       normalizeEmail(u.Email),
			DisplayName: u.DisplayName,
			Role:        role,
		}
	}
	return out
}

func validateRoster(members []RosterMember) error {
	var problems []string
	if err := validate.Struct(rosterInput{Members: members}); err != nil {
		problems = validationProblems(err)
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.Email] {
			problems = append(problems, fmt.Sprintf("%s appears more than once", m.Email))
		}
		seen[m.Email] = true
	}
	if len(problems) > 0 {
		return &ValidationError{Kind: ErrInvalidRoster, Problems: problems}
	}
	return nil
}

// diffRoster keys both sides by email. Missing locally means create with
// zero hours, missing upstream means delete, and a changed name or role
// means update. Grading hours are never part of the diff.
func diffRoster(courseID string, local []model.CourseUser, authoritative []RosterMember) *RosterDelta {
	byEmail := make(map[string]model.CourseUser, len(local))
	for _, e := range local {
		byEmail[e.Email] = e
	}

	delta := &RosterDelta{}
	seen := make(map[string]bool, len(authoritative))
	for _, m := range authoritative {
		seen[m.Email] = true
		cur, ok := byEmail[m.Email]
		if !ok {
			delta.Created = append(delta.Created, model.CourseUser{
				CourseID:     courseID,
				Email:        m.Email,
				DisplayName:  m.DisplayName,
				Role:         m.Role,
				GradingHours: 0,
			})
			continue
		}
		if cur.DisplayName != m.DisplayName || cur.Role != m.Role {
			cur.DisplayName = m.DisplayName
			cur.Role = m.Role
			delta.Updated = append(delta.Updated, cur)
		}
	}
	for _, e := range local {
		if !seen[e.Email] {
			delta.Deleted = append(delta.Deleted, e)
		}
	}
	return delta
}

// reconcileRoster applies the diff through tx. An unchanged roster performs
// no writes at all, last_synced_at included.
func reconcileRoster(ctx context.Context, tx *repository.Repository, course *model.Course, members []RosterMember, now time.Time) (*RosterDelta, error) {
	local, err := tx.Roster.ListByCourse(ctx, course.CourseID)
	if err != nil {
		return nil, err
	}

	delta := diffRoster(course.CourseID, local, members)
	if delta.Empty() {
		return delta, nil
	}

	if len(delta.Created) > 0 {
		if err := tx.Roster.BatchCreate(ctx, delta.Created); err != nil {
			return nil, err
		}
	}
	for _, e := range delta.Updated {
		if err := tx.Roster.UpdateProfile(ctx, e.CourseUserID, e.DisplayName, e.Role); err != nil {
			return nil, err
		}
	}
	if len(delta.Deleted) > 0 {
		ids := make([]string, len(delta.Deleted))
		for i, e := range delta.Deleted {
			ids[i] = e.CourseUserID
		}
		if err := tx.Roster.DeleteByIDs(ctx, ids); err != nil {
			return nil, err
		}
	}
	if err := tx.Course.MarkSynced(ctx, course.CourseID, now); err != nil {
		return nil, err
	}
	course.LastSyncedAt = &now
	return delta, nil
}

func recordRosterDelta(recorder metrics.Recorder, delta *RosterDelta) {
	recorder.RosterChanged(metrics.OpCreate, len(delta.Created))
	recorder.RosterChanged(metrics.OpUpdate, len(delta.Updated))
	recorder.RosterChanged(metrics.OpDelete, len(delta.Deleted))
}

// ═══════════════════════════════════════════════════════════
// Sync
// ═══════════════════════════════════════════════════════════

func (s *rosterService) Sync(ctx context.Context, courseName string, actor Actor) (*dto.RosterDeltaResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, model.RoleInstructor); err != nil {
		return nil, err
	}

	users, err := s.platform.CourseUsers(ctx, courseName)
	if err != nil {
		s.logger.Warn("fetch platform roster failed", zap.String("course", courseName), zap.Error(err))
		return nil, upstreamError(err)
	}
	members := membersFromPlatform(users.Users)
	if err := validateRoster(members); err != nil {
		s.logger.Warn("platform roster rejected", zap.String("course", courseName), zap.Error(err))
		return nil, err
	}

	var delta *RosterDelta
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		delta, err = reconcileRoster(ctx, tx, course, members, s.now())
		return err
	})
	if err != nil {
		s.logger.Error("reconcile roster failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "reconcile roster", Err: err}
	}

	recordRosterDelta(s.recorder, delta)
	s.logger.Info("roster reconciled",
		zap.String("course", courseName),
		zap.Int("created", len(delta.Created)),
		zap.Int("updated", len(delta.Updated)),
		zap.Int("deleted", len(delta.Deleted)),
	)
	resp := delta.response()
	return &resp, nil
}

// ═══════════════════════════════════════════════════════════
// Roster reads and grading hours
// ═══════════════════════════════════════════════════════════

func toRosterEntryResponse(e *model.CourseUser) dto.RosterEntryResponse {
	return dto.RosterEntryResponse{
		ID:           e.CourseUserID,
		Email:        e.Email,
		DisplayName:  e.DisplayName,
		Role:         e.Role,
		GradingHours: e.GradingHours,
	}
}

func (s *rosterService) List(ctx context.Context, courseName string, actor Actor) ([]dto.RosterEntryResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, graderRoles...); err != nil {
		return nil, err
	}

	entries, err := s.repo.Roster.ListByCourse(ctx, course.CourseID)
	if err != nil {
		s.logger.Error("list roster failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "list roster", Err: err}
	}
	out := make([]dto.RosterEntryResponse, len(entries))
	for i := range entries {
		out[i] = toRosterEntryResponse(&entries[i])
	}
	return out, nil
}

func (s *rosterService) SetGradingHours(ctx context.Context, courseName string, actor Actor, req *dto.SetGradingHoursRequest) (*dto.RosterEntryResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, model.RoleInstructor); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	entry, err := s.repo.Roster.GetByEmail(ctx, course.CourseID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterEntryNotFound
		}
		return nil, &PersistenceError{Op: "load roster entry", Err: err}
	}

	hours := *req.GradingHours
	if hours > 0 && !model.IsGraderRole(entry.Role) {
		return nil, ErrHoursForNonGrader
	}

	if err := s.repo.Roster.SetGradingHours(ctx, course.CourseID, email, hours); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterEntryNotFound
		}
		s.logger.Error("set grading hours failed", zap.String("course", courseName), zap.String("email", email), zap.Error(err))
		return nil, &PersistenceError{Op: "set grading hours", Err: err}
	}

	entry.GradingHours = hours
	resp := toRosterEntryResponse(entry)
	return &resp, nil
}
