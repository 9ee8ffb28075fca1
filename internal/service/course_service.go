package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/metrics"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
)

// CourseService platform courses of a user and the local course shadows.
type CourseService interface {
	MyCourses(ctx context.Context, actor Actor) ([]dto.MyCourseResponse, error)
	Create(ctx context.Context, actor Actor, req *dto.CreateCourseRequest) (*dto.CreateCourseResponse, error)
	Get(ctx context.Context, courseName string, actor Actor) (*dto.CourseResponse, error)
	Assessments(ctx context.Context, courseName string, actor Actor) ([]dto.AssessmentResponse, error)
	CreateAutolabCourse(ctx context.Context, actor Actor, req *dto.CreateAutolabCourseRequest) (*dto.CreateAutolabCourseResponse, error)
}

type courseService struct {
	repo        *repository.Repository
	platform    autolab.API
	platformURL string
	recorder    metrics.Recorder
	now         func() time.Time
	logger      *zap.Logger
}

// NewCourseService creates a CourseService. platformURL is the public base
// URL of the platform, used to link newly created courses.
func NewCourseService(repo *repository.Repository, platform autolab.API, platformURL string, recorder metrics.Recorder, logger *zap.Logger) CourseService {
	return &courseService{
		repo:        repo,
		platform:    platform,
		platformURL: strings.TrimRight(platformURL, "/"),
		recorder:    recorder,
		now:         time.Now,
		logger:      logger,
	}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func displayRole(role string) string {
	if role == autolab.RoleCourseAssistant {
		return model.RoleAssistant
	}
	return role
}

func (s *courseService) MyCourses(ctx context.Context, actor Actor) ([]dto.MyCourseResponse, error) {
	courses, err := s.platform.UserCourses(ctx, actor.Email)
	if err != nil {
		s.logger.Warn("fetch user courses failed", zap.String("email", actor.Email), zap.Error(err))
		return nil, upstreamError(err)
	}

	tracked, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("list courses failed", zap.Error(err))
		return nil, &PersistenceError{Op: "list courses", Err: err}
	}
	trackedNames := make(map[string]bool, len(tracked))
	for _, c := range tracked {
		trackedNames[c.Name] = true
	}

	out := make([]dto.MyCourseResponse, len(courses.Courses))
	for i, c := range courses.Courses {
		out[i] = dto.MyCourseResponse{
			Name:        c.Name,
			DisplayName: c.DisplayName,
			Semester:    c.Semester,
			Role:        displayRole(c.Role),
			Tracked:     trackedNames[c.Name],
		}
	}
	return out, nil
}

// ═══════════════════════════════════════════════════════════
// Create — new course shadow plus its first reconciliation
// ═══════════════════════════════════════════════════════════

func (s *courseService) Create(ctx context.Context, actor Actor, req *dto.CreateCourseRequest) (*dto.CreateCourseResponse, error) {
	name := strings.TrimSpace(req.CourseName)

	if _, err := s.repo.Course.GetByName(ctx, name); err == nil {
		return nil, ErrCourseExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lookup course failed", zap.String("course", name), zap.Error(err))
		return nil, &PersistenceError{Op: "load course", Err: err}
	}

	if _, err := requirePlatformInstructor(ctx, s.platform, actor, name); err != nil {
		return nil, err
	}

	users, err := s.platform.CourseUsers(ctx, name)
	if err != nil {
		s.logger.Warn("fetch platform roster failed", zap.String("course", name), zap.Error(err))
		return nil, upstreamError(err)
	}
	members := membersFromPlatform(users.Users)
	if err := validateRoster(members); err != nil {
		return nil, err
	}

	displayName := users.DisplayName
	if displayName == "" {
		displayName = name
	}
	course := &model.Course{
		Name:        name,
		DisplayName: displayName,
		CreatedBy:   actor.UserID,
	}

	var delta *RosterDelta
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Course.Create(ctx, course); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCourseExists
			}
			return err
		}
		var err error
		delta, err = reconcileRoster(ctx, tx, course, members, s.now())
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCourseExists) {
			return nil, err
		}
		s.logger.Error("create course failed", zap.String("course", name), zap.Error(err))
		return nil, &PersistenceError{Op: "create course", Err: err}
	}

	recordRosterDelta(s.recorder, delta)
	s.logger.Info("course tracked",
		zap.String("course", name),
		zap.String("created_by", actor.UserID),
		zap.Int("roster", len(delta.Created)),
	)

	resp := dto.CreateCourseResponse{
		Course: toCourseResponse(course, delta.Created),
		Delta:  delta.response(),
	}
	return &resp, nil
}

func toCourseResponse(c *model.Course, roster []model.CourseUser) dto.CourseResponse {
	resp := dto.CourseResponse{
		ID:          c.CourseID,
		Name:        c.Name,
		DisplayName: c.DisplayName,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   formatTime(c.CreatedAt),
		RosterSize:  len(roster),
	}
	if c.LastSyncedAt != nil {
		ts := formatTime(*c.LastSyncedAt)
		resp.LastSyncedAt = &ts
	}
	for _, e := range roster {
		if model.IsGraderRole(e.Role) && e.GradingHours > 0 {
			resp.Graders++
			resp.TotalHours += e.GradingHours
		}
	}
	return resp
}

func (s *courseService) Get(ctx context.Context, courseName string, actor Actor) (*dto.CourseResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, graderRoles...); err != nil {
		return nil, err
	}

	roster, err := s.repo.Roster.ListByCourse(ctx, course.CourseID)
	if err != nil {
		s.logger.Error("list roster failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "list roster", Err: err}
	}
	resp := toCourseResponse(course, roster)
	return &resp, nil
}

func (s *courseService) Assessments(ctx context.Context, courseName string, actor Actor) ([]dto.AssessmentResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, graderRoles...); err != nil {
		return nil, err
	}

	assessments, err := s.platform.CourseAssessments(ctx, courseName)
	if err != nil {
		s.logger.Warn("fetch assessments failed", zap.String("course", courseName), zap.Error(err))
		return nil, upstreamError(err)
	}

	active, err := s.repo.Assignment.ListByCourse(ctx, course.CourseID, false)
	if err != nil {
		s.logger.Error("list assignments failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "list assignments", Err: err}
	}
	activeByName := make(map[string]string, len(active))
	for _, a := range active {
		activeByName[a.AssessmentName] = a.AssignmentID
	}

	out := make([]dto.AssessmentResponse, len(assessments.Assessments))
	for i, a := range assessments.Assessments {
		out[i] = dto.AssessmentResponse{
			Name:        a.Name,
			DisplayName: a.DisplayName,
			URL:         a.URL,
		}
		if id, ok := activeByName[a.Name]; ok {
			out[i].ActiveAssignmentID = &id
		}
	}
	return out, nil
}

// ═══════════════════════════════════════════════════════════
// CreateAutolabCourse — new course on the platform itself
// ═══════════════════════════════════════════════════════════

func (s *courseService) CreateAutolabCourse(ctx context.Context, actor Actor, req *dto.CreateAutolabCourseRequest) (*dto.CreateAutolabCourseResponse, error) {
	semester := strings.ToLower(req.Semester)
	start, end, err := autolab.SemesterDates(semester, s.now())
	if err != nil {
		return nil, ErrInvalidSemester
	}

	instructor := normalizeEmail(req.InstructorEmail)
	if instructor == "" {
		instructor = normalizeEmail(actor.Email)
	}
	if instructor != normalizeEmail(actor.Email) && !actor.IsAdmin {
		return nil, ErrForbidden
	}

	err = s.platform.CreateCourse(ctx, autolab.NewCourse{
		Name:            req.Name,
		DisplayName:     req.DisplayName,
		Semester:        semester,
		InstructorEmail: instructor,
		StartDate:       start,
		EndDate:         end,
	})
	if err != nil {
		s.logger.Error("create platform course failed", zap.String("course", req.Name), zap.Error(err))
		return nil, upstreamError(err)
	}

	s.logger.Info("platform course created",
		zap.String("course", req.Name),
		zap.String("instructor", instructor),
		zap.String("start", start),
		zap.String("end", end),
	)
	return &dto.CreateAutolabCourseResponse{
		Message:  "You successfully created the course " + req.DisplayName,
		Location: s.platformURL + "/courses/" + req.Name,
	}, nil
}
