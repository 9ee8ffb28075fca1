package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
)

// ConflictService conflicts of interest are recorded by instructors and
// consumed by every later allocation in the course.
type ConflictService interface {
	List(ctx context.Context, courseName string, actor Actor) ([]dto.ConflictResponse, error)
	Create(ctx context.Context, courseName string, actor Actor, req *dto.CreateConflictRequest) (*dto.ConflictResponse, error)
	Delete(ctx context.Context, courseName string, actor Actor, conflictID string) error
}

type conflictService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConflictService creates a ConflictService.
func NewConflictService(repo *repository.Repository, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, logger: logger}
}

func toConflictResponse(c *model.ConflictOfInterest) dto.ConflictResponse {
	return dto.ConflictResponse{
		ID:           c.ConflictID,
		GraderEmail:  c.GraderEmail,
		StudentEmail: c.StudentEmail,
		CreatedAt:    formatTime(c.CreatedAt),
	}
}

func (s *conflictService) List(ctx context.Context, courseName string, actor Actor) ([]dto.ConflictResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, model.RoleInstructor); err != nil {
		return nil, err
	}

	conflicts, err := s.repo.Conflict.ListByCourse(ctx, course.CourseID)
	if err != nil {
		s.logger.Error("list conflicts failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "list conflicts", Err: err}
	}
	out := make([]dto.ConflictResponse, len(conflicts))
	for i := range conflicts {
		out[i] = toConflictResponse(&conflicts[i])
	}
	return out, nil
}

func (s *conflictService) Create(ctx context.Context, courseName string, actor Actor, req *dto.CreateConflictRequest) (*dto.ConflictResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, model.RoleInstructor); err != nil {
		return nil, err
	}

	grader := normalizeEmail(req.GraderEmail)
	student := normalizeEmail(req.StudentEmail)
	if grader == student {
		return nil, ErrSelfConflict
	}

	exists, err := s.repo.Conflict.Exists(ctx, course.CourseID, grader, student)
	if err != nil {
		s.logger.Error("check conflict failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "check conflict", Err: err}
	}
	if exists {
		return nil, &DuplicateConflictError{Grader: grader, Student: student}
	}

	conflict := &model.ConflictOfInterest{
		CourseID:     course.CourseID,
		GraderEmail:  grader,
		StudentEmail: student,
	}
	if actor.UserID != "" {
		conflict.CreatedBy = &actor.UserID
	}
	if err := s.repo.Conflict.Create(ctx, conflict); err != nil {
		// Lost a race with an identical request.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &DuplicateConflictError{Grader: grader, Student: student}
		}
		s.logger.Error("create conflict failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "create conflict", Err: err}
	}

	s.logger.Info("conflict of interest recorded",
		zap.String("course", courseName),
		zap.String("grader", grader),
		zap.String("student", student),
	)
	resp := toConflictResponse(conflict)
	return &resp, nil
}

func (s *conflictService) Delete(ctx context.Context, courseName string, actor Actor, conflictID string) error {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, model.RoleInstructor); err != nil {
		return err
	}

	if err := s.repo.Conflict.Delete(ctx, course.CourseID, conflictID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConflictNotFound
		}
		s.logger.Error("delete conflict failed", zap.String("course", courseName), zap.Error(err))
		return &PersistenceError{Op: "delete conflict", Err: err}
	}
	return nil
}
