package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
)

// ConflictRepository conflicts of interest.
type ConflictRepository interface {
	Create(ctx context.Context, conflict *model.ConflictOfInterest) error
	ListByCourse(ctx context.Context, courseID string) ([]model.ConflictOfInterest, error)
	Exists(ctx context.Context, courseID, graderEmail, studentEmail string) (bool, error)
	Delete(ctx context.Context, courseID, conflictID string) error
}

type conflictRepo struct {
	db *gorm.DB
}

// NewConflictRepo creates a ConflictRepository.
func NewConflictRepo(db *gorm.DB) ConflictRepository {
	return &conflictRepo{db: db}
}

func (r *conflictRepo) Create(ctx context.Context, conflict *model.ConflictOfInterest) error {
	return r.db.WithContext(ctx).Create(conflict).Error
}

func (r *conflictRepo) ListByCourse(ctx context.Context, courseID string) ([]model.ConflictOfInterest, error) {
	var conflicts []model.ConflictOfInterest
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("grader_email ASC, student_email ASC").
		Find(&conflicts).Error
	return conflicts, err
}

func (r *conflictRepo) Exists(ctx context.Context, courseID, graderEmail, studentEmail string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ConflictOfInterest{}).
		Where("course_id = ? AND grader_email = ? AND student_email = ?", courseID, graderEmail, studentEmail).
		Count(&n).Error
	return n > 0, err
}

func (r *conflictRepo) Delete(ctx context.Context, courseID, conflictID string) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND conflict_id = ?", courseID, conflictID).
		Delete(&model.ConflictOfInterest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
