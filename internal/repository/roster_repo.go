package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
)

// RosterRepository course roster entries.
type RosterRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseUser, error)
	GetByEmail(ctx context.Context, courseID, email string) (*model.CourseUser, error)
	BatchCreate(ctx context.Context, entries []model.CourseUser) error
	UpdateProfile(ctx context.Context, id, displayName, role string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	SetGradingHours(ctx context.Context, courseID, email string, hours int) error
}

type rosterRepo struct {
	db *gorm.DB
}

// NewRosterRepo creates a RosterRepository.
func NewRosterRepo(db *gorm.DB) RosterRepository {
	return &rosterRepo{db: db}
}

// ListByCourse returns entries ordered by email.
func (r *rosterRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseUser, error) {
	var entries []model.CourseUser
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("email ASC").
		Find(&entries).Error
	return entries, err
}

func (r *rosterRepo) GetByEmail(ctx context.Context, courseID, email string) (*model.CourseUser, error) {
	var entry model.CourseUser
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND email = ?", courseID, email).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rosterRepo) BatchCreate(ctx context.Context, entries []model.CourseUser) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(entries, 200).Error
}

// UpdateProfile rewrites display name and role only; grading hours are left alone.
func (r *rosterRepo) UpdateProfile(ctx context.Context, id, displayName, role string) error {
	result := r.db.WithContext(ctx).
		Model(&model.CourseUser{}).
		Where("course_user_id = ?", id).
		Updates(map[string]interface{}{
			"display_name": displayName,
			"role":         role,
			"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *rosterRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("course_user_id IN ?", ids).
		Delete(&model.CourseUser{}).Error
}

func (r *rosterRepo) SetGradingHours(ctx context.Context, courseID, email string, hours int) error {
	result := r.db.WithContext(ctx).
		Model(&model.CourseUser{}).
		Where("course_id = ? AND email = ?", courseID, email).
		Updates(map[string]interface{}{
			"grading_hours": hours,
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
