package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
)

// CourseRepository local course shadows.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByName(ctx context.Context, name string) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	MarkSynced(ctx context.Context, id string, at time.Time) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo creates a CourseRepository.
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("course_id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByName(ctx context.Context, name string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).Order("name ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) MarkSynced(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Updates(map[string]interface{}{"last_synced_at": at, "updated_at": at}).Error
}
