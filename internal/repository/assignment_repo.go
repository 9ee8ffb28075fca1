package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
)

// PairStats counts pairs of one batch.
type PairStats struct {
	AssignmentID string
	Total        int64
	Completed    int64
}

// AssignmentRepository grading batches and their pairs.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.GradingAssignment) error
	CreatePairs(ctx context.Context, pairs []model.GradingAssignmentPair) error
	GetByID(ctx context.Context, id string) (*model.GradingAssignment, error)
	GetWithPairs(ctx context.Context, id string) (*model.GradingAssignment, error)
	ListByCourse(ctx context.Context, courseID string, includeArchived bool) ([]model.GradingAssignment, error)
	PairStats(ctx context.Context, assignmentIDs []string) (map[string]PairStats, error)
	ListPairsByGrader(ctx context.Context, assignmentID, graderEmail string) ([]model.GradingAssignmentPair, error)
	GetPair(ctx context.Context, pairID string) (*model.GradingAssignmentPair, error)
	SetPairCompleted(ctx context.Context, pairID string, completed bool) (bool, error)
	SetArchived(ctx context.Context, id string, archived bool) (bool, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo creates an AssignmentRepository.
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

// Create inserts the batch row only.
func (r *assignmentRepo) Create(ctx context.Context, assignment *model.GradingAssignment) error {
	return r.db.WithContext(ctx).Omit("Course", "Pairs").Create(assignment).Error
}

func (r *assignmentRepo) CreatePairs(ctx context.Context, pairs []model.GradingAssignmentPair) error {
	if len(pairs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(pairs, 500).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.GradingAssignment, error) {
	var a model.GradingAssignment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) GetWithPairs(ctx context.Context, id string) (*model.GradingAssignment, error) {
	var a model.GradingAssignment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Pairs", func(db *gorm.DB) *gorm.DB {
			return db.Order("grader_email ASC, student_email ASC")
		}).
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByCourse(ctx context.Context, courseID string, includeArchived bool) ([]model.GradingAssignment, error) {
	var list []model.GradingAssignment
	db := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if !includeArchived {
		db = db.Where("archived = ?", false)
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) PairStats(ctx context.Context, assignmentIDs []string) (map[string]PairStats, error) {
	stats := make(map[string]PairStats, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return stats, nil
	}
	var rows []PairStats
	err := r.db.WithContext(ctx).
		Model(&model.GradingAssignmentPair{}).
		Select("assignment_id, COUNT(*) AS total, COUNT(*) FILTER (WHERE completed) AS completed").
		Where("assignment_id IN ?", assignmentIDs).
		Group("assignment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats[row.AssignmentID] = row
	}
	return stats, nil
}

func (r *assignmentRepo) ListPairsByGrader(ctx context.Context, assignmentID, graderEmail string) ([]model.GradingAssignmentPair, error) {
	var pairs []model.GradingAssignmentPair
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND grader_email = ?", assignmentID, graderEmail).
		Order("student_email ASC").
		Find(&pairs).Error
	return pairs, err
}

func (r *assignmentRepo) GetPair(ctx context.Context, pairID string) (*model.GradingAssignmentPair, error) {
	var pair model.GradingAssignmentPair
	if err := r.db.WithContext(ctx).Where("pair_id = ?", pairID).First(&pair).Error; err != nil {
		return nil, err
	}
	return &pair, nil
}

// SetPairCompleted updates only when the flag actually changes. The bool is
// false when the row already held the requested value.
func (r *assignmentRepo) SetPairCompleted(ctx context.Context, pairID string, completed bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.GradingAssignmentPair{}).
		Where("pair_id = ? AND completed <> ?", pairID, completed).
		Updates(map[string]interface{}{
			"completed":  completed,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	return result.RowsAffected > 0, result.Error
}

// SetArchived follows the same rule as SetPairCompleted.
func (r *assignmentRepo) SetArchived(ctx context.Context, id string, archived bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.GradingAssignment{}).
		Where("assignment_id = ? AND archived <> ?", id, archived).
		Updates(map[string]interface{}{
			"archived":   archived,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	return result.RowsAffected > 0, result.Error
}
