package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository groups every data access interface. Services receive it and
// open units of work through Transaction.
type Repository struct {
	User       UserRepository
	Course     CourseRepository
	Roster     RosterRepository
	Conflict   ConflictRepository
	Assignment AssignmentRepository
	Tx         Transactor
}

// Transactor runs fn against repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *Repository) error) error
}

// NewRepository builds the GORM implementations.
func NewRepository(db *gorm.DB) *Repository {
	r := bind(db)
	r.Tx = &gormTransactor{db: db}
	return r
}

// Transaction runs fn atomically. Without a Transactor fn runs directly on r.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx.Transaction(ctx, fn)
}

func bind(db *gorm.DB) *Repository {
	return &Repository{
		User:       NewUserRepo(db),
		Course:     NewCourseRepo(db),
		Roster:     NewRosterRepo(db),
		Conflict:   NewConflictRepo(db),
		Assignment: NewAssignmentRepo(db),
	}
}

type gormTransactor struct {
	db *gorm.DB
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := bind(tx)
		txRepo.Tx = &gormTransactor{db: tx}
		return fn(txRepo)
	})
}
