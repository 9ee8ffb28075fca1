package service

import (
	"errors"
	"fmt"
	"strings"
)

// ── Shared business errors ──

var (
	ErrForbidden = errors.New("you do not have permission to do this in this course")
	ErrUpstream  = errors.New("the learning platform request failed")

	ErrRosterNotFound      = errors.New("course is not tracked by the portal")
	ErrCourseExists        = errors.New("course is already tracked by the portal")
	ErrRosterEntryNotFound = errors.New("no such member on the course roster")
	ErrHoursForNonGrader   = errors.New("only instructors and assistants may have grading hours")
	ErrInvalidRoster       = errors.New("the platform returned an invalid roster")

	ErrDuplicateConflict = errors.New("conflict of interest already recorded")
	ErrConflictNotFound  = errors.New("conflict of interest not found")
	ErrSelfConflict      = errors.New("a grader cannot conflict with themselves")

	ErrInvalidSubmissions     = errors.New("the platform returned invalid submissions")
	ErrAssignmentNotFound     = errors.New("grading assignment not found")
	ErrPairNotFound           = errors.New("grading pair not found")
	ErrActiveAssignmentExists = errors.New("an active grading assignment already exists for this assessment")
	ErrAssignmentLocked       = errors.New("a grading assignment for this assessment is already being created")
	ErrNoOpToggle             = errors.New("value is already set")
	ErrNotPairGrader          = errors.New("only the assigned grader or an administrator may change this pair")

	ErrInvalidSections = errors.New("there were errors in the sections you provided, nothing has been updated")
	ErrNoSections      = errors.New("no sections were updated")
	ErrInvalidSemester = errors.New("semester must look like f24, s25, u25 or w25")

	ErrPersistence = errors.New("database operation failed")
)

// RosterNotFoundError the course has no local shadow to reconcile into.
type RosterNotFoundError struct {
	Course string
}

func (e *RosterNotFoundError) Error() string {
	return fmt.Sprintf("course %q is not tracked by the portal", e.Course)
}

func (e *RosterNotFoundError) Is(target error) bool { return target == ErrRosterNotFound }

// DuplicateConflictError names the pair that already exists.
type DuplicateConflictError struct {
	Grader  string
	Student string
}

func (e *DuplicateConflictError) Error() string {
	return fmt.Sprintf("conflict of interest between %s and %s already recorded", e.Grader, e.Student)
}

func (e *DuplicateConflictError) Is(target error) bool { return target == ErrDuplicateConflict }

// PersistenceError wraps a failed database read or write. Nothing from the
// operation was committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// ValidationError lists every problem found in some input. Kind is the
// sentinel it matches.
type ValidationError struct {
	Kind     error
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == e.Kind }

func upstreamError(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
