package allocation

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEligibleGrader is returned when submissions must be distributed but
	// no grader has declared a positive number of hours.
	ErrNoEligibleGrader = errors.New("no grader with positive hours is available")

	// ErrUnassignableStudent is the sentinel matched by UnassignableStudentError.
	ErrUnassignableStudent = errors.New("no viable grader remains for student")
)

// ConfigurationError reports a grader setup that cannot absorb the submissions.
type ConfigurationError struct {
	Submissions int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cannot distribute %d submissions: %v", e.Submissions, ErrNoEligibleGrader)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrNoEligibleGrader }

// UnassignableStudentError names the student that aborted an allocation run.
type UnassignableStudentError struct {
	Student string
}

func (e *UnassignableStudentError) Error() string {
	return fmt.Sprintf("no viable grader remains for student %s", e.Student)
}

func (e *UnassignableStudentError) Is(target error) bool { return target == ErrUnassignableStudent }
