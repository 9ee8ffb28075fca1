package model

import "time"

// ConflictOfInterest forbids pairing GraderEmail with StudentEmail in a course.
type ConflictOfInterest struct {
	ConflictID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"conflict_id"`
	CourseID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_course_conflict,priority:1" json:"course_id"`
	GraderEmail  string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_course_conflict,priority:2" json:"grader_email"`
	StudentEmail string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_course_conflict,priority:3" json:"student_email"`
	CreatedBy    *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName course_conflicts_of_interest
func (ConflictOfInterest) TableName() string { return "course_conflicts_of_interest" }
