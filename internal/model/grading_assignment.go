package model

import "time"

// GradingAssignment is one allocation batch for an assessment. Its pairs
// never change after creation; only Archived may be toggled.
type GradingAssignment struct {
	AssignmentID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	CourseID              string `gorm:"type:uuid;not null;index"                       json:"course_id"`
	AssessmentName        string `gorm:"type:varchar(255);not null"                     json:"assessment_name"`
	AssessmentDisplayName string `gorm:"type:varchar(255);not null"                     json:"assessment_display_name"`
	CreatedBy             string `gorm:"type:uuid;not null"                             json:"created_by"`
	Archived              bool   `gorm:"not null;default:false"                         json:"archived"`
	Timestamps

	Course *Course                 `gorm:"foreignKey:CourseID;references:CourseID"         json:"course,omitempty"`
	Pairs  []GradingAssignmentPair `gorm:"foreignKey:AssignmentID;references:AssignmentID" json:"pairs,omitempty"`
}

// TableName course_grading_assignments
func (GradingAssignment) TableName() string { return "course_grading_assignments" }

// GradingAssignmentPair assigns one student's submission to one grader.
type GradingAssignmentPair struct {
	PairID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pair_id"`
	AssignmentID      string    `gorm:"type:uuid;not null"                             json:"assignment_id"`
	GraderEmail       string    `gorm:"type:varchar(255);not null"                     json:"grader_email"`
	StudentEmail      string    `gorm:"type:varchar(255);not null"                     json:"student_email"`
	SubmissionURL     string    `gorm:"type:varchar(1024);not null"                    json:"submission_url"`
	SubmissionVersion int       `gorm:"not null;default:0"                             json:"submission_version"`
	Completed         bool      `gorm:"not null;default:false"                         json:"completed"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName course_grading_assignment_pairs
func (GradingAssignmentPair) TableName() string { return "course_grading_assignment_pairs" }
