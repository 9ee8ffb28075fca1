package model

import "time"

// Course is the local shadow of a platform course. Rosters, conflicts and
// grading batches hang off it.
type Course struct {
	CourseID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Name         string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"name"`
	DisplayName  string     `gorm:"type:varchar(255);not null"                     json:"display_name"`
	CreatedBy    string     `gorm:"type:uuid;not null"                             json:"created_by"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Timestamps
}

// TableName courses
func (Course) TableName() string { return "courses" }
