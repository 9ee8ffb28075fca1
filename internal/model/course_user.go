package model

// Course roles. The platform calls assistants "course_assistant".
const (
	RoleInstructor = "instructor"
	RoleAssistant  = "assistant"
	RoleStudent    = "student"
)

// IsGraderRole reports whether role may receive submissions to grade.
func IsGraderRole(role string) bool {
	return role == RoleInstructor || role == RoleAssistant
}

// CourseUser is one roster entry, keyed by email within a course. The email
// need not belong to any portal account.
type CourseUser struct {
	CourseUserID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_user_id"`
	CourseID     string `gorm:"type:uuid;not null;uniqueIndex:uq_course_users_email,priority:1" json:"course_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:uq_course_users_email,priority:2" json:"email"`
	DisplayName  string `gorm:"type:varchar(255);not null"                     json:"display_name"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"`
	GradingHours int    `gorm:"not null;default:0"                             json:"grading_hours"`
	Timestamps
}

// TableName course_users
func (CourseUser) TableName() string { return "course_users" }
