package dto

// ── Platform courses ──

// MyCourseResponse is one platform course of the caller.
type MyCourseResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Semester    string `json:"semester"`
	Role        string `json:"role"`
	Tracked     bool   `json:"tracked"` // a local shadow exists
}

// CreateAutolabCourseRequest creates a new course on the platform with the
// default dates of its semester.
type CreateAutolabCourseRequest struct {
	Name            string `json:"name"             binding:"required,max=64"`
	DisplayName     string `json:"display_name"     binding:"required,max=255"`
	Semester        string `json:"semester"         binding:"required,len=3"`
	InstructorEmail string `json:"instructor_email" binding:"omitempty,email"`
}

// CreateAutolabCourseResponse where the new course lives.
type CreateAutolabCourseResponse struct {
	Message  string `json:"message"`
	Location string `json:"location"`
}

// ── Course shadows ──

// CreateCourseRequest starts tracking a platform course locally.
type CreateCourseRequest struct {
	CourseName string `json:"course_name" binding:"required,max=255"`
}

// CourseResponse a tracked course with a roster summary.
type CourseResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	CreatedBy    string  `json:"created_by"`
	CreatedAt    string  `json:"created_at"`
	LastSyncedAt *string `json:"last_synced_at,omitempty"`
	RosterSize   int     `json:"roster_size"`
	Graders      int     `json:"graders"`
	TotalHours   int     `json:"total_hours"`
}

// AssessmentResponse a platform assessment and the active batch for it, if any.
type AssessmentResponse struct {
	Name               string  `json:"name"`
	DisplayName        string  `json:"display_name"`
	URL                string  `json:"url"`
	ActiveAssignmentID *string `json:"active_assignment_id,omitempty"`
}

// ── Roster ──

// RosterEntryResponse one roster member.
type RosterEntryResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	GradingHours int    `json:"grading_hours"`
}

// RosterDeltaResponse emails touched by a reconciliation run.
type RosterDeltaResponse struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Deleted []string `json:"deleted"`
}

// CreateCourseResponse the new shadow and its initial reconciliation.
type CreateCourseResponse struct {
	Course CourseResponse      `json:"course"`
	Delta  RosterDeltaResponse `json:"delta"`
}

// SetGradingHoursRequest PUT /gat/courses/:course/roster/hours
type SetGradingHoursRequest struct {
	Email        string `json:"email"         binding:"required,email"`
	GradingHours *int   `json:"grading_hours" binding:"required,min=0,max=168"`
}
