package autolab

// Role names as the platform reports them.
const (
	RoleInstructor      = "instructor"
	RoleCourseAssistant = "course_assistant"
	RoleStudent         = "student"
)

// Course is one platform course the user belongs to.
type Course struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Semester    string `json:"semester"`
	Role        string `json:"role"`
}

// UserCourses lists a user's courses, most recent last.
type UserCourses struct {
	Email   string   `json:"email"`
	Courses []Course `json:"courses"`
}

// CourseUser is one member of a platform course.
type CourseUser struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// CourseUsers is the authoritative roster of a course, sorted by email.
type CourseUsers struct {
	CourseName  string       `json:"course_name"`
	DisplayName string       `json:"display_name"`
	Users       []CourseUser `json:"users"`
}

// Assessment of a course.
type Assessment struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// CourseAssessments lists assessments by due date.
type CourseAssessments struct {
	CourseName  string       `json:"course_name"`
	DisplayName string       `json:"display_name"`
	Assessments []Assessment `json:"assessments"`
}

// Submission is the latest submission of one student.
type Submission struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Version     int    `json:"version"`
	URL         string `json:"url"`
}

// AssessmentSubmissions of one assessment, sorted by email.
type AssessmentSubmissions struct {
	CourseName            string       `json:"course_name"`
	AssessmentName        string       `json:"assessment_name"`
	AssessmentDisplayName string       `json:"assessment_display_name"`
	Submissions           []Submission `json:"submissions"`
}

// Section is a lecture or recitation meeting. DaysCode is a weekday bitmask,
// bit 0 Sunday through bit 6 Saturday.
type Section struct {
	Name      string `json:"name"`
	IsLecture bool   `json:"is_lecture"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	DaysCode  int    `json:"days_code"`
}

// CourseSections of one course, sorted by name.
type CourseSections struct {
	CourseName        string    `json:"course_name"`
	CourseDisplayName string    `json:"course_display_name"`
	Sections          []Section `json:"sections"`
}

// NewCourse describes a course to create on the platform.
type NewCourse struct {
	Name            string
	DisplayName     string
	Semester        string
	InstructorEmail string
	StartDate       string
	EndDate         string
}
