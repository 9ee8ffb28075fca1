package dto

// SectionRequest one section as submitted. Fields are pointers so a missing
// field can be reported by name.
type SectionRequest struct {
	Name      *string `json:"name"`
	IsLecture *bool   `json:"is_lecture"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	DaysCode  *int    `json:"days_code"`
}

// UpsertSectionsRequest POST /sections/:course
type UpsertSectionsRequest struct {
	Sections []SectionRequest `json:"sections" binding:"required"`
}

// SectionResponse one validated section. DaysCode bit 0 is Sunday.
type SectionResponse struct {
	Name      string `json:"name"`
	IsLecture bool   `json:"is_lecture"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	DaysCode  int    `json:"days_code"`
}

// SectionsResponse sections of a course.
type SectionsResponse struct {
	CourseName        string            `json:"course_name"`
	CourseDisplayName string            `json:"course_display_name"`
	Sections          []SectionResponse `json:"sections"`
}

// SectionErrorsResponse lists every problem found; nothing was updated.
type SectionErrorsResponse struct {
	Errors []string `json:"errors"`
}
