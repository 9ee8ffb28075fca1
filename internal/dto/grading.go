package dto

// CreateAssignmentRequest runs the allocation for one assessment.
type CreateAssignmentRequest struct {
	AssessmentName string `json:"assessment_name" binding:"required,max=255"`
}

// ListAssignmentsQuery GET /gat/courses/:course/assignments
type ListAssignmentsQuery struct {
	IncludeArchived bool `form:"include_archived"`
}

// AssignmentResponse one batch with completion counts.
type AssignmentResponse struct {
	ID                    string `json:"id"`
	CourseName            string `json:"course_name"`
	AssessmentName        string `json:"assessment_name"`
	AssessmentDisplayName string `json:"assessment_display_name"`
	CreatedBy             string `json:"created_by"`
	CreatedAt             string `json:"created_at"`
	Archived              bool   `json:"archived"`
	TotalPairs            int    `json:"total_pairs"`
	CompletedPairs        int    `json:"completed_pairs"`
}

// PairResponse one grader/submission pair.
type PairResponse struct {
	ID                string `json:"id"`
	GraderEmail       string `json:"grader_email"`
	StudentEmail      string `json:"student_email"`
	SubmissionURL     string `json:"submission_url"`
	SubmissionVersion int    `json:"submission_version"`
	Completed         bool   `json:"completed"`
}

// GraderPairsResponse pairs of one grader.
type GraderPairsResponse struct {
	GraderEmail string         `json:"grader_email"`
	Pairs       []PairResponse `json:"pairs"`
}

// AssignmentDetailResponse a batch with its pairs grouped by grader.
type AssignmentDetailResponse struct {
	AssignmentResponse
	Graders []GraderPairsResponse `json:"graders"`
}

// SetArchivedRequest PUT /gat/assignments/:id/archived
type SetArchivedRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// SetCompletedRequest PUT /gat/pairs/:id/completed
type SetCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}
