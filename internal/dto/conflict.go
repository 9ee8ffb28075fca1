package dto

// CreateConflictRequest declares a grader must never grade a student.
type CreateConflictRequest struct {
	GraderEmail  string `json:"grader_email"  binding:"required,email"`
	StudentEmail string `json:"student_email" binding:"required,email"`
}

// ConflictResponse one conflict of interest.
type ConflictResponse struct {
	ID           string `json:"id"`
	GraderEmail  string `json:"grader_email"`
	StudentEmail string `json:"student_email"`
	CreatedAt    string `json:"created_at"`
}
