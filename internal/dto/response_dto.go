package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// --- Teacher-facing exam views (correctness data included) ---

type OptionResponseDTO struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

type QuestionResponseDTO struct {
	ID            uint                `json:"id"`
	ExamID        uint                `json:"exam_id"`
	Type          string              `json:"type"`
	Prompt        string              `json:"prompt"`
	Points        int                 `json:"points"`
	Position      int                 `json:"position"`
	AllowMultiple bool                `json:"allow_multiple"`
	Options       []OptionResponseDTO `json:"options,omitempty"`
	CorrectAnswer *bool               `json:"correct_answer,omitempty"`
}

type ExamResponseDTO struct {
	ID              uint                    `json:"id"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description,omitempty"`
	TeacherID       uint                    `json:"teacher_id"`
	SessionID       uint                    `json:"session_id"`
	Status          string                  `json:"status"`
	StartTime       time.Time               `json:"start_time"`
	EndTime         time.Time               `json:"end_time"`
	DurationMinutes int                     `json:"duration_minutes"`
	MaxAttempts     int                     `json:"max_attempts"`
	TotalPoints     int                     `json:"total_points"`
	Visibility      VisibilityPolicyRequest `json:"visibility"`
	Questions       []QuestionResponseDTO   `json:"questions,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

type ExamSummaryDTO struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxAttempts     int       `json:"max_attempts"`
}

// --- Student-facing exam views (correctness data stripped) ---

type StudentOptionDTO struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

type StudentQuestionDTO struct {
	ID            uint               `json:"id"`
	Type          string             `json:"type"`
	Prompt        string             `json:"prompt"`
	Points        int                `json:"points"`
	Position      int                `json:"position"`
	AllowMultiple bool               `json:"allow_multiple"`
	Options       []StudentOptionDTO `json:"options,omitempty"`
}

type StudentExamDTO struct {
	ID              uint                 `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description,omitempty"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	DurationMinutes int                  `json:"duration_minutes"`
	MaxAttempts     int                  `json:"max_attempts"`
	TotalPoints     int                  `json:"total_points"`
	Questions       []StudentQuestionDTO `json:"questions,omitempty"`
}

// --- Attempts ---

type AttemptSummaryDTO struct {
	ID        uint       `json:"id"`
	ExamID    uint       `json:"exam_id"`
	StudentID uint       `json:"student_id"`
	Status    string     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Score     *int       `json:"score,omitempty"`
	GradedAt  *time.Time `json:"graded_at,omitempty"`
}

type AnswerResponseDTO struct {
	AttemptID         uint     `json:"attempt_id"`
	QuestionID        uint     `json:"question_id"`
	SelectedOptionID  *string  `json:"selected_option,omitempty"`
	SelectedOptionIDs []string `json:"selected_options,omitempty"`
	BooleanAnswer     *string  `json:"boolean_answer,omitempty"`
	TextAnswer        *string  `json:"text_answer,omitempty"`
	PointsAwarded     *int     `json:"points_awarded,omitempty"`
	Feedback          *string  `json:"feedback,omitempty"`
}

type SubmitResultDTO struct {
	AttemptID uint   `json:"attempt_id"`
	Status    string `json:"status"`
	Score     int    `json:"score"`
	MaxScore  int    `json:"max_score"`
}

// AttemptQuestionViewDTO is one row of a student's result view. Correctness,
// score and feedback fields are populated only as far as the exam's visibility
// policy and the attempt status allow.
type AttemptQuestionViewDTO struct {
	QuestionID    uint               `json:"question_id"`
	Type          string             `json:"type"`
	Prompt        string             `json:"prompt"`
	Points        int                `json:"points"`
	Position      int                `json:"position"`
	AllowMultiple bool               `json:"allow_multiple"`
	Options       []StudentOptionDTO `json:"options,omitempty"`

	SelectedOptionID  *string  `json:"selected_option,omitempty"`
	SelectedOptionIDs []string `json:"selected_options,omitempty"`
	BooleanAnswer     *string  `json:"boolean_answer,omitempty"`
	TextAnswer        *string  `json:"text_answer,omitempty"`

	CorrectOptionIDs []string `json:"correct_options,omitempty"`
	CorrectAnswer    *bool    `json:"correct_answer,omitempty"`
	PointsAwarded    *int     `json:"points_awarded,omitempty"`
	Feedback         *string  `json:"feedback,omitempty"`
}

type AttemptViewDTO struct {
	ID        uint                     `json:"id"`
	ExamID    uint                     `json:"exam_id"`
	ExamTitle string                   `json:"exam_title,omitempty"`
	Status    string                   `json:"status"`
	StartTime time.Time                `json:"start_time"`
	Deadline  time.Time                `json:"deadline"`
	EndTime   *time.Time               `json:"end_time,omitempty"`
	Score     *int                     `json:"score,omitempty"`
	MaxScore  int                      `json:"max_score"`
	GradedAt  *time.Time               `json:"graded_at,omitempty"`
	Questions []AttemptQuestionViewDTO `json:"questions"`
}
