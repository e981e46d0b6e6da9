package dto

import "time"

// CreateOptionRequest is one MCQ choice. Ids are assigned server-side at
// creation and stay stable for the life of the question.
type CreateOptionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type CreateQuestionRequest struct {
	Type     string `json:"type" binding:"required,oneof=MCQ TRUE_FALSE OPEN_ENDED"`
	Prompt   string `json:"prompt" binding:"required"`
	Points   int    `json:"points" binding:"required,gt=0"`
	Position int    `json:"position" binding:"omitempty,min=1"`

	// MCQ only.
	AllowMultiple bool                  `json:"allow_multiple"`
	Options       []CreateOptionRequest `json:"options" binding:"omitempty,dive"`

	// TRUE_FALSE only.
	CorrectAnswer *bool `json:"correct_answer"`
}

type VisibilityPolicyRequest struct {
	ShowScore          bool `json:"show_score"`
	ShowAnswers        bool `json:"show_answers"`
	ShowCorrectAnswers bool `json:"show_correct_answers"`
	ShowFeedback       bool `json:"show_feedback"`
}

type CreateExamRequest struct {
	Title           string                  `json:"title" binding:"required"`
	Description     string                  `json:"description"`
	SessionID       uint                    `json:"session_id" binding:"required"`
	StartTime       time.Time               `json:"start_time" binding:"required"`
	EndTime         time.Time               `json:"end_time" binding:"required,gtfield=StartTime"`
	DurationMinutes int                     `json:"duration_minutes" binding:"required,min=1"`
	MaxAttempts     int                     `json:"max_attempts" binding:"required,min=1"`
	Visibility      VisibilityPolicyRequest `json:"visibility"`
	Questions       []CreateQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// SaveAnswerRequest carries mutually exclusive payload fields; which one must
// be set follows the question type and is validated in the service.
// BooleanAnswer tolerates JSON booleans as well as textual true/false.
type SaveAnswerRequest struct {
	SelectedOptionID  *string  `json:"selected_option"`
	SelectedOptionIDs []string `json:"selected_options"`
	BooleanAnswer     any      `json:"boolean_answer"`
	TextAnswer        *string  `json:"text_answer"`
}

type GradeQuestionRequest struct {
	PointsAwarded *int    `json:"points_awarded" binding:"required"`
	Feedback      *string `json:"feedback"`
}
