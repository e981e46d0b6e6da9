package dto

import "time"

// GradingQuestionDTO is one row of the teacher's grading breakdown. Auto-graded
// rows are informational; open-ended rows carry the current manual grade.
type GradingQuestionDTO struct {
	QuestionID uint   `json:"question_id"`
	Type       string `json:"type"`
	Prompt     string `json:"prompt"`
	Points     int    `json:"points"`
	Position   int    `json:"position"`
	AutoGraded bool   `json:"auto_graded"`

	SelectedOptionID  *string  `json:"selected_option,omitempty"`
	SelectedOptionIDs []string `json:"selected_options,omitempty"`
	BooleanAnswer     *string  `json:"boolean_answer,omitempty"`
	TextAnswer        *string  `json:"text_answer,omitempty"`

	CorrectOptionIDs []string `json:"correct_options,omitempty"`
	CorrectAnswer    *bool    `json:"correct_answer,omitempty"`
	Correct          *bool    `json:"correct,omitempty"`

	PointsAwarded *int    `json:"points_awarded,omitempty"`
	Feedback      *string `json:"feedback,omitempty"`
}

type GradingBreakdownDTO struct {
	AttemptID   uint                 `json:"attempt_id"`
	ExamID      uint                 `json:"exam_id"`
	StudentID   uint                 `json:"student_id"`
	Status      string               `json:"status"`
	SubmittedAt *time.Time           `json:"submitted_at,omitempty"`
	Score       *int                 `json:"score,omitempty"`
	MaxScore    int                  `json:"max_score"`
	AllGraded   bool                 `json:"all_graded"`
	Questions   []GradingQuestionDTO `json:"questions"`
}

// GradeSuggestionDTO is a non-binding AI suggestion for an open-ended answer.
type GradeSuggestionDTO struct {
	QuestionID      uint   `json:"question_id"`
	SuggestedPoints int    `json:"suggested_points"`
	Feedback        string `json:"feedback"`
}
