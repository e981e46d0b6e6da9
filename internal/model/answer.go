package model

import (
	"time"

	"gorm.io/gorm"
)

// Answer holds one student response per (attempt, question) pair. The payload
// fields are mutually exclusive; which one is populated follows the question
// type and is validated at the boundary.
type Answer struct {
	ID         uint `gorm:"primarykey" json:"id"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`

	SelectedOptionID  *string  `json:"selected_option_id,omitempty" gorm:"size:36"`
	SelectedOptionIDs []string `json:"selected_option_ids,omitempty" gorm:"serializer:json"`
	// Canonical "true"/"false"; textual variants are normalized on write and
	// tolerated again at evaluation time.
	BooleanAnswer *string `json:"boolean_answer,omitempty" gorm:"size:8"`
	TextAnswer    *string `json:"text_answer,omitempty" gorm:"type:text"`

	// Nil until evaluated: at submission for auto-graded types, by a teacher
	// for OPEN_ENDED.
	PointsAwarded *int           `json:"points_awarded,omitempty"`
	Feedback      *string        `json:"feedback,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
