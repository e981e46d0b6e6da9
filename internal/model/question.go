package model

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "MCQ"
	QuestionTypeTrueFalse QuestionType = "TRUE_FALSE"
	QuestionTypeOpenEnded QuestionType = "OPEN_ENDED"
)

type Question struct {
	ID       uint         `gorm:"primarykey" json:"id"`
	ExamID   uint         `json:"exam_id" gorm:"not null;index"`
	Type     QuestionType `json:"type" gorm:"not null"`
	Prompt   string       `json:"prompt" gorm:"type:text;not null"`
	Points   int          `json:"points" gorm:"not null"`
	Position int          `json:"position" gorm:"not null"`
	// MCQ only. Single-select when false.
	AllowMultiple bool     `json:"allow_multiple"`
	Options       []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	// TRUE_FALSE only.
	CorrectAnswer *bool          `json:"correct_answer,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Option ids are minted once at question creation and never regenerated, so
// previously submitted answers keep referencing valid ids.
type Option struct {
	ID         string         `gorm:"primarykey;size:36" json:"id"`
	QuestionID uint           `json:"question_id" gorm:"not null;index"`
	Text       string         `json:"text" gorm:"not null"`
	IsCorrect  bool           `json:"is_correct"`
	Position   int            `json:"position" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// CorrectOptionIDs returns the ids of options flagged correct.
func (q *Question) CorrectOptionIDs() []string {
	var ids []string
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
