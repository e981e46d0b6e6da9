package model

import (
	"time"

	"gorm.io/gorm"
)

// ExamStatus is the authoring lifecycle, distinct from the attempt lifecycle.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// VisibilityPolicy controls which result fields a student may see.
type VisibilityPolicy struct {
	ShowScore          bool `json:"show_score"`
	ShowAnswers        bool `json:"show_answers"`
	ShowCorrectAnswers bool `json:"show_correct_answers"`
	ShowFeedback       bool `json:"show_feedback"`
}

type Exam struct {
	ID              uint             `gorm:"primarykey" json:"id"`
	Title           string           `json:"title" gorm:"not null"`
	Description     string           `json:"description,omitempty"`
	TeacherID       uint             `json:"teacher_id" gorm:"not null;index"`
	SessionID       uint             `json:"session_id" gorm:"not null;index"`
	Status          ExamStatus       `json:"status" gorm:"not null;default:'DRAFT'"`
	StartTime       time.Time        `json:"start_time" gorm:"not null"`
	EndTime         time.Time        `json:"end_time" gorm:"not null"`
	DurationMinutes int              `json:"duration_minutes" gorm:"not null"`
	MaxAttempts     int              `json:"max_attempts" gorm:"not null;default:1"`
	Visibility      VisibilityPolicy `json:"visibility" gorm:"embedded;embeddedPrefix:visibility_"`
	Questions       []Question       `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TotalPoints is derived from the loaded questions, never stored.
func (e *Exam) TotalPoints() int {
	total := 0
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}

// WindowContains reports whether attempts may be started at t.
func (e *Exam) WindowContains(t time.Time) bool {
	return !t.Before(e.StartTime) && !t.After(e.EndTime)
}
