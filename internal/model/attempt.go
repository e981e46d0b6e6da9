package model

import (
	"time"

	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
	AttemptStatusGraded     AttemptStatus = "GRADED"
)

// Attempt is one student's timed run through an exam. At most one IN_PROGRESS
// attempt exists per (student, exam); attempts are never physically deleted.
type Attempt struct {
	ID        uint          `gorm:"primarykey" json:"id"`
	ExamID    uint          `json:"exam_id" gorm:"not null;index:idx_attempt_student_exam"`
	StudentID uint          `json:"student_id" gorm:"not null;index:idx_attempt_student_exam"`
	Status    AttemptStatus `json:"status" gorm:"not null;default:'IN_PROGRESS'"`
	StartTime time.Time     `json:"start_time" gorm:"not null"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	// Nil until submission; provisional until grading finalizes.
	Score     *int           `json:"score,omitempty"`
	GradedAt  *time.Time     `json:"graded_at,omitempty"`
	Answers   []Answer       `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Deadline is the moment the attempt's duration elapses.
func (a *Attempt) Deadline(durationMinutes int) time.Time {
	return a.StartTime.Add(time.Duration(durationMinutes) * time.Minute)
}
