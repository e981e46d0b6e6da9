package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment links a student to a session. Enrollment management lives
// elsewhere; this service only reads it for the attempt-start check.
type Enrollment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	SessionID uint           `json:"session_id" gorm:"not null;uniqueIndex:idx_enrollment_session_student"`
	StudentID uint           `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment_session_student"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
