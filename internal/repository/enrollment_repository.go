package repository

import (
	"github.com/openclass/examcore/internal/model"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	IsEnrolled(sessionID, studentID uint) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) IsEnrolled(sessionID, studentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Enrollment{}).
		Where("session_id = ? AND student_id = ?", sessionID, studentID).
		Count(&count).Error
	return count > 0, err
}
