package repository

import (
	"errors"

	"github.com/openclass/examcore/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(attempt *model.Attempt) error
	Update(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindByIDWithAnswers(id uint) (*model.Attempt, error)
	CountByStudentAndExam(studentID, examID uint) (int64, error)
	// FindActiveByStudentAndExam returns nil, nil when no IN_PROGRESS attempt exists.
	FindActiveByStudentAndExam(studentID, examID uint) (*model.Attempt, error)
	FindAllByStudentAndExam(studentID, examID uint) ([]model.Attempt, error)
	FindAllByExam(examID uint) ([]model.Attempt, error)
	CountByExam(examID uint) (int64, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.Attempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) Update(attempt *model.Attempt) error {
	return r.db.Save(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithAnswers(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.Preload("Answers").First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) CountByStudentAndExam(studentID, examID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) FindActiveByStudentAndExam(studentID, examID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Where("student_id = ? AND exam_id = ? AND status = ?", studentID, examID, model.AttemptStatusInProgress).
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindAllByStudentAndExam(studentID, examID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Order("start_time DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) CountByExam(examID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}

func (r *attemptRepository) FindAllByExam(examID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("exam_id = ?", examID).
		Order("status ASC, start_time ASC").
		Find(&attempts).Error
	return attempts, err
}
