package repository

import (
	"github.com/openclass/examcore/internal/model"
	"gorm.io/gorm"
)

type ExamRepository interface {
	Create(exam *model.Exam) error
	Update(exam *model.Exam) error
	Delete(id uint) error
	FindByID(id uint) (*model.Exam, error)
	FindByIDWithQuestions(id uint) (*model.Exam, error)
	FindAllByStatus(status model.ExamStatus) ([]model.Exam, error)
	FindAllByTeacher(teacherID uint) ([]model.Exam, error)
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(exam *model.Exam) error {
	// Associated questions and options are created in the same insert when
	// populated on the model.
	return r.db.Create(exam).Error
}

func (r *examRepository) Update(exam *model.Exam) error {
	return r.db.Save(exam).Error
}

func (r *examRepository) Delete(id uint) error {
	return r.db.Delete(&model.Exam{}, id).Error
}

func (r *examRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.db.First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position ASC")
		}).
		First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindAllByStatus(status model.ExamStatus) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.Where("status = ?", status).Order("start_time ASC").Find(&exams).Error
	return exams, err
}

func (r *examRepository) FindAllByTeacher(teacherID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.Where("teacher_id = ?", teacherID).Order("created_at DESC").Find(&exams).Error
	return exams, err
}
