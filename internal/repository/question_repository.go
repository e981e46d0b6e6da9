package repository

import (
	"github.com/openclass/examcore/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(question *model.Question) error
	FindByID(id uint) (*model.Question, error)
	FindByExamID(examID uint) ([]model.Question, error)
	Delete(id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(question *model.Question) error {
	return r.db.Create(question).Error
}

func (r *questionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	err := r.db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("options.position ASC")
	}).First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByExamID(examID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Where("exam_id = ?", examID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position ASC")
		}).
		Order("position ASC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}
