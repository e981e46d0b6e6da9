package repository

import (
	"errors"

	"github.com/openclass/examcore/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// Upsert writes the answer for its (attempt, question) pair, replacing any
	// prior payload. Last write wins.
	Upsert(answer *model.Answer) error
	Update(answer *model.Answer) error
	FindByAttemptID(attemptID uint) ([]model.Answer, error)
	// FindByAttemptAndQuestion returns nil, nil when no answer was recorded.
	FindByAttemptAndQuestion(attemptID, questionID uint) (*model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Upsert(answer *model.Answer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_option_id", "selected_option_ids", "boolean_answer", "text_answer", "updated_at",
		}),
	}).Create(answer).Error
}

func (r *answerRepository) Update(answer *model.Answer) error {
	return r.db.Save(answer).Error
}

func (r *answerRepository) FindByAttemptID(attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

func (r *answerRepository) FindByAttemptAndQuestion(attemptID, questionID uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}
