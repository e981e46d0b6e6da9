package service

import "github.com/openclass/examcore/internal/model"

// ScoreAggregator sums per-question outcomes into an attempt score. Auto-graded
// questions are re-evaluated on every call; open-ended questions contribute
// their recorded manual grade, with nil counted as 0 for provisional display.
type ScoreAggregator interface {
	Aggregate(questions []model.Question, answers []model.Answer) int
	// AllGraded is true iff every open-ended question has a non-nil manual grade.
	AllGraded(questions []model.Question, answers []model.Answer) bool
}

type scoreAggregator struct {
	evaluator AnswerEvaluator
}

func NewScoreAggregator(evaluator AnswerEvaluator) ScoreAggregator {
	return &scoreAggregator{evaluator: evaluator}
}

func (s *scoreAggregator) Aggregate(questions []model.Question, answers []model.Answer) int {
	byQuestion := answersByQuestion(answers)
	total := 0
	for i := range questions {
		q := &questions[i]
		answer := byQuestion[q.ID]
		if q.Type == model.QuestionTypeOpenEnded {
			if answer != nil && answer.PointsAwarded != nil {
				total += *answer.PointsAwarded
			}
			continue
		}
		total += s.evaluator.Evaluate(q, answer).Points
	}
	return total
}

func (s *scoreAggregator) AllGraded(questions []model.Question, answers []model.Answer) bool {
	byQuestion := answersByQuestion(answers)
	for i := range questions {
		q := &questions[i]
		if q.Type != model.QuestionTypeOpenEnded {
			continue
		}
		answer := byQuestion[q.ID]
		if answer == nil || answer.PointsAwarded == nil {
			return false
		}
	}
	return true
}

func answersByQuestion(answers []model.Answer) map[uint]*model.Answer {
	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}
	return byQuestion
}
