package service

import (
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/model"
)

// VisibilityGate filters what a student-facing read may reveal, based on the
// exam's visibility policy and the attempt status. It is a pure projection.
type VisibilityGate interface {
	ExamView(exam *model.Exam) *dto.StudentExamDTO
	AttemptView(exam *model.Exam, attempt *model.Attempt, answers []model.Answer) *dto.AttemptViewDTO
}

type visibilityGate struct{}

func NewVisibilityGate() VisibilityGate {
	return &visibilityGate{}
}

// ExamView strips all correctness data; students taking an exam only see
// prompts and option texts.
func (g *visibilityGate) ExamView(exam *model.Exam) *dto.StudentExamDTO {
	view := &dto.StudentExamDTO{
		ID:              exam.ID,
		Title:           exam.Title,
		Description:     exam.Description,
		StartTime:       exam.StartTime,
		EndTime:         exam.EndTime,
		DurationMinutes: exam.DurationMinutes,
		MaxAttempts:     exam.MaxAttempts,
		TotalPoints:     exam.TotalPoints(),
	}
	for i := range exam.Questions {
		view.Questions = append(view.Questions, studentQuestion(&exam.Questions[i]))
	}
	return view
}

func (g *visibilityGate) AttemptView(exam *model.Exam, attempt *model.Attempt, answers []model.Answer) *dto.AttemptViewDTO {
	policy := exam.Visibility
	submitted := attempt.Status == model.AttemptStatusSubmitted || attempt.Status == model.AttemptStatusGraded
	graded := attempt.Status == model.AttemptStatusGraded

	view := &dto.AttemptViewDTO{
		ID:        attempt.ID,
		ExamID:    exam.ID,
		ExamTitle: exam.Title,
		Status:    string(attempt.Status),
		StartTime: attempt.StartTime,
		Deadline:  attempt.Deadline(exam.DurationMinutes),
		EndTime:   attempt.EndTime,
		MaxScore:  exam.TotalPoints(),
		GradedAt:  attempt.GradedAt,
	}
	if policy.ShowScore && submitted {
		view.Score = attempt.Score
	}

	byQuestion := answersByQuestion(answers)
	for i := range exam.Questions {
		q := &exam.Questions[i]
		sq := studentQuestion(q)
		row := dto.AttemptQuestionViewDTO{
			QuestionID:    q.ID,
			Type:          string(q.Type),
			Prompt:        q.Prompt,
			Points:        q.Points,
			Position:      q.Position,
			AllowMultiple: q.AllowMultiple,
			Options:       sq.Options,
		}
		answer := byQuestion[q.ID]
		if policy.ShowAnswers && answer != nil {
			row.SelectedOptionID = answer.SelectedOptionID
			row.SelectedOptionIDs = answer.SelectedOptionIDs
			row.BooleanAnswer = answer.BooleanAnswer
			row.TextAnswer = answer.TextAnswer
		}
		// Correct-answer data is never exposed before the attempt has been
		// submitted, regardless of policy.
		if policy.ShowCorrectAnswers && submitted {
			row.CorrectOptionIDs = q.CorrectOptionIDs()
			row.CorrectAnswer = q.CorrectAnswer
		}
		if policy.ShowScore && submitted && answer != nil {
			row.PointsAwarded = answer.PointsAwarded
		}
		if policy.ShowFeedback && graded && answer != nil {
			row.Feedback = answer.Feedback
		}
		view.Questions = append(view.Questions, row)
	}
	return view
}

func studentQuestion(q *model.Question) dto.StudentQuestionDTO {
	sq := dto.StudentQuestionDTO{
		ID:            q.ID,
		Type:          string(q.Type),
		Prompt:        q.Prompt,
		Points:        q.Points,
		Position:      q.Position,
		AllowMultiple: q.AllowMultiple,
	}
	for _, o := range q.Options {
		sq.Options = append(sq.Options, dto.StudentOptionDTO{ID: o.ID, Text: o.Text, Position: o.Position})
	}
	return sq
}
