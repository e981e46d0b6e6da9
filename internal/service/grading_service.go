package service

import (
	"fmt"
	"time"

	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/model"
	"github.com/openclass/examcore/internal/repository"
	"github.com/rs/zerolog/log"
)

// GradingService is the teacher-facing workflow: per-question breakdowns,
// bounded manual grades for open-ended questions, and the SUBMITTED → GRADED
// finalization that only succeeds once every open-ended question is graded.
type GradingService interface {
	GetForGrading(teacherID, attemptID uint) (*dto.GradingBreakdownDTO, error)
	GradeQuestion(teacherID, attemptID, questionID uint, req dto.GradeQuestionRequest) (*dto.AnswerResponseDTO, error)
	Finalize(teacherID, attemptID uint) (*dto.AttemptSummaryDTO, error)
	ListAttemptsForExam(teacherID, examID uint) ([]dto.AttemptSummaryDTO, error)
}

type gradingService struct {
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	answerRepo   repository.AnswerRepository
	evaluator    AnswerEvaluator
	aggregator   ScoreAggregator
	locks        *KeyedMutex
	now          func() time.Time
}

func NewGradingService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	evaluator AnswerEvaluator,
	aggregator ScoreAggregator,
	locks *KeyedMutex,
) GradingService {
	return &gradingService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		evaluator:    evaluator,
		aggregator:   aggregator,
		locks:        locks,
		now:          time.Now,
	}
}

// loadOwnedAttempt resolves the attempt and its exam and enforces that the
// caller is the exam's owning teacher.
func (s *gradingService) loadOwnedAttempt(teacherID, attemptID uint) (*model.Attempt, *model.Exam, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, nil, apperr.NotFound("attempt %d not found", attemptID)
	}
	exam, err := s.examRepo.FindByIDWithQuestions(attempt.ExamID)
	if err != nil {
		return nil, nil, apperr.NotFound("exam %d not found", attempt.ExamID)
	}
	if exam.TeacherID != teacherID {
		return nil, nil, apperr.Forbidden("caller does not own exam %d", exam.ID)
	}
	return attempt, exam, nil
}

func (s *gradingService) GetForGrading(teacherID, attemptID uint) (*dto.GradingBreakdownDTO, error) {
	attempt, exam, err := s.loadOwnedAttempt(teacherID, attemptID)
	if err != nil {
		return nil, err
	}
	// GRADED attempts stay readable for review; only unsubmitted work is off
	// limits.
	if attempt.Status == model.AttemptStatusInProgress {
		return nil, apperr.InvalidState("attempt %d has not been submitted", attemptID)
	}
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, err
	}

	breakdown := &dto.GradingBreakdownDTO{
		AttemptID:   attempt.ID,
		ExamID:      exam.ID,
		StudentID:   attempt.StudentID,
		Status:      string(attempt.Status),
		SubmittedAt: attempt.EndTime,
		Score:       attempt.Score,
		MaxScore:    exam.TotalPoints(),
		AllGraded:   s.aggregator.AllGraded(exam.Questions, answers),
	}

	byQuestion := answersByQuestion(answers)
	for i := range exam.Questions {
		q := &exam.Questions[i]
		row := dto.GradingQuestionDTO{
			QuestionID: q.ID,
			Type:       string(q.Type),
			Prompt:     q.Prompt,
			Points:     q.Points,
			Position:   q.Position,
			AutoGraded: q.Type != model.QuestionTypeOpenEnded,
		}
		answer := byQuestion[q.ID]
		if answer != nil {
			row.SelectedOptionID = answer.SelectedOptionID
			row.SelectedOptionIDs = answer.SelectedOptionIDs
			row.BooleanAnswer = answer.BooleanAnswer
			row.TextAnswer = answer.TextAnswer
			row.PointsAwarded = answer.PointsAwarded
			row.Feedback = answer.Feedback
		}
		if row.AutoGraded {
			row.CorrectOptionIDs = q.CorrectOptionIDs()
			row.CorrectAnswer = q.CorrectAnswer
			correct := s.evaluator.Evaluate(q, answer).Points == q.Points
			row.Correct = &correct
		}
		breakdown.Questions = append(breakdown.Questions, row)
	}
	return breakdown, nil
}

func (s *gradingService) GradeQuestion(teacherID, attemptID, questionID uint, req dto.GradeQuestionRequest) (*dto.AnswerResponseDTO, error) {
	unlock := s.locks.Lock(fmt.Sprintf("attempt:%d", attemptID))
	defer unlock()

	attempt, exam, err := s.loadOwnedAttempt(teacherID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusSubmitted {
		return nil, apperr.InvalidState("attempt %d is not awaiting grading", attemptID)
	}

	var question *model.Question
	for i := range exam.Questions {
		if exam.Questions[i].ID == questionID {
			question = &exam.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, apperr.NotFound("question %d not found on exam %d", questionID, exam.ID)
	}
	if question.Type != model.QuestionTypeOpenEnded {
		return nil, apperr.Validation("question %d is auto-graded and cannot be graded manually", questionID)
	}
	if req.PointsAwarded == nil {
		return nil, apperr.Validation("points_awarded is required")
	}
	if *req.PointsAwarded < 0 || *req.PointsAwarded > question.Points {
		return nil, apperr.Validation("points_awarded must be within [0, %d]", question.Points)
	}

	// Repeated grades overwrite; a record is created even when the student
	// never answered, so an explicit 0 can be awarded.
	answer, err := s.answerRepo.FindByAttemptAndQuestion(attemptID, questionID)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		answer = &model.Answer{AttemptID: attemptID, QuestionID: questionID}
	}
	answer.PointsAwarded = req.PointsAwarded
	answer.Feedback = req.Feedback
	if err := s.answerRepo.Update(answer); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Uint("questionID", questionID).Msg("GradeQuestion: failed to persist grade")
		return nil, err
	}

	// Recompute under the same lock so the score reflects a consistent
	// snapshot of all answers.
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, err
	}
	score := s.aggregator.Aggregate(exam.Questions, answers)
	attempt.Score = &score
	if err := s.attemptRepo.Update(attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("GradeQuestion: failed to persist recomputed score")
		return nil, err
	}
	log.Info().Uint("attemptID", attemptID).Uint("questionID", questionID).Int("points", *req.PointsAwarded).Int("score", score).Msg("Question graded")

	return &dto.AnswerResponseDTO{
		AttemptID:     answer.AttemptID,
		QuestionID:    answer.QuestionID,
		TextAnswer:    answer.TextAnswer,
		PointsAwarded: answer.PointsAwarded,
		Feedback:      answer.Feedback,
	}, nil
}

func (s *gradingService) Finalize(teacherID, attemptID uint) (*dto.AttemptSummaryDTO, error) {
	unlock := s.locks.Lock(fmt.Sprintf("attempt:%d", attemptID))
	defer unlock()

	// Re-read under the lock: allGraded is checked at the moment of
	// transition, never from a stale read.
	attempt, exam, err := s.loadOwnedAttempt(teacherID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusSubmitted {
		return nil, apperr.InvalidState("attempt %d is not awaiting finalization", attemptID)
	}
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, err
	}
	if !s.aggregator.AllGraded(exam.Questions, answers) {
		return nil, apperr.InvalidState("open-ended questions remain ungraded")
	}

	score := s.aggregator.Aggregate(exam.Questions, answers)
	now := s.now()
	attempt.Score = &score
	attempt.Status = model.AttemptStatusGraded
	attempt.GradedAt = &now
	if err := s.attemptRepo.Update(attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Finalize: failed to persist transition")
		return nil, err
	}
	log.Info().Uint("attemptID", attemptID).Int("score", score).Msg("Attempt grading finalized")

	return teacherAttemptSummary(attempt), nil
}

func (s *gradingService) ListAttemptsForExam(teacherID, examID uint) ([]dto.AttemptSummaryDTO, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", examID)
	}
	if exam.TeacherID != teacherID {
		return nil, apperr.Forbidden("caller does not own exam %d", examID)
	}
	attempts, err := s.attemptRepo.FindAllByExam(examID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		summaries = append(summaries, *teacherAttemptSummary(&attempts[i]))
	}
	return summaries, nil
}

// teacherAttemptSummary skips the visibility policy; teachers always see the
// current score.
func teacherAttemptSummary(attempt *model.Attempt) *dto.AttemptSummaryDTO {
	return &dto.AttemptSummaryDTO{
		ID:        attempt.ID,
		ExamID:    attempt.ExamID,
		StudentID: attempt.StudentID,
		Status:    string(attempt.Status),
		StartTime: attempt.StartTime,
		EndTime:   attempt.EndTime,
		Score:     attempt.Score,
		GradedAt:  attempt.GradedAt,
	}
}
