package service

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/model"
	"github.com/openclass/examcore/internal/repository"
	"github.com/rs/zerolog/log"
)

// AttemptService drives the attempt lifecycle: IN_PROGRESS → SUBMITTED, with
// answer upserts in between. Both forward transitions are guarded and fail
// closed; submit is exactly-once no matter who invokes it (student or the
// caller-driven timeout).
type AttemptService interface {
	Start(studentID, examID uint) (*dto.AttemptSummaryDTO, error)
	GetAttempt(studentID, attemptID uint) (*dto.AttemptViewDTO, error)
	ListMyAttempts(studentID, examID uint) ([]dto.AttemptSummaryDTO, error)
	SaveAnswer(studentID, attemptID, questionID uint, req dto.SaveAnswerRequest) (*dto.AnswerResponseDTO, error)
	// Submit finalizes the provisional score. bySystem skips the ownership
	// check for the timeout trigger.
	Submit(studentID uint, bySystem bool, attemptID uint) (*dto.SubmitResultDTO, error)
}

type attemptService struct {
	examRepo       repository.ExamRepository
	questionRepo   repository.QuestionRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	enrollmentRepo repository.EnrollmentRepository
	evaluator      AnswerEvaluator
	aggregator     ScoreAggregator
	gate           VisibilityGate
	locks          *KeyedMutex
	now            func() time.Time
}

func NewAttemptService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	enrollmentRepo repository.EnrollmentRepository,
	evaluator AnswerEvaluator,
	aggregator ScoreAggregator,
	gate VisibilityGate,
	locks *KeyedMutex,
) AttemptService {
	return &attemptService{
		examRepo:       examRepo,
		questionRepo:   questionRepo,
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		enrollmentRepo: enrollmentRepo,
		evaluator:      evaluator,
		aggregator:     aggregator,
		gate:           gate,
		locks:          locks,
		now:            time.Now,
	}
}

// Start runs the ordered precondition chain and creates the attempt. The whole
// check-then-create sequence holds the per-(student, exam) lock so two
// concurrent calls cannot both pass the count and single-active checks.
func (s *attemptService) Start(studentID, examID uint) (*dto.AttemptSummaryDTO, error) {
	unlock := s.locks.Lock(fmt.Sprintf("start:%d:%d", studentID, examID))
	defer unlock()

	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", examID)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, apperr.InvalidState("exam %d is not published", examID)
	}
	enrolled, err := s.enrollmentRepo.IsEnrolled(exam.SessionID, studentID)
	if err != nil {
		log.Error().Err(err).Uint("studentID", studentID).Uint("examID", examID).Msg("Start: enrollment lookup failed")
		return nil, err
	}
	if !enrolled {
		return nil, apperr.Forbidden("student %d is not enrolled in the exam's session", studentID)
	}
	now := s.now()
	if !exam.WindowContains(now) {
		return nil, apperr.InvalidState("current time is outside the exam window")
	}
	count, err := s.attemptRepo.CountByStudentAndExam(studentID, examID)
	if err != nil {
		return nil, err
	}
	if count >= int64(exam.MaxAttempts) {
		return nil, apperr.Conflict("maximum attempts reached")
	}
	active, err := s.attemptRepo.FindActiveByStudentAndExam(studentID, examID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.Conflict("an attempt is already in progress")
	}

	attempt := &model.Attempt{
		ExamID:    examID,
		StudentID: studentID,
		Status:    model.AttemptStatusInProgress,
		StartTime: now,
	}
	if err := s.attemptRepo.Create(attempt); err != nil {
		log.Error().Err(err).Uint("studentID", studentID).Uint("examID", examID).Msg("Start: failed to create attempt")
		return nil, err
	}
	log.Info().Uint("attemptID", attempt.ID).Uint("studentID", studentID).Uint("examID", examID).Msg("Attempt started")
	return attemptSummary(attempt, exam), nil
}

func (s *attemptService) GetAttempt(studentID, attemptID uint) (*dto.AttemptViewDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, apperr.NotFound("attempt %d not found", attemptID)
	}
	if attempt.StudentID != studentID {
		return nil, apperr.Forbidden("attempt %d does not belong to the caller", attemptID)
	}
	exam, err := s.examRepo.FindByIDWithQuestions(attempt.ExamID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", attempt.ExamID)
	}
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, err
	}
	return s.gate.AttemptView(exam, attempt, answers), nil
}

func (s *attemptService) ListMyAttempts(studentID, examID uint) ([]dto.AttemptSummaryDTO, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", examID)
	}
	attempts, err := s.attemptRepo.FindAllByStudentAndExam(studentID, examID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		summaries = append(summaries, *attemptSummary(&attempts[i], exam))
	}
	return summaries, nil
}

func (s *attemptService) SaveAnswer(studentID, attemptID, questionID uint, req dto.SaveAnswerRequest) (*dto.AnswerResponseDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, apperr.NotFound("attempt %d not found", attemptID)
	}
	if attempt.StudentID != studentID {
		return nil, apperr.Forbidden("attempt %d does not belong to the caller", attemptID)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, apperr.InvalidState("attempt %d is not in progress", attemptID)
	}
	question, err := s.questionRepo.FindByID(questionID)
	if err != nil || question.ExamID != attempt.ExamID {
		return nil, apperr.NotFound("question %d not found on this exam", questionID)
	}
	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", attempt.ExamID)
	}
	if s.now().After(attempt.Deadline(exam.DurationMinutes)) {
		return nil, apperr.InvalidState("the attempt's duration has elapsed")
	}

	answer, err := buildAnswer(attempt.ID, question, req)
	if err != nil {
		return nil, err
	}
	// Last write wins per (attempt, question); concurrent saves for different
	// questions need no mutual exclusion.
	if err := s.answerRepo.Upsert(answer); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Uint("questionID", questionID).Msg("SaveAnswer: upsert failed")
		return nil, err
	}

	var resp dto.AnswerResponseDTO
	if err := copier.Copy(&resp, answer); err != nil {
		return nil, fmt.Errorf("error preparing answer response: %w", err)
	}
	return &resp, nil
}

func (s *attemptService) Submit(studentID uint, bySystem bool, attemptID uint) (*dto.SubmitResultDTO, error) {
	unlock := s.locks.Lock(fmt.Sprintf("attempt:%d", attemptID))
	defer unlock()

	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, apperr.NotFound("attempt %d not found", attemptID)
	}
	if !bySystem && attempt.StudentID != studentID {
		return nil, apperr.Forbidden("attempt %d does not belong to the caller", attemptID)
	}
	// One-way, exactly-once: the loser of a submit race fails here instead of
	// re-scoring.
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, apperr.InvalidState("attempt %d has already been submitted", attemptID)
	}

	exam, err := s.examRepo.FindByIDWithQuestions(attempt.ExamID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", attempt.ExamID)
	}
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, err
	}

	// Persist auto-grades on each recorded answer; missing answers simply
	// contribute 0 and get no record.
	for i := range exam.Questions {
		q := &exam.Questions[i]
		if q.Type == model.QuestionTypeOpenEnded {
			continue
		}
		for j := range answers {
			if answers[j].QuestionID != q.ID {
				continue
			}
			points := s.evaluator.Evaluate(q, &answers[j]).Points
			answers[j].PointsAwarded = &points
			if err := s.answerRepo.Update(&answers[j]); err != nil {
				log.Error().Err(err).Uint("answerID", answers[j].ID).Msg("Submit: failed to persist auto-grade")
				return nil, err
			}
			break
		}
	}

	score := s.aggregator.Aggregate(exam.Questions, answers)
	now := s.now()
	attempt.Status = model.AttemptStatusSubmitted
	attempt.EndTime = &now
	attempt.Score = &score
	if err := s.attemptRepo.Update(attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Submit: failed to persist transition")
		return nil, err
	}
	log.Info().Uint("attemptID", attemptID).Int("score", score).Bool("bySystem", bySystem).Msg("Attempt submitted")

	return &dto.SubmitResultDTO{
		AttemptID: attempt.ID,
		Status:    string(attempt.Status),
		Score:     score,
		MaxScore:  exam.TotalPoints(),
	}, nil
}

// buildAnswer validates the tagged-union payload against the question type and
// produces the canonical record.
func buildAnswer(attemptID uint, question *model.Question, req dto.SaveAnswerRequest) (*model.Answer, error) {
	answer := &model.Answer{AttemptID: attemptID, QuestionID: question.ID}

	switch question.Type {
	case model.QuestionTypeMCQ:
		valid := make(map[string]struct{}, len(question.Options))
		for _, o := range question.Options {
			valid[o.ID] = struct{}{}
		}
		if question.AllowMultiple {
			ids := req.SelectedOptionIDs
			if len(ids) == 0 && req.SelectedOptionID != nil {
				ids = []string{*req.SelectedOptionID}
			}
			if len(ids) == 0 {
				return nil, apperr.Validation("selected_options is required for this question")
			}
			for _, id := range ids {
				if _, ok := valid[id]; !ok {
					return nil, apperr.Validation("option %s does not belong to question %d", id, question.ID)
				}
			}
			answer.SelectedOptionIDs = ids
		} else {
			if req.SelectedOptionID == nil {
				return nil, apperr.Validation("selected_option is required for this question")
			}
			if _, ok := valid[*req.SelectedOptionID]; !ok {
				return nil, apperr.Validation("option %s does not belong to question %d", *req.SelectedOptionID, question.ID)
			}
			answer.SelectedOptionID = req.SelectedOptionID
		}
	case model.QuestionTypeTrueFalse:
		canonical, err := canonicalBool(req.BooleanAnswer)
		if err != nil {
			return nil, err
		}
		answer.BooleanAnswer = &canonical
	case model.QuestionTypeOpenEnded:
		if req.TextAnswer == nil {
			return nil, apperr.Validation("text_answer is required for this question")
		}
		answer.TextAnswer = req.TextAnswer
	default:
		return nil, apperr.Validation("question %d has unsupported type %s", question.ID, question.Type)
	}
	return answer, nil
}

// canonicalBool accepts JSON booleans and case-insensitive textual variants.
func canonicalBool(v any) (string, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case string:
		b, ok := ParseBool(t)
		if !ok {
			return "", apperr.Validation("boolean_answer must be a true/false value")
		}
		if b {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", apperr.Validation("boolean_answer is required for this question")
	default:
		return "", apperr.Validation("boolean_answer must be a boolean or true/false string")
	}
}

// attemptSummary applies the score-visibility rule shared by every
// student-facing summary.
func attemptSummary(attempt *model.Attempt, exam *model.Exam) *dto.AttemptSummaryDTO {
	summary := &dto.AttemptSummaryDTO{
		ID:        attempt.ID,
		ExamID:    attempt.ExamID,
		StudentID: attempt.StudentID,
		Status:    string(attempt.Status),
		StartTime: attempt.StartTime,
		EndTime:   attempt.EndTime,
		GradedAt:  attempt.GradedAt,
	}
	if exam.Visibility.ShowScore && attempt.Status != model.AttemptStatusInProgress {
		summary.Score = attempt.Score
	}
	return summary
}
