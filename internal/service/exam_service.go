package service

import (
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/model"
	"github.com/openclass/examcore/internal/repository"
	"github.com/rs/zerolog/log"
)

// ExamService covers the teacher authoring lifecycle (DRAFT → PUBLISHED →
// ARCHIVED) plus the student-facing catalog reads. Question sets are mutable
// only pre-publish; option ids are minted once at creation.
type ExamService interface {
	CreateExam(teacherID uint, req dto.CreateExamRequest) (*dto.ExamResponseDTO, error)
	GetTeacherExam(teacherID, examID uint) (*dto.ExamResponseDTO, error)
	ListByTeacher(teacherID uint) ([]dto.ExamSummaryDTO, error)
	AddQuestion(teacherID, examID uint, req dto.CreateQuestionRequest) (*dto.QuestionResponseDTO, error)
	RemoveQuestion(teacherID, examID, questionID uint) error
	Publish(teacherID, examID uint) (*dto.ExamResponseDTO, error)
	Archive(teacherID, examID uint) (*dto.ExamResponseDTO, error)
	DeleteExam(teacherID, examID uint) error

	ListPublished() ([]dto.ExamSummaryDTO, error)
	GetStudentExam(examID uint) (*dto.StudentExamDTO, error)
}

type examService struct {
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	gate         VisibilityGate
}

func NewExamService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	gate VisibilityGate,
) ExamService {
	return &examService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		gate:         gate,
	}
}

func (s *examService) CreateExam(teacherID uint, req dto.CreateExamRequest) (*dto.ExamResponseDTO, error) {
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		TeacherID:       teacherID,
		SessionID:       req.SessionID,
		Status:          model.ExamStatusDraft,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		MaxAttempts:     req.MaxAttempts,
		Visibility: model.VisibilityPolicy{
			ShowScore:          req.Visibility.ShowScore,
			ShowAnswers:        req.Visibility.ShowAnswers,
			ShowCorrectAnswers: req.Visibility.ShowCorrectAnswers,
			ShowFeedback:       req.Visibility.ShowFeedback,
		},
	}
	for i, qReq := range req.Questions {
		question, err := buildQuestion(qReq)
		if err != nil {
			return nil, err
		}
		if question.Position == 0 {
			question.Position = i + 1
		}
		exam.Questions = append(exam.Questions, *question)
	}

	if err := s.examRepo.Create(exam); err != nil {
		log.Error().Err(err).Uint("teacherID", teacherID).Msg("CreateExam: failed to persist exam")
		return nil, err
	}
	log.Info().Uint("examID", exam.ID).Uint("teacherID", teacherID).Int("questions", len(exam.Questions)).Msg("Exam created")
	return examResponse(exam), nil
}

func (s *examService) GetTeacherExam(teacherID, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadOwnedExam(teacherID, examID)
	if err != nil {
		return nil, err
	}
	return examResponse(exam), nil
}

func (s *examService) ListByTeacher(teacherID uint) ([]dto.ExamSummaryDTO, error) {
	exams, err := s.examRepo.FindAllByTeacher(teacherID)
	if err != nil {
		return nil, err
	}
	return examSummaries(exams), nil
}

func (s *examService) AddQuestion(teacherID, examID uint, req dto.CreateQuestionRequest) (*dto.QuestionResponseDTO, error) {
	exam, err := s.loadOwnedExam(teacherID, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, apperr.InvalidState("questions are immutable once exam %d is published", examID)
	}
	question, err := buildQuestion(req)
	if err != nil {
		return nil, err
	}
	question.ExamID = examID
	if question.Position == 0 {
		question.Position = len(exam.Questions) + 1
	}
	if err := s.questionRepo.Create(question); err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("AddQuestion: failed to persist question")
		return nil, err
	}
	return questionResponse(question), nil
}

func (s *examService) RemoveQuestion(teacherID, examID, questionID uint) error {
	exam, err := s.loadOwnedExam(teacherID, examID)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return apperr.InvalidState("questions are immutable once exam %d is published", examID)
	}
	question, err := s.questionRepo.FindByID(questionID)
	if err != nil || question.ExamID != examID {
		return apperr.NotFound("question %d not found on exam %d", questionID, examID)
	}
	return s.questionRepo.Delete(questionID)
}

func (s *examService) Publish(teacherID, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadOwnedExam(teacherID, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, apperr.InvalidState("exam %d is not a draft", examID)
	}
	if len(exam.Questions) == 0 {
		return nil, apperr.Validation("an exam needs at least one question before publishing")
	}
	if !exam.EndTime.After(exam.StartTime) {
		return nil, apperr.Validation("exam window must end after it starts")
	}
	exam.Status = model.ExamStatusPublished
	if err := s.examRepo.Update(exam); err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("Publish: failed to persist status")
		return nil, err
	}
	log.Info().Uint("examID", examID).Msg("Exam published")
	return examResponse(exam), nil
}

func (s *examService) Archive(teacherID, examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.loadOwnedExam(teacherID, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, apperr.InvalidState("only published exams can be archived")
	}
	exam.Status = model.ExamStatusArchived
	if err := s.examRepo.Update(exam); err != nil {
		return nil, err
	}
	log.Info().Uint("examID", examID).Msg("Exam archived")
	return examResponse(exam), nil
}

func (s *examService) DeleteExam(teacherID, examID uint) error {
	exam, err := s.loadOwnedExam(teacherID, examID)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return apperr.InvalidState("only draft exams can be deleted")
	}
	attempts, err := s.attemptRepo.CountByExam(examID)
	if err != nil {
		return err
	}
	if attempts > 0 {
		return apperr.Conflict("exam %d has recorded attempts", examID)
	}
	return s.examRepo.Delete(examID)
}

func (s *examService) ListPublished() ([]dto.ExamSummaryDTO, error) {
	exams, err := s.examRepo.FindAllByStatus(model.ExamStatusPublished)
	if err != nil {
		return nil, err
	}
	return examSummaries(exams), nil
}

func (s *examService) GetStudentExam(examID uint) (*dto.StudentExamDTO, error) {
	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", examID)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, apperr.NotFound("exam %d not found", examID)
	}
	return s.gate.ExamView(exam), nil
}

func (s *examService) loadOwnedExam(teacherID, examID uint) (*model.Exam, error) {
	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		return nil, apperr.NotFound("exam %d not found", examID)
	}
	if exam.TeacherID != teacherID {
		return nil, apperr.Forbidden("caller does not own exam %d", examID)
	}
	return exam, nil
}

// buildQuestion validates per-type authoring rules and mints stable option ids.
func buildQuestion(req dto.CreateQuestionRequest) (*model.Question, error) {
	question := &model.Question{
		Type:          model.QuestionType(req.Type),
		Prompt:        req.Prompt,
		Points:        req.Points,
		Position:      req.Position,
		AllowMultiple: req.AllowMultiple,
		CorrectAnswer: req.CorrectAnswer,
	}

	switch question.Type {
	case model.QuestionTypeMCQ:
		if len(req.Options) < 2 {
			return nil, apperr.Validation("an MCQ question needs at least two options")
		}
		correct := 0
		for i, oReq := range req.Options {
			question.Options = append(question.Options, model.Option{
				ID:        uuid.NewString(),
				Text:      oReq.Text,
				IsCorrect: oReq.IsCorrect,
				Position:  i + 1,
			})
			if oReq.IsCorrect {
				correct++
			}
		}
		if !req.AllowMultiple && correct != 1 {
			return nil, apperr.Validation("a single-select MCQ question needs exactly one correct option")
		}
		if req.AllowMultiple && correct == 0 {
			return nil, apperr.Validation("a multi-select MCQ question needs at least one correct option")
		}
		question.CorrectAnswer = nil
	case model.QuestionTypeTrueFalse:
		if req.CorrectAnswer == nil {
			return nil, apperr.Validation("a TRUE_FALSE question needs a correct_answer")
		}
	case model.QuestionTypeOpenEnded:
		if len(req.Options) > 0 || req.CorrectAnswer != nil {
			return nil, apperr.Validation("an OPEN_ENDED question carries no correctness data")
		}
	default:
		return nil, apperr.Validation("unsupported question type %s", req.Type)
	}
	return question, nil
}

func examResponse(exam *model.Exam) *dto.ExamResponseDTO {
	resp := &dto.ExamResponseDTO{
		ID:              exam.ID,
		Title:           exam.Title,
		Description:     exam.Description,
		TeacherID:       exam.TeacherID,
		SessionID:       exam.SessionID,
		Status:          string(exam.Status),
		StartTime:       exam.StartTime,
		EndTime:         exam.EndTime,
		DurationMinutes: exam.DurationMinutes,
		MaxAttempts:     exam.MaxAttempts,
		TotalPoints:     exam.TotalPoints(),
		CreatedAt:       exam.CreatedAt,
		Visibility: dto.VisibilityPolicyRequest{
			ShowScore:          exam.Visibility.ShowScore,
			ShowAnswers:        exam.Visibility.ShowAnswers,
			ShowCorrectAnswers: exam.Visibility.ShowCorrectAnswers,
			ShowFeedback:       exam.Visibility.ShowFeedback,
		},
	}
	for i := range exam.Questions {
		resp.Questions = append(resp.Questions, *questionResponse(&exam.Questions[i]))
	}
	return resp
}

func questionResponse(question *model.Question) *dto.QuestionResponseDTO {
	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, question); err != nil {
		log.Warn().Err(err).Uint("questionID", question.ID).Msg("questionResponse: copy failed")
	}
	resp.Type = string(question.Type)
	return &resp
}

func examSummaries(exams []model.Exam) []dto.ExamSummaryDTO {
	summaries := make([]dto.ExamSummaryDTO, 0, len(exams))
	for _, e := range exams {
		summaries = append(summaries, dto.ExamSummaryDTO{
			ID:              e.ID,
			Title:           e.Title,
			Description:     e.Description,
			Status:          string(e.Status),
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			DurationMinutes: e.DurationMinutes,
			MaxAttempts:     e.MaxAttempts,
		})
	}
	return summaries
}
