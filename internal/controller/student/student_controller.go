package student

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openclass/examcore/internal/controller"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/middleware"
	"github.com/openclass/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type StudentController struct {
	examService    service.ExamService
	attemptService service.AttemptService
}

func NewStudentController(examService service.ExamService, attemptService service.AttemptService) *StudentController {
	return &StudentController{examService: examService, attemptService: attemptService}
}

// GetExams godoc
// @Summary (Student) List published exams
// @Tags Student
// @Produce json
// @Success 200 {array} dto.ExamSummaryDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /exams [get]
func (c *StudentController) GetExams(ctx *gin.Context) {
	exams, err := c.examService.ListPublished()
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary (Student) Get a published exam without correctness data
// @Tags Student
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.StudentExamDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /exams/{exam_id} [get]
func (c *StudentController) GetExam(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	exam, err := c.examService.GetStudentExam(examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// StartAttempt godoc
// @Summary (Student) Start an attempt on a published exam
// @Description Fails when the exam is unpublished, the student is not enrolled, the window is closed, the attempt limit is reached, or an attempt is already in progress.
// @Tags Student
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 201 {object} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /exams/{exam_id}/attempts [post]
func (c *StudentController) StartAttempt(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	attempt, err := c.attemptService.Start(principal.UserID, examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, attempt)
}

// GetMyAttempts godoc
// @Summary (Student) List the caller's attempts for an exam
// @Tags Student
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /exams/{exam_id}/my-attempts [get]
func (c *StudentController) GetMyAttempts(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	attempts, err := c.attemptService.ListMyAttempts(principal.UserID, examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GetAttempt godoc
// @Summary (Student) Get an attempt with its per-question view
// @Description Result fields are filtered by the exam's visibility policy and the attempt status.
// @Tags Student
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptViewDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id} [get]
func (c *StudentController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	view, err := c.attemptService.GetAttempt(principal.UserID, attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// SaveAnswer godoc
// @Summary (Student) Save or replace the answer for one question
// @Description Upsert with last-write-wins semantics; only valid while the attempt is in progress and before its deadline.
// @Tags Student
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param question_id path int true "Question ID"
// @Param payload body dto.SaveAnswerRequest true "Answer payload matching the question type"
// @Success 200 {object} dto.AnswerResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/answers/{question_id} [put]
func (c *StudentController) SaveAnswer(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := controller.ParseUintParam(ctx, "question_id")
	if !ok {
		return
	}
	var req dto.SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SaveAnswer: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	answer, err := c.attemptService.SaveAnswer(principal.UserID, attemptID, questionID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, answer)
}

// SubmitAttempt godoc
// @Summary (Student) Submit an attempt for scoring
// @Description Exactly-once transition to SUBMITTED. The system role may submit on a student's behalf when the duration elapses.
// @Tags Student
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.SubmitResultDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/submit [post]
func (c *StudentController) SubmitAttempt(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	result, err := c.attemptService.Submit(principal.UserID, principal.Role == middleware.RoleSystem, attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
