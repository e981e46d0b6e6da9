package teacher

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openclass/examcore/internal/controller"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/middleware"
	"github.com/openclass/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type TeacherExamController struct {
	examService service.ExamService
}

func NewTeacherExamController(examService service.ExamService) *TeacherExamController {
	return &TeacherExamController{examService: examService}
}

// CreateExam godoc
// @Summary (Teacher) Create a draft exam, optionally with questions
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param exam_data body dto.CreateExamRequest true "Exam definition"
// @Success 201 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /teacher/exams [post]
func (c *TeacherExamController) CreateExam(ctx *gin.Context) {
	var req dto.CreateExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateExam: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	exam, err := c.examService.CreateExam(principal.UserID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, exam)
}

// GetExam godoc
// @Summary (Teacher) Get an owned exam with questions and correctness data
// @Tags Teacher - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/exams/{exam_id} [get]
func (c *TeacherExamController) GetExam(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	exam, err := c.examService.GetTeacherExam(principal.UserID, examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// ListExams godoc
// @Summary (Teacher) List owned exams
// @Tags Teacher - Exams
// @Produce json
// @Success 200 {array} dto.ExamSummaryDTO
// @Router /teacher/exams [get]
func (c *TeacherExamController) ListExams(ctx *gin.Context) {
	principal := middleware.PrincipalFrom(ctx)
	exams, err := c.examService.ListByTeacher(principal.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// AddQuestion godoc
// @Summary (Teacher) Add a question to a draft exam
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param question_data body dto.CreateQuestionRequest true "Question definition"
// @Success 201 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/exams/{exam_id}/questions [post]
func (c *TeacherExamController) AddQuestion(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	var req dto.CreateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("AddQuestion: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	question, err := c.examService.AddQuestion(principal.UserID, examID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, question)
}

// RemoveQuestion godoc
// @Summary (Teacher) Remove a question from a draft exam
// @Tags Teacher - Exams
// @Param exam_id path int true "Exam ID"
// @Param question_id path int true "Question ID"
// @Success 204 "removed"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/exams/{exam_id}/questions/{question_id} [delete]
func (c *TeacherExamController) RemoveQuestion(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	questionID, ok := controller.ParseUintParam(ctx, "question_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	if err := c.examService.RemoveQuestion(principal.UserID, examID, questionID); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PublishExam godoc
// @Summary (Teacher) Publish a draft exam
// @Description After publishing, questions are immutable and students may start attempts inside the window.
// @Tags Teacher - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /teacher/exams/{exam_id}/publish [post]
func (c *TeacherExamController) PublishExam(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	exam, err := c.examService.Publish(principal.UserID, examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// ArchiveExam godoc
// @Summary (Teacher) Archive a published exam
// @Tags Teacher - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /teacher/exams/{exam_id}/archive [post]
func (c *TeacherExamController) ArchiveExam(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	exam, err := c.examService.Archive(principal.UserID, examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// DeleteExam godoc
// @Summary (Teacher) Delete a draft, attempt-free exam
// @Tags Teacher - Exams
// @Param exam_id path int true "Exam ID"
// @Success 204 "deleted"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /teacher/exams/{exam_id} [delete]
func (c *TeacherExamController) DeleteExam(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	if err := c.examService.DeleteExam(principal.UserID, examID); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
