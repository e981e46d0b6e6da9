package teacher

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/controller"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/middleware"
	"github.com/openclass/examcore/internal/model"
	"github.com/openclass/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type TeacherGradingController struct {
	gradingService service.GradingService
	assistService  service.GradingAssistService
	examService    service.ExamService
}

func NewTeacherGradingController(
	gradingService service.GradingService,
	assistService service.GradingAssistService,
	examService service.ExamService,
) *TeacherGradingController {
	return &TeacherGradingController{
		gradingService: gradingService,
		assistService:  assistService,
		examService:    examService,
	}
}

// ListAttempts godoc
// @Summary (Teacher) List attempts on an owned exam
// @Tags Teacher - Grading
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/exams/{exam_id}/attempts [get]
func (c *TeacherGradingController) ListAttempts(ctx *gin.Context) {
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	attempts, err := c.gradingService.ListAttemptsForExam(principal.UserID, examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GetForGrading godoc
// @Summary (Teacher) Get the per-question grading breakdown for an attempt
// @Description Auto-graded rows are informational; open-ended rows carry the current manual grade and the all_graded flag drives finalization.
// @Tags Teacher - Grading
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.GradingBreakdownDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/attempts/{attempt_id}/grading [get]
func (c *TeacherGradingController) GetForGrading(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	breakdown, err := c.gradingService.GetForGrading(principal.UserID, attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, breakdown)
}

// GradeQuestion godoc
// @Summary (Teacher) Grade an open-ended question
// @Description Bounded to [0, question points]; repeated calls overwrite the prior grade and recompute the attempt score.
// @Tags Teacher - Grading
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param question_id path int true "Question ID"
// @Param grade body dto.GradeQuestionRequest true "Points and optional feedback"
// @Success 200 {object} dto.AnswerResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/attempts/{attempt_id}/grading/{question_id} [put]
func (c *TeacherGradingController) GradeQuestion(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := controller.ParseUintParam(ctx, "question_id")
	if !ok {
		return
	}
	var req dto.GradeQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("GradeQuestion: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	answer, err := c.gradingService.GradeQuestion(principal.UserID, attemptID, questionID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, answer)
}

// SuggestGrade godoc
// @Summary (Teacher) Get a non-binding AI grade suggestion for an open-ended answer
// @Tags Teacher - Grading
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.GradeSuggestionDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/attempts/{attempt_id}/grading/{question_id}/suggestion [post]
func (c *TeacherGradingController) SuggestGrade(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := controller.ParseUintParam(ctx, "question_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	breakdown, err := c.gradingService.GetForGrading(principal.UserID, attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}

	var row *dto.GradingQuestionDTO
	for i := range breakdown.Questions {
		if breakdown.Questions[i].QuestionID == questionID {
			row = &breakdown.Questions[i]
			break
		}
	}
	if row == nil || row.AutoGraded {
		controller.RespondError(ctx, apperr.Validation("question %d is not open-ended", questionID))
		return
	}

	answerText := ""
	if row.TextAnswer != nil {
		answerText = *row.TextAnswer
	}
	question := &model.Question{ID: row.QuestionID, Prompt: row.Prompt, Points: row.Points, Type: model.QuestionTypeOpenEnded}
	points, feedback, err := c.assistService.SuggestGrade(ctx.Request.Context(), question, answerText)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.GradeSuggestionDTO{QuestionID: questionID, SuggestedPoints: points, Feedback: feedback})
}

// FinalizeGrading godoc
// @Summary (Teacher) Finalize grading for an attempt
// @Description Succeeds only when every open-ended question carries a grade; transitions the attempt to GRADED.
// @Tags Teacher - Grading
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /teacher/attempts/{attempt_id}/finalize [post]
func (c *TeacherGradingController) FinalizeGrading(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(ctx)
	attempt, err := c.gradingService.Finalize(principal.UserID, attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}
