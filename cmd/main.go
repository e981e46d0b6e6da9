package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/openclass/examcore/config"
	"github.com/openclass/examcore/database"
	_ "github.com/openclass/examcore/docs" // Swagger docs
	"github.com/openclass/examcore/internal/controller/student"
	"github.com/openclass/examcore/internal/controller/teacher"
	"github.com/openclass/examcore/internal/logger"
	"github.com/openclass/examcore/internal/middleware"
	"github.com/openclass/examcore/internal/model"
	"github.com/openclass/examcore/internal/repository"
	"github.com/openclass/examcore/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Exam Core API
// @version 1.0
// @description Exam attempt lifecycle and grading engine: students start, answer and submit timed attempts; teachers grade open-ended answers and finalize results.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewExamRepository,
			repository.NewQuestionRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewEnrollmentRepository,
		),

		// Services
		fx.Provide(
			service.NewKeyedMutex,
			service.NewAnswerEvaluator,
			service.NewScoreAggregator,
			service.NewVisibilityGate,
			service.NewExamService,
			service.NewAttemptService,
			service.NewGradingService,
			service.NewGradingAssistService,
		),

		// Controllers
		fx.Provide(
			student.NewStudentController,
			teacher.NewTeacherExamController,
			teacher.NewTeacherGradingController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	studentCtrl *student.StudentController,
	teacherExamCtrl *teacher.TeacherExamController,
	teacherGradingCtrl *teacher.TeacherGradingController,
) {
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg))

	// Student routes. The submit route also admits the system principal that
	// drives deadline auto-submission.
	studentGroup := api.Group("")
	studentGroup.Use(middleware.RequireRole(middleware.RoleStudent, middleware.RoleSystem))
	{
		studentGroup.GET("/exams", studentCtrl.GetExams)
		studentGroup.GET("/exams/:exam_id", studentCtrl.GetExam)
		studentGroup.POST("/exams/:exam_id/attempts", studentCtrl.StartAttempt)
		studentGroup.GET("/exams/:exam_id/my-attempts", studentCtrl.GetMyAttempts)
		studentGroup.GET("/attempts/:attempt_id", studentCtrl.GetAttempt)
		studentGroup.PUT("/attempts/:attempt_id/answers/:question_id", studentCtrl.SaveAnswer)
		studentGroup.POST("/attempts/:attempt_id/submit", studentCtrl.SubmitAttempt)
	}

	teacherGroup := api.Group("/teacher")
	teacherGroup.Use(middleware.RequireRole(middleware.RoleTeacher))
	{
		teacherGroup.POST("/exams", teacherExamCtrl.CreateExam)
		teacherGroup.GET("/exams", teacherExamCtrl.ListExams)
		teacherGroup.GET("/exams/:exam_id", teacherExamCtrl.GetExam)
		teacherGroup.DELETE("/exams/:exam_id", teacherExamCtrl.DeleteExam)
		teacherGroup.POST("/exams/:exam_id/questions", teacherExamCtrl.AddQuestion)
		teacherGroup.DELETE("/exams/:exam_id/questions/:question_id", teacherExamCtrl.RemoveQuestion)
		teacherGroup.POST("/exams/:exam_id/publish", teacherExamCtrl.PublishExam)
		teacherGroup.POST("/exams/:exam_id/archive", teacherExamCtrl.ArchiveExam)
		teacherGroup.GET("/exams/:exam_id/attempts", teacherGradingCtrl.ListAttempts)

		teacherGroup.GET("/attempts/:attempt_id/grading", teacherGradingCtrl.GetForGrading)
		teacherGroup.PUT("/attempts/:attempt_id/grading/:question_id", teacherGradingCtrl.GradeQuestion)
		teacherGroup.POST("/attempts/:attempt_id/grading/:question_id/suggestion", teacherGradingCtrl.SuggestGrade)
		teacherGroup.POST("/attempts/:attempt_id/finalize", teacherGradingCtrl.FinalizeGrading)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Exam Core API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Exam{},
		&model.Question{},
		&model.Option{},
		&model.Attempt{},
		&model.Answer{},
		&model.Enrollment{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
