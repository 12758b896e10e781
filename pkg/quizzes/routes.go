package quizzes

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	quizService := NewService(db)

	h := &handler{
		quizService: quizService,
	}

	lessons := e.Group("/lessons/:lessonId/quiz")
	lessons.Use(authMiddleware.Authenticate)
	lessons.GET("", h.retrieveByLesson, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationRead))
	lessons.POST("", h.create, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))

	quizzes := e.Group("/quizzes")
	quizzes.Use(authMiddleware.Authenticate)

	quizzes.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))
	quizzes.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))

	quizzes.POST("/:quizId/questions", h.createQuestion, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))
	quizzes.POST("/:quizId/questions/:id", h.updateQuestion, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))
	quizzes.DELETE("/:quizId/questions/:id", h.deleteQuestion, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))
	quizzes.PUT("/:quizId/questions/reorder", h.reorderQuestions, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))
	quizzes.POST("/:quizId/questions/:id/move", h.moveQuestion, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationWrite))

	quizzes.POST("/:quizId/attempts", h.submitAttempt, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationRead))
	quizzes.GET("/:quizId/attempts", h.listAttempts, authMiddleware.RequirePermission(models.ResourceQuizzes, models.OperationRead))

	return quizService
}
