package quizzes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
)

type handler struct {
	quizService *Service
}

func (h *handler) retrieveByLesson(c echo.Context) error {
	ctx := c.Request().Context()

	lessonID, err := strconv.Atoi(c.Param("lessonId"))
	if err != nil {
		return errcodes.NotFound("Lesson")
	}

	quiz, err := h.quizService.RetrieveQuizByLesson(ctx, lessonID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, quiz))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	lessonID, err := strconv.Atoi(c.Param("lessonId"))
	if err != nil {
		return errcodes.NotFound("Lesson")
	}

	params := CreateQuizPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	quiz := &models.Quiz{
		LessonID: lessonID,
		Title:    params.Title,
	}
	if params.PassPercent != nil {
		quiz.PassPercent = *params.PassPercent
	}

	err = h.quizService.CreateQuiz(ctx, quiz)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, quiz))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Quiz")
	}

	params := UpdateQuizPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	quiz, err := h.quizService.RetrieveQuiz(ctx, id)
	if err != nil {
		return err
	}

	columns := []string{}
	if params.Title != nil && *params.Title != quiz.Title {
		quiz.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.PassPercent != nil && *params.PassPercent != quiz.PassPercent {
		quiz.PassPercent = *params.PassPercent
		columns = append(columns, "pass_percent")
	}

	err = h.quizService.UpdateQuiz(ctx, quiz, columns)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, quiz))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Quiz")
	}

	err = h.quizService.DeleteQuiz(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Quiz deleted successfully"}))
}

func (h *handler) quizID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("quizId"))
	if err != nil {
		return 0, errcodes.NotFound("Quiz")
	}
	return id, nil
}

func (h *handler) createQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	quizID, err := h.quizID(c)
	if err != nil {
		return err
	}

	params := CreateQuestionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	question := &models.Question{
		QuizID:        quizID,
		Prompt:        params.Prompt,
		OptionsParsed: params.Options,
		CorrectIndex:  params.CorrectIndex,
	}
	err = h.quizService.CreateQuestion(ctx, question)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, question))
}

func (h *handler) updateQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	quizID, err := h.quizID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Question")
	}

	params := UpdateQuestionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	question, err := h.quizService.RetrieveQuestion(ctx, quizID, id)
	if err != nil {
		return err
	}

	columns := []string{}
	if params.Prompt != nil && *params.Prompt != question.Prompt {
		question.Prompt = *params.Prompt
		columns = append(columns, "prompt")
	}
	if params.Options != nil {
		question.OptionsParsed = params.Options
		columns = append(columns, "options")
	}
	if params.CorrectIndex != nil {
		question.CorrectIndex = *params.CorrectIndex
		columns = append(columns, "correct_index")
		// Revalidate against whichever options apply.
		if params.Options == nil {
			columns = append(columns, "options")
		}
	}

	err = h.quizService.UpdateQuestion(ctx, question, columns)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, question))
}

func (h *handler) deleteQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	quizID, err := h.quizID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Question")
	}

	err = h.quizService.DeleteQuestion(ctx, quizID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Question deleted successfully"}))
}

// reorderQuestions applies a full permutation of the quiz's questions.
func (h *handler) reorderQuestions(c echo.Context) error {
	ctx := c.Request().Context()

	quizID, err := h.quizID(c)
	if err != nil {
		return err
	}

	params := ReorderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.quizService.ReorderQuestions(ctx, ReorderQuestionsOptions{
		QuizID:    quizID,
		Positions: params.Items,
	})
	if err != nil {
		return err
	}

	quiz, err := h.quizService.RetrieveQuiz(ctx, quizID)
	if err != nil {
		return err
	}

	resp := struct {
		Questions []*models.Question `json:"questions"`
	}{quiz.Questions}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// moveQuestion places one question at a specific 1-based position.
func (h *handler) moveQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	quizID, err := h.quizID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Question")
	}

	params := MovePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.quizService.MoveQuestionToPosition(ctx, quizID, id, params.Position)
	if err != nil {
		return err
	}

	quiz, err := h.quizService.RetrieveQuiz(ctx, quizID)
	if err != nil {
		return err
	}

	resp := struct {
		Questions []*models.Question `json:"questions"`
	}{quiz.Questions}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) submitAttempt(c echo.Context) error {
	ctx := c.Request().Context()

	quizID, err := h.quizID(c)
	if err != nil {
		return err
	}

	params := SubmitAttemptPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	attempt, err := h.quizService.SubmitAttempt(ctx, SubmitAttemptOptions{
		QuizID:  quizID,
		UserID:  userID,
		Answers: params.Answers,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, attempt))
}

func (h *handler) listAttempts(c echo.Context) error {
	ctx := c.Request().Context()

	quizID, err := h.quizID(c)
	if err != nil {
		return err
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	attempts, err := h.quizService.ListAttempts(ctx, quizID, userID)
	if err != nil {
		return err
	}

	resp := struct {
		Attempts []*models.QuizAttempt `json:"attempts"`
	}{attempts}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
