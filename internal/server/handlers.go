package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/pipeline"
)

// QuizService runs generation requests. *pipeline.Pipeline implements it.
type QuizService interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
	Analyze(ctx context.Context, req pipeline.Request) pipeline.AnalysisResult
}

// QuizHandler serves the generation endpoints
type QuizHandler struct {
	log *logging.Logger
	svc QuizService
}

func NewQuizHandler(log *logging.Logger, svc QuizService) *QuizHandler {
	return &QuizHandler{
		log: logging.OrNop(log).With("handler", "QuizHandler"),
		svc: svc,
	}
}

// POST /api/generate-quiz
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		res := pipeline.FailedResult(uuid.New(), fmt.Errorf("%w: malformed request body: %v", pipeline.ErrInput, err))
		c.JSON(http.StatusBadRequest, res)
		return
	}

	res := h.svc.Run(c.Request.Context(), req)
	c.JSON(statusFor(res.OK, res.ErrorKind), res)
}

// POST /api/analyze-document
func (h *QuizHandler) AnalyzeDocument(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pipeline.AnalysisResult{
			RunID:     uuid.New(),
			Error:     fmt.Sprintf("malformed request body: %v", err),
			ErrorKind: pipeline.KindInput,
		})
		return
	}

	res := h.svc.Analyze(c.Request.Context(), req)
	c.JSON(statusFor(res.OK, res.ErrorKind), res)
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func statusFor(ok bool, kind pipeline.ErrorKind) int {
	if ok {
		return http.StatusOK
	}
	switch kind {
	case pipeline.KindInput:
		return http.StatusBadRequest
	case pipeline.KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
