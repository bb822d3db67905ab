package pipeline

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ppiankov/docquiz/internal/model"
)

var (
	// ErrConfiguration marks a run that cannot proceed because the
	// generation service is misconfigured (missing key, unknown provider)
	ErrConfiguration = errors.New("configuration error")

	// ErrInput marks a run rejected because of its request or document
	ErrInput = errors.New("invalid input")
)

// ErrorKind classifies a failed run for callers
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindInput         ErrorKind = "input"
	KindTransient     ErrorKind = "transient"
)

// Mode records which path produced a result
type Mode string

const (
	ModeAI       Mode = "ai"
	ModeFallback Mode = "fallback"
)

// Request identifies the document to generate questions for
type Request struct {
	DocumentID   string `json:"documentId"`
	DocumentType string `json:"documentType"`

	// Offline skips the generation service and uses the rule-based path
	Offline bool `json:"offline,omitempty"`
}

// Result is the outcome of one generation run. Questions is never nil.
type Result struct {
	OK            bool                    `json:"ok"`
	RunID         uuid.UUID               `json:"runId"`
	DocumentID    string                  `json:"documentId,omitempty"`
	DocumentType  model.DocumentType      `json:"documentType,omitempty"`
	Title         string                  `json:"title,omitempty"`
	Questions     []model.QuizQuestion    `json:"questions"`
	Analysis      *model.DocumentAnalysis `json:"analysis,omitempty"`
	Mode          Mode                    `json:"mode,omitempty"`
	RepairedCount int                     `json:"repairedCount"`
	Error         string                  `json:"error,omitempty"`
	ErrorKind     ErrorKind               `json:"errorKind,omitempty"`
}

// AnalysisResult is the outcome of an analyze-only run
type AnalysisResult struct {
	OK           bool                    `json:"ok"`
	RunID        uuid.UUID               `json:"runId"`
	DocumentID   string                  `json:"documentId,omitempty"`
	DocumentType model.DocumentType      `json:"documentType,omitempty"`
	Title        string                  `json:"title,omitempty"`
	Analysis     *model.DocumentAnalysis `json:"analysis,omitempty"`
	Mode         Mode                    `json:"mode,omitempty"`
	Error        string                  `json:"error,omitempty"`
	ErrorKind    ErrorKind               `json:"errorKind,omitempty"`
}

// Classify maps a run error to its kind
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrInput), errors.Is(err, model.ErrDocumentNotFound):
		return KindInput
	default:
		return KindTransient
	}
}

// FailedResult builds the ok=false result for err
func FailedResult(runID uuid.UUID, err error) Result {
	return Result{
		RunID:     runID,
		Questions: []model.QuizQuestion{},
		Error:     err.Error(),
		ErrorKind: Classify(err),
	}
}
