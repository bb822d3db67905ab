package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentNotFound is returned by document sources when no document
// matches the requested id and type
var ErrDocumentNotFound = errors.New("document not found")

// DocumentType tags how a document's raw text was derived
type DocumentType string

const (
	DocumentPolicy DocumentType = "policy" // Internal policy: stored extracted text
	DocumentNews   DocumentType = "news"   // News article: title + summary
	DocumentManual DocumentType = "manual" // Manual entry: title + question
)

// DocumentTypes lists every supported document type
var DocumentTypes = []DocumentType{DocumentPolicy, DocumentNews, DocumentManual}

// ParseDocumentType normalizes a user-supplied type tag
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case DocumentPolicy, DocumentNews, DocumentManual:
		return t, nil
	case "":
		return "", fmt.Errorf("document type is required")
	default:
		return "", fmt.Errorf("unknown document type %q (supported: policy, news, manual)", s)
	}
}

// SourceDocument is the resolved input to the generation pipeline.
// It is produced by a document source and never modified by the pipeline.
type SourceDocument struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	DocumentType DocumentType `json:"documentType"`
	RawText      string       `json:"rawText"`
}
