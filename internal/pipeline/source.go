package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/docquiz/internal/model"
)

// Source resolves a document id and type to pipeline input.
// store.Store and URLSource implement it.
type Source interface {
	Resolve(ctx context.Context, id string, docType model.DocumentType) (model.SourceDocument, error)
}

// TextSource serves documents held in memory, keyed by id
type TextSource map[string]model.SourceDocument

// NewTextSource indexes docs by id
func NewTextSource(docs ...model.SourceDocument) TextSource {
	s := make(TextSource, len(docs))
	for _, d := range docs {
		s[d.ID] = d
	}
	return s
}

// Resolve returns the document with the given id when its type matches
func (s TextSource) Resolve(_ context.Context, id string, docType model.DocumentType) (model.SourceDocument, error) {
	doc, ok := s[id]
	if !ok || (doc.DocumentType != "" && doc.DocumentType != docType) {
		return model.SourceDocument{}, fmt.Errorf("%w: %s (%s)", model.ErrDocumentNotFound, id, docType)
	}
	doc.DocumentType = docType
	return doc, nil
}
