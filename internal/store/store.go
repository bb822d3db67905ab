// Package store is the document source: it resolves a document id and type
// to the text the generation pipeline consumes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
)

// ErrNotFound is returned when no document matches the id and type
var ErrNotFound = model.ErrDocumentNotFound

// Document is a stored source document. Which text column is populated
// depends on the document type.
type Document struct {
	ID            string `gorm:"primaryKey;size:64"`
	DocumentType  string `gorm:"size:16;not null;index"`
	Title         string `gorm:"size:512"`
	ExtractedText string `gorm:"type:text"` // policy: text extracted from the uploaded file
	Summary       string `gorm:"type:text"` // news: article summary, may contain HTML
	Question      string `gorm:"type:text"` // manual: the entered question/body
	CreatedAt     time.Time
}

func (Document) TableName() string { return "documents" }

// Store reads documents through gorm
type Store struct {
	db        *gorm.DB
	maxLength int
	log       *logging.Logger
}

// Open connects to the configured database driver
func Open(cfg model.StoreConfig, maxLength int, logg *logging.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: sqlite, postgres)", cfg.Driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	return New(db, maxLength, logg), nil
}

// New wraps an open gorm handle
func New(db *gorm.DB, maxLength int, logg *logging.Logger) *Store {
	return &Store{
		db:        db,
		maxLength: maxLength,
		log:       logging.OrNop(logg).With("service", "DocumentStore"),
	}
}

// AutoMigrate creates or updates the documents table
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Document{})
}

// Put inserts or replaces a document
func (s *Store) Put(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if _, err := model.ParseDocumentType(doc.DocumentType); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(doc).Error
}

// Get loads the stored row for id and type
func (s *Store) Get(ctx context.Context, id string, docType model.DocumentType) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("id = ? AND document_type = ?", id, string(docType)).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, id, docType)
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return &doc, nil
}

// Resolve returns the pipeline input for a stored document
func (s *Store) Resolve(ctx context.Context, id string, docType model.DocumentType) (model.SourceDocument, error) {
	doc, err := s.Get(ctx, id, docType)
	if err != nil {
		return model.SourceDocument{}, err
	}

	text := DeriveText(doc, s.maxLength)
	s.log.Debug("document resolved", "document_id", id, "document_type", docType, "runes", len([]rune(text)))

	return model.SourceDocument{
		ID:           doc.ID,
		Title:        doc.Title,
		DocumentType: docType,
		RawText:      text,
	}, nil
}

// List returns up to limit documents of a type (all types when empty), newest first
func (s *Store) List(ctx context.Context, docType model.DocumentType, limit int) ([]Document, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if docType != "" {
		q = q.Where("document_type = ?", string(docType))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var docs []Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Ping verifies the database answers
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DeriveText builds the raw text for a document according to its type:
// policies use the extracted text, news the title and plain-text summary,
// manual entries the title and question. The result is cut to maxLength runes.
func DeriveText(doc *Document, maxLength int) string {
	var text string
	switch model.DocumentType(doc.DocumentType) {
	case model.DocumentPolicy:
		text = doc.ExtractedText
	case model.DocumentNews:
		text = joinNonEmpty(doc.Title, extract.PlainText(doc.Summary))
	case model.DocumentManual:
		text = joinNonEmpty(doc.Title, doc.Question)
	}
	return extract.Truncate(strings.TrimSpace(text), maxLength)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
