package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/store"
)

var (
	docTitle string
	docLimit int
)

// documentsCmd represents the documents command
var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage the document store",
	Long: `Manage the documents that generate, batch and serve resolve by id.

Policies keep the text extracted from their file, news articles keep
their summary and manual entries keep their body.`,
}

var documentsAddCmd = &cobra.Command{
	Use:   "add <documentId> <file>",
	Short: "Add or replace a document from a text or HTML file",
	Long: `Add stores the contents of a file under the given id and type. HTML
is kept as-is for news summaries and reduced to text otherwise.

Example:
  docquiz documents add pol-001 ./policies/password.txt --type policy --title "Password Policy"
  docquiz documents add news-42 ./news/42.html --type news`,
	Args: cobra.ExactArgs(2),
	RunE: runDocumentsAdd,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsAddCmd)
	documentsCmd.AddCommand(documentsListCmd)

	documentsAddCmd.Flags().StringVarP(&docType, "type", "t", "", "document type (policy, news, manual)")
	documentsAddCmd.Flags().StringVar(&docTitle, "title", "", "document title (default: HTML title or file name)")
	_ = documentsAddCmd.MarkFlagRequired("type")

	documentsListCmd.Flags().StringVarP(&docType, "type", "t", "", "only list one document type")
	documentsListCmd.Flags().IntVar(&docLimit, "limit", 50, "maximum number of documents")
}

// newStoredDocument maps file contents onto the column the type reads
func newStoredDocument(id string, typ model.DocumentType, title, path, content string) *store.Document {
	isHTML := strings.HasSuffix(strings.ToLower(path), ".html") || strings.HasSuffix(strings.ToLower(path), ".htm")
	if title == "" && isHTML {
		title = extract.Title(content)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	doc := &store.Document{ID: id, DocumentType: string(typ), Title: title}
	switch typ {
	case model.DocumentNews:
		doc.Summary = content
	case model.DocumentManual:
		if isHTML {
			content = extract.PlainText(content)
		}
		doc.Question = content
	default:
		if isHTML {
			content = extract.PlainText(content)
		}
		doc.ExtractedText = content
	}
	return doc
}

func runDocumentsAdd(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]

	typ, err := model.ParseDocumentType(docType)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := openStore(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	doc := newStoredDocument(id, typ, docTitle, path, string(data))
	if err := s.Put(cmd.Context(), doc); err != nil {
		return fmt.Errorf("store document: %w", err)
	}

	fmt.Printf("✓ Stored %s %s: %s\n", typ, id, doc.Title)
	return nil
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	var typ model.DocumentType
	if docType != "" {
		parsed, err := model.ParseDocumentType(docType)
		if err != nil {
			return err
		}
		typ = parsed
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := openStore(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	docs, err := s.List(cmd.Context(), typ, docLimit)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(os.Stderr, "No documents stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tRUNES\tTITLE")
	for i := range docs {
		text := store.DeriveText(&docs[i], cfg.Pipeline.MaxSourceLength)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", docs[i].ID, docs[i].DocumentType, len([]rune(text)), docs[i].Title)
	}
	return w.Flush()
}
