package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/pipeline"
)

var (
	docType    string
	offline    bool
	inputFile  string
	inputURL   string
	inputTitle string
	outJSON    string
	outMD      string
	runTimeout time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [documentId]",
	Short: "Generate a quiz for one document",
	Long: `Generate resolves a document and produces its question batch:
- from the document store by id and type (default)
- from a local text or HTML file with --file
- from a web page with --url

Example:
  docquiz generate pol-001 --type policy
  docquiz generate news-42 --type news --json quiz.json --md quiz.md
  docquiz generate --file handbook.txt --title "Employee Handbook" --type manual
  docquiz generate --url https://example.com/policy.html --type policy --offline`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addSourceFlags(generateCmd)

	generateCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (- for stdout)")
	generateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown quiz sheet path")
}

// addSourceFlags registers the document selection flags shared by
// generate and analyze
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&docType, "type", "t", "", "document type (policy, news, manual)")
	cmd.Flags().StringVar(&inputFile, "file", "", "read the document from a local text or HTML file")
	cmd.Flags().StringVar(&inputURL, "url", "", "fetch the document from a web page")
	cmd.Flags().StringVar(&inputTitle, "title", "", "document title (with --file)")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall run timeout")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the generation service and use rule-based questions")
}

// prepareRun selects the document source and builds the request
func prepareRun(cmd *cobra.Command, cfg *model.Config, log *logging.Logger, args []string) (pipeline.Source, pipeline.Request, func(), error) {
	noop := func() {}
	req := pipeline.Request{DocumentType: docType, Offline: offline}

	sources := 0
	for _, set := range []bool{len(args) == 1, inputFile != "", inputURL != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, req, noop, fmt.Errorf("specify exactly one of: a document id, --file, --url")
	}

	switch {
	case inputFile != "":
		if req.DocumentType == "" {
			req.DocumentType = string(model.DocumentManual)
		}
		doc, err := readDocumentFile(inputFile, inputTitle, req.DocumentType)
		if err != nil {
			return nil, req, noop, err
		}
		req.DocumentID = doc.ID
		return pipeline.NewTextSource(doc), req, noop, nil

	case inputURL != "":
		if req.DocumentType == "" {
			req.DocumentType = string(model.DocumentNews)
		}
		req.DocumentID = inputURL
		return pipeline.NewURLSource(cfg.HTTP, cfg.Pipeline.MaxSourceLength), req, noop, nil

	default:
		req.DocumentID = args[0]
		s, err := openStore(cmd, cfg, log)
		if err != nil {
			return nil, req, noop, err
		}
		return s, req, func() { _ = s.Close() }, nil
	}
}

// readDocumentFile loads a local document; HTML is reduced to its text
func readDocumentFile(path, title, typ string) (model.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.SourceDocument{}, fmt.Errorf("read document: %w", err)
	}

	text := string(data)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		if title == "" {
			title = extract.Title(text)
		}
		text = extract.PlainText(text)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return model.SourceDocument{
		ID:           filepath.Base(path),
		Title:        title,
		DocumentType: model.DocumentType(strings.ToLower(typ)),
		RawText:      text,
	}, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	source, req, cleanup, err := prepareRun(cmd, cfg, log, args)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := newPipeline(cfg, source, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	if verbose {
		provider := p.ProviderName()
		if provider == "" || req.Offline {
			provider = "rule-based"
		}
		fmt.Fprintf(os.Stderr, "⚙️  Generating quiz for %s (%s) via %s...\n", req.DocumentID, req.DocumentType, provider)
	}

	res := p.Run(ctx, req)

	renderer := pipeline.NewRenderer(true)
	switch outJSON {
	case "":
	case "-":
		if err := renderer.WriteJSON(os.Stdout, res); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	default:
		if err := renderer.RenderJSON(res, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if outMD != "" && res.OK {
		if err := renderer.RenderMarkdown(res, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if outJSON != "-" {
		renderer.RenderSummary(os.Stdout, res)
	}

	if !res.OK {
		return fmt.Errorf("generation failed (%s): %s", res.ErrorKind, res.Error)
	}
	return nil
}
