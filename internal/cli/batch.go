package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docquiz/internal/pipeline"
	"github.com/ppiankov/docquiz/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchType    string
	batchOffline bool
	batchMD      bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate quizzes for many stored documents in parallel",
	Long: `Batch generates quizzes for every document listed in a file:
- One document per line: <documentId> [documentType]
- Lines without a type use --type
- Blank lines and # comments are skipped
- Documents are processed in parallel with a configurable worker count
- Each quiz is written to <output-dir>/<type>-<id>.json, plus summary.json

Example:
  docquiz batch docs.txt --type policy
  docquiz batch docs.txt --concurrency 8 --output-dir ./quizzes --md
  docquiz batch docs.txt --offline --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./docquiz-quizzes", "output directory for quizzes")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVarP(&batchType, "type", "t", "", "document type for lines without one")
	batchCmd.Flags().BoolVar(&batchOffline, "offline", false, "skip the generation service and use rule-based questions")
	batchCmd.Flags().BoolVar(&batchMD, "md", false, "also write a Markdown quiz sheet per document")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if concurrency <= 0 {
		concurrency = cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	provider := cfg.LLM.Provider
	if provider == "" || batchOffline {
		provider = "rule-based"
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  docquiz Batch Generation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  Generator:    %s\n", provider)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	s, err := openStore(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	p, err := newPipeline(cfg, s, log)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Processing documents with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")
	results, err := processor.ProcessFile(ctx, file, batchType, batchOffline)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(true)
	for _, res := range results {
		if !res.OK {
			fmt.Fprintf(os.Stderr, "✗ %s (%s): %s\n", res.DocumentID, res.ErrorKind, res.Error)
			continue
		}

		slug := sanitizeFilename(string(res.DocumentType) + "-" + res.DocumentID)
		if err := renderer.RenderJSON(res, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", res.DocumentID, err)
			continue
		}
		if batchMD {
			if err := renderer.RenderMarkdown(res, filepath.Join(outputDir, slug+".md")); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", res.DocumentID, err)
				continue
			}
		}

		fmt.Fprintf(os.Stderr, "✓ %s: %d questions via %s\n", res.DocumentID, len(res.Questions), res.Mode)
	}

	summary := worker.Summarize(results)
	summaryPath := filepath.Join(outputDir, "summary.json")
	if err := renderer.RenderJSON(summary, summaryPath); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Success:   %d (%d rule-based)\n", summary.OK, summary.Fallback)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", summary.Failed)
	for kind, n := range summary.ByKind {
		fmt.Fprintf(os.Stderr, "    %-13s %d\n", kind+":", n)
	}
	fmt.Fprintf(os.Stderr, "  Summary:   %s\n", summaryPath)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "document"
	}

	// Limit length without splitting a multi-byte rune
	if len(s) > 100 {
		cut := 100
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	return s
}
