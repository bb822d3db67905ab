package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docquiz/internal/pipeline"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [documentId]",
	Short: "Print the structured analysis of one document",
	Long: `Analyze runs only the content analysis stage and prints the result as
JSON: summary, key points, important concepts, procedures,
responsibilities and compliance requirements.

Example:
  docquiz analyze pol-001 --type policy
  docquiz analyze --file handbook.txt --offline`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addSourceFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	res := p.Analyze(ctx, req)
	if err := pipeline.NewRenderer(true).WriteJSON(os.Stdout, res); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}

	if !res.OK {
		return fmt.Errorf("analysis failed (%s): %s", res.ErrorKind, res.Error)
	}
	return nil
}
