package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/docquiz/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz endpoints over HTTP",
	Long: `Serve exposes the pipeline over HTTP:
  POST /api/generate-quiz      {"documentId": "...", "documentType": "policy|news|manual"}
  POST /api/analyze-document   same body, returns the analysis only
  GET  /healthcheck

Documents are resolved from the document store. Failures map to
400 (input), 500 (configuration) and 502 (generation service).

Example:
  docquiz serve --addr :8080
  DOCQUIZ_LLM_PROVIDER=openai docquiz serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
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

	p, err := newPipeline(cfg, s, log)
	if err != nil {
		return err
	}

	provider := p.ProviderName()
	if provider == "" {
		provider = "rule-based"
	}
	fmt.Fprintf(os.Stderr, "⚙️  Serving on %s (generator: %s, store: %s)\n", cfg.Server.Addr, provider, cfg.Store.Driver)

	return server.New(cfg.Server, p, log).ListenAndServe(cmd.Context())
}
