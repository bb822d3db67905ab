package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/pipeline"
	"github.com/ppiankov/docquiz/internal/store"
	"github.com/ppiankov/docquiz/internal/worker"
)

const version = "docquiz v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docquiz",
	Short: "docquiz - multiple-choice quiz generation from business documents",
	Long: `docquiz turns internal policies, news articles and manual entries into
multiple-choice comprehension quizzes.

With a generation service configured (OpenAI, Anthropic or Ollama) each
document is analyzed and a batch of five questions is synthesized and
repaired into shape. Without one, deterministic rule-based questions are
built from the document's keywords, figures and roles.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the
// command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.docquiz/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("llm-provider", "", "generation service (openai, anthropic, ollama; empty disables)")
	flags.String("llm-model", "", "generation model name")
	flags.String("log-mode", "", "logger mode (development, production, nop)")
	flags.String("db-driver", "", "document store driver (sqlite, postgres)")
	flags.String("db-dsn", "", "document store DSN")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("llm-model"))
	_ = viper.BindPFlag("log.mode", flags.Lookup("log-mode"))
	_ = viper.BindPFlag("store.driver", flags.Lookup("db-driver"))
	_ = viper.BindPFlag("store.dsn", flags.Lookup("db-dsn"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	// Built-in defaults are the lowest layer; registering them also lets
	// AutomaticEnv resolve every nested key
	viper.SetConfigType("yaml")
	if defaults, err := yaml.Marshal(model.DefaultConfig()); err == nil {
		_ = viper.ReadConfig(bytes.NewReader(defaults))
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".docquiz"))
		viper.SetConfigName("config")
	}

	// Read in environment variables that match DOCQUIZ_*
	viper.SetEnvPrefix("DOCQUIZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, merge it over the defaults
	if err := viper.MergeInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration:
// flags > environment > config file > defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) (*logging.Logger, error) {
	mode := cfg.Log.Mode
	if verbose && mode == "production" {
		mode = "development"
	}
	log, err := logging.New(mode)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// newPipeline wires the pipeline's collaborators from cfg
func newPipeline(cfg *model.Config, source pipeline.Source, log *logging.Logger) (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithLimiter(worker.NewLimiterFromConfig(cfg.RateLimiting)),
	}

	if cfg.VocabularyFile != "" {
		vocab, err := extract.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		opts = append(opts, pipeline.WithVocabulary(vocab))
	}

	return pipeline.NewPipeline(cfg, source, opts...), nil
}

// openStore opens the document store and ensures its schema
func openStore(cmd *cobra.Command, cfg *model.Config, log *logging.Logger) (*store.Store, error) {
	s, err := store.Open(cfg.Store, cfg.Pipeline.MaxSourceLength, log)
	if err != nil {
		return nil, err
	}
	if err := s.AutoMigrate(cmd.Context()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
