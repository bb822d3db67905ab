package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/llm"
	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/store"
)

// checkTimeout bounds each connectivity check
const checkTimeout = 15 * time.Second

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage docquiz configuration",
	Long: `Manage docquiz configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (DOCQUIZ_*)
3. Config file (~/.docquiz/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, environment variables and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Never echo a secret
		if cfg.LLM.APIKey != "" {
			cfg.LLM.APIKey = "********"
		}

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (DOCQUIZ_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)")
		fmt.Println("  3. Config file (~/.docquiz/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.docquiz/config.yaml with every available option.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := filepath.Join(home, ".docquiz")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'docquiz config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		// Helper for writing with error checking
		printf := func(format string, a ...interface{}) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(f, format, a...)
		}

		printf("# docquiz Configuration File\n")
		printf("# See https://github.com/ppiankov/docquiz for full documentation\n")
		printf("#\n")
		printf("# Configuration hierarchy (highest to lowest priority):\n")
		printf("#   1. CLI flags\n")
		printf("#   2. Environment variables (DOCQUIZ_*)\n")
		printf("#   3. This config file\n")
		printf("#   4. Built-in defaults\n\n")

		yamlData, mErr := yaml.Marshal(model.DefaultConfig())
		if mErr != nil {
			return fmt.Errorf("error marshaling config: %w", mErr)
		}
		printf("%s", yamlData)

		printf("\n# API Keys (recommended to use environment variables instead):\n")
		printf("#   export OPENAI_API_KEY=sk-...\n")
		printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
		printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

		if err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  docquiz config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		fmt.Printf("\n")

		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured services are reachable",
	Long: `Check loads the effective configuration and verifies, before any
generation run:
- the generation service answers (skipped when no provider is set)
- the vocabulary file parses, when one is configured
- the document store accepts connections

Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if failed := runConfigChecks(cmd.Context(), cfg, os.Stdout); failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

// runConfigChecks prints one line per check and returns how many failed
func runConfigChecks(ctx context.Context, cfg *model.Config, w io.Writer) int {
	failed := 0
	report := func(name string, err error, okDetail string) {
		if err != nil {
			failed++
			fmt.Fprintf(w, "✗ %-18s %v\n", name, err)
			return
		}
		fmt.Fprintf(w, "✓ %-18s %s\n", name, okDetail)
	}

	if cfg.LLM.Provider == "" {
		fmt.Fprintf(w, "- %-18s disabled, rule-based questions only\n", "generation service")
	} else {
		name, err := checkProvider(ctx, cfg.LLM)
		report("generation service", err, name+" is reachable")
	}

	if cfg.VocabularyFile != "" {
		_, err := extract.LoadVocabulary(cfg.VocabularyFile)
		report("vocabulary", err, cfg.VocabularyFile)
	}

	report("document store", checkStore(ctx, cfg), cfg.Store.Driver)
	return failed
}

func checkProvider(ctx context.Context, mc model.LLMConfig) (string, error) {
	llmConfig := llm.ConfigFromModel(mc)
	llm.ApplyEnv(&llmConfig)
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if !provider.IsAvailable(ctx) {
		return provider.Name(), fmt.Errorf("%s is not reachable", provider.Name())
	}
	return provider.Name(), nil
}

func checkStore(ctx context.Context, cfg *model.Config) error {
	s, err := store.Open(cfg.Store, cfg.Pipeline.MaxSourceLength, logging.Nop())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return s.Ping(ctx)
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}
