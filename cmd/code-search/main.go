package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/randalmurphy/code-search/internal/config"
	"github.com/randalmurphy/code-search/internal/embedding"
	"github.com/randalmurphy/code-search/internal/store"
)

var version = "0.1.0"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "code-search",
	Short: "Semantic code indexing and retrieval",
	Long:  `Index source repositories into a vector store and search them by meaning.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Local overrides for API keys; absence is fine.
		_ = godotenv.Load()
		setupLogger(logLevel)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("code-search v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel == "" {
		setupLogger(cfg.Logging.Level)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	if _, err := os.Stat(".code-search.yaml"); err == nil {
		return ".code-search.yaml"
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".code-search.yaml"
	}
	return homeDir + "/.config/code-search/config.yaml"
}

// openStore builds the configured vector store, creating the embedder first
// so the store knows its dimension.
func openStore(ctx context.Context, cfg *config.Config) (store.VectorStore, embedding.Embedder, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, nil, err
	}

	vs, err := store.New(ctx, store.Options{
		Backend:    cfg.Storage.Backend,
		Dimension:  embedder.Dimension(),
		QdrantURL:  cfg.Storage.QdrantURL,
		Collection: cfg.Storage.Collection,
	})
	if err != nil {
		return nil, nil, err
	}
	return vs, embedder, nil
}
