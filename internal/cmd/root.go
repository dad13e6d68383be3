package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strrl/autolora/internal/config"
	"github.com/strrl/autolora/internal/home"
)

var (
	cfgFile   string
	homePath  string
	verbose   bool
	logFormat string

	cfg     *config.Config
	homeDir *home.Dir
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "autolora",
	Short: "Manage LoRA trigger words and apply LoRA stacks",
	Long: `autolora keeps a table of LoRA trigger phrases, discovers missing ones from
sidecar files, embedded metadata and Civitai, and injects them into prompts
when a LoRA stack is applied.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		homeDir, err = home.New(homePath)
		if err != nil {
			return err
		}

		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return err
		}

		logger, err = buildLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(lc config.LogCfg) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	format := lc.Format
	if logFormat != "" {
		format = logFormat
	}
	if format != "json" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	level, err := zapcore.ParseLevel(strings.TrimSpace(lc.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

// ExecuteContext runs the root command. The context is cancelled on Ctrl+C.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = false

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./autolora.yaml or ~/.autolora/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&homePath, "home", "", "autolora home directory (default ~/.autolora)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json (default from config)")
}
