package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/config"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:          "olist-features",
		Short:        "Compute order and seller training tables from the olist marketplace data.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().String("features", "", "YAML feature options file (overrides FEATURES_CONFIG)")

	rootCmd.AddCommand(
		NewRunCmd().Command(),
		NewPreviewCmd().Command(),
		NewTablesCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}

	return exitCodeSuccess
}

// setup loads configuration, applies the root flags and installs the logger
// as the global zap logger
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	features, err := cmd.Root().PersistentFlags().GetString("features")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get features flag: %w", err)
	}
	if features != "" {
		if err := os.Setenv("FEATURES_CONFIG", features); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)

	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
