package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/pipeline"
)

type RunCmd struct{}

func NewRunCmd() *RunCmd {
	return &RunCmd{}
}

func (c *RunCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the raw tables, compute both training tables and export them to the configured sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, cancel := signalContext()
			defer cancel()

			summary, err := pipeline.NewRunner(cfg, logger).Run(ctx)
			if summary != nil {
				summary.WriteReport(os.Stdout)
			}
			if err != nil {
				logger.Error("Pipeline failed", zap.Error(err))
				return err
			}
			if summary.FailedJobs > 0 {
				return fmt.Errorf("%d of %d export jobs failed", summary.FailedJobs, summary.Jobs)
			}
			return nil
		},
	}

	return cmd
}
