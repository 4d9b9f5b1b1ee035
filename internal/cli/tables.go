package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/David-Botos/olist-features/pkg/pipeline"
)

type TablesCmd struct{}

func NewTablesCmd() *TablesCmd {
	return &TablesCmd{}
}

func (c *TablesCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the raw tables loaded from the source with their row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, cancel := signalContext()
			defer cancel()

			snap, err := pipeline.NewRunner(cfg, logger).LoadSnapshot(ctx)
			if err != nil {
				return err
			}

			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetAutoFormatHeaders(false)
			tw.SetHeader([]string{"Table", "Rows", "Columns"})
			tables := snap.Tables()
			for _, name := range snap.Names() {
				t := tables[name]
				tw.Append([]string{name, fmt.Sprintf("%d", t.Len()), fmt.Sprintf("%d", len(t.Columns()))})
			}
			tw.Render()
			return nil
		},
	}

	return cmd
}
