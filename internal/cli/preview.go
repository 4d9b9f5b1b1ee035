package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/David-Botos/olist-features/pkg/pipeline"
	"github.com/David-Botos/olist-features/pkg/table"
)

type PreviewCmd struct{}

func NewPreviewCmd() *PreviewCmd {
	return &PreviewCmd{}
}

func (c *PreviewCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "preview orders|sellers",
		Short:     "Print the first rows of a training table",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"orders", "sellers"},
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}

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
			engines, err := pipeline.NewEngines(snap, cfg.Features)
			if err != nil {
				return err
			}
			head, err := engines.Preview(args[0], limit)
			if err != nil {
				return err
			}

			printTable(os.Stdout, head)
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "Number of rows to print")

	return cmd
}

func printTable(w io.Writer, t *table.Table) {
	fmt.Fprintf(w, "%s (%d rows)\n", t.Name(), t.Len())

	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	tw.SetAutoFormatHeaders(false)
	tw.SetBorder(true)
	tw.SetHeader(t.Columns())

	columns := t.Columns()
	t.Each(func(_ int, r table.Row) {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = cell(r[col])
		}
		tw.Append(cells)
	})
	tw.Render()
}

func cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(x, 'f', 3, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", x)
	}
}
