package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"orcamento/internal/cli"
	"orcamento/internal/core"
)

func dashboardCmd() *cobra.Command {
	var (
		month   string
		allTime bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the monthly summary and the 12-month trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := newMirror()
			if err != nil {
				return err
			}

			if allTime {
				month = ""
			} else if month == "" {
				month = core.MonthOf(time.Now()).String()
			} else if _, ok := core.ParseMonth(month); !ok {
				return fmt.Errorf("invalid month %q, expected YYYY-MM", month)
			}

			summary, st, err := m.Summary(ctx, month)
			if err != nil {
				return fmt.Errorf("failed to load summary: %w", err)
			}
			trend, _, err := m.Trend(ctx)
			if err != nil {
				return fmt.Errorf("failed to load trend: %w", err)
			}

			fmt.Println(cli.RenderState(st))
			fmt.Println(cli.RenderBox("Summary", cli.RenderSummary(summary)))
			fmt.Println(cli.RenderBox("Last 12 months", cli.RenderTrend(trend)))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to summarize as YYYY-MM (default: current month)")
	cmd.Flags().BoolVar(&allTime, "all", false, "summarize every expense instead of one month")
	cmd.MarkFlagsMutuallyExclusive("month", "all")
	return cmd
}
