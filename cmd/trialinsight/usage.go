package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	aiuc "github.com/Josconicme/trial-insight/internal/usecase/ai"
	usageuc "github.com/Josconicme/trial-insight/internal/usecase/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show AI token usage against the configured budget",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b := cli.cfg.AI.Budget
		tracker := aiuc.NewBudgetTracker(cli.cfg.AI.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit,
			aiuc.BudgetActionWarn, cli.logger).WithStore(cmd.Context(), newBudgetStore())

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PERIOD\tUSED\tLIMIT\tREMAINING\tRESETS")
		for _, r := range usageuc.New(tracker).Reports(cmd.Context()) {
			limit, remaining := "unlimited", "unlimited"
			if r.Limit > 0 {
				limit = fmt.Sprint(r.Limit)
				remaining = fmt.Sprint(r.Remaining)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.Period, r.Used, limit, remaining, r.End.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
