package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a query through the cache and print performance stats as JSON",
		RunE:  runStats,
	}
	cmd.Flags().String("query", "SELECT 1 AS ok", "query to run before reporting")
	cmd.Flags().Int("repeat", 2, "how many times to run the query")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	query, _ := cmd.Flags().GetString("query")
	repeat, _ := cmd.Flags().GetInt("repeat")

	e, _, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(cmd.Context()))

	for range repeat {
		if _, err := e.SelectCached(cmd.Context(), query, nil, "dbcore_stats", time.Minute); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(e.PerformanceStats(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
