package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open the pool and check that a session answers",
		RunE:  runPing,
	}
}

func runPing(cmd *cobra.Command, _ []string) error {
	e, cfg, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(cmd.Context()))

	start := time.Now()
	if err := e.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("ping %s: %w", cfg.Database.RedactedDSN(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok %s (%s)\n", cfg.Database.RedactedDSN(), time.Since(start).Round(time.Microsecond))
	return nil
}
