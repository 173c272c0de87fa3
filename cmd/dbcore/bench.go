package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
)

func newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Hammer SelectCached from a worker pool and report throughput",
		RunE:  runBench,
	}
	cmd.Flags().String("query", "SELECT 1 AS ok", "query to run")
	cmd.Flags().Int("workers", 32, "concurrent workers")
	cmd.Flags().Int("requests", 10000, "total requests")
	cmd.Flags().Int("keys", 16, "distinct cache keys")
	cmd.Flags().Duration("ttl", time.Second, "cache TTL per key")
	return cmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	query, _ := cmd.Flags().GetString("query")
	workers, _ := cmd.Flags().GetInt("workers")
	requests, _ := cmd.Flags().GetInt("requests")
	keys, _ := cmd.Flags().GetInt("keys")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if keys <= 0 {
		keys = 1
	}

	e, _, log, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(cmd.Context()))

	workerPool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var (
		wg       sync.WaitGroup
		failures atomic.Int64
	)
	ctx := cmd.Context()
	start := time.Now()

	for i := range requests {
		key := fmt.Sprintf("bench_%d", i%keys)
		wg.Add(1)
		err := workerPool.Submit(func() {
			defer wg.Done()
			if _, err := e.SelectCached(ctx, query, nil, key, ttl); err != nil {
				if failures.Add(1) == 1 {
					log.Warn().Err(err).Msg("bench request failed")
				}
			}
		})
		if err != nil {
			wg.Done()
			failures.Add(1)
		}
	}
	wg.Wait()
	took := time.Since(start)

	stats := e.PerformanceStats()
	fmt.Fprintf(cmd.OutOrStdout(),
		"requests=%d failures=%d took=%s rps=%.0f cache_hit_rate=%.3f pool_created=%d pool_waits=%d\n",
		requests, failures.Load(), took.Round(time.Millisecond),
		float64(requests)/took.Seconds(), stats.Cache.HitRate,
		stats.Pool.Created, stats.Pool.WaitCount)
	return nil
}
