package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zakwanzambri/wintradesgo-sub004/metrics"
)

func newMetricsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Serve pool, cache and query metrics for Prometheus",
		RunE:  runMetrics,
	}
	cmd.Flags().String("addr", ":9187", "listen address")
	return cmd
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	e, cfg, log, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(cmd.Context()))

	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(cfg.Metrics.Namespace, e)); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-cmd.Context().Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
