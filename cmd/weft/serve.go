package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/weft-ui/weft"
	"github.com/weft-ui/weft/internal/telemetry"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr   string
		target string
	)

	cmd := &cobra.Command{
		Use:   "serve <page.html>",
		Short: "Serve a hydrated page over the event bridge",
		Long: `Hydrate the demo counter into a page and serve the websocket event bridge.

Clients send one JSON frame per event to /ws, addressing elements by
their data-hid attribute:

  {"id":"1","type":"click","hid":"inc"}

Prometheus metrics are served on /metrics when enabled in weft.yaml.
Traces are exported when tracing.endpoint is set.

Examples:
  weft serve index.html
  weft serve index.html --addr 0.0.0.0:7420`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Bridge.Addr = addr
			}
			logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
			out := cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := telemetry.Setup(ctx, cfg.Tracing)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error("trace shutdown failed", "error", err)
				}
			}()

			doc, app, err := loadPage(args[0], target, logger)
			if err != nil {
				return err
			}

			opts := []weft.Option{weft.WithConfig(cfg), weft.WithLogger(logger)}
			var gatherer prometheus.Gatherer
			if cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				opts = append(opts, weft.WithRegisterer(reg))
				gatherer = reg
			}

			rt := weft.New(doc, opts...)
			defer rt.Close()

			if _, err := rt.Hydrate(ctx, counter, weft.Options{Target: app}); err != nil {
				return err
			}
			success(out, "Hydrated %s (%s)", args[0], rt.State())
			info(out, "bridge:  ws://%s/ws", cfg.Bridge.Addr)
			if gatherer != nil {
				info(out, "metrics: http://%s/metrics", cfg.Bridge.Addr)
			}

			return rt.Bridge(gatherer).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from weft.yaml)")
	cmd.Flags().StringVarP(&target, "target", "t", "app", "Id of the element holding the region")

	return cmd
}
