// Command bonesd runs a headless bones asset process: it loads asset packs,
// watches them for hot reload, and serves a debug snapshot plus Prometheus
// metrics over HTTP — the generalization of the teacher's examples/basic
// HTTP-exposed debug snapshot. It creates no Game and steps no sessions; its
// main loop only ticks until a shutdown signal arrives.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Voskan/bones/asset"
	bconfig "github.com/Voskan/bones/internal/config"
	"github.com/Voskan/bones/internal/obslog"
)

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bonesd:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonesd",
		Short: "Run a bones game process: load packs, step the game, serve debug/metrics endpoints.",
		RunE:  run,
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a bones.yaml config file (optional)")
	bconfig.BindFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := bconfig.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := obslog.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	registry := prometheus.NewRegistry()
	opts := []asset.Option{asset.WithLogger(logger), asset.WithMetrics(registry)}
	if cfg.DiskCacheDir != "" {
		dc, err := asset.OpenDiskCache(cfg.DiskCacheDir)
		if err != nil {
			return fmt.Errorf("bonesd: opening disk cache: %w", err)
		}
		defer dc.Close()
		opts = append(opts, asset.WithDiskCache(dc))
	}

	io := asset.NewFilesystemIO(cfg.PacksDir)
	server, err := asset.NewServer(io, cfg.GameVersion, opts...)
	if err != nil {
		return fmt.Errorf("bonesd: constructing asset server: %w", err)
	}
	if loadErr := server.LoadPacks(cfg.CorePack); loadErr != nil {
		logger.Warn("bones/asset: some packs failed to load", zap.Error(loadErr))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := server.Watch(ctx, logger); err != nil {
		logger.Warn("bones/asset: hot reload watch unavailable", zap.Error(err))
	}

	srv := newDebugServer(cfg.MetricsAddr, registry, server)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("bones/bonesd: debug server stopped", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("bonesd: ready",
		zap.String("packs_dir", cfg.PacksDir),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.Int("step_rate_hz", cfg.StepRateHz))

	ticker := time.NewTicker(time.Second / time.Duration(max(cfg.StepRateHz, 1)))
	defer ticker.Stop()
	for {
		select {
		case <-sig:
			logger.Info("bonesd: shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		case <-ticker.C:
			// bonesd hosts no sessions, so a tick does no work; the loop
			// only keeps the process (and with it the watch goroutine and
			// the HTTP endpoints) running until a signal arrives.
		}
	}
}

func newDebugServer(addr string, registry *prometheus.Registry, server *asset.Server) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/bones/snapshot", func(w http.ResponseWriter, r *http.Request) {
		snap := map[string]any{
			"incompatible_packs": len(server.IncompatiblePacks),
		}
		_ = json.NewEncoder(w).Encode(snap)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
