package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/viant/lookalike/metrics"
	"github.com/viant/lookalike/rank"
	"github.com/viant/lookalike/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookalike rankings over HTTP.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := loadStore(ctx)
	if err != nil {
		return err
	}
	crops, err := loadCrops()
	if err != nil {
		return err
	}
	collector := metrics.New(metrics.DefaultConfig())
	collector.SetStoreEntries(store.Len())

	opts, err := cfg.Rank.Options()
	if err != nil {
		return err
	}
	ranker, err := rank.NewRanker(store, append(opts, rank.WithLogger(logger), rank.WithObserver(collector))...)
	if err != nil {
		return err
	}
	srvOpts := []server.Option{
		server.WithMetrics(collector.Handler()),
		server.WithDefaultK(cfg.Rank.K),
		server.WithLogger(logger),
	}
	if crops != nil {
		srvOpts = append(srvOpts, server.WithCrops(crops))
	}
	srv, err := server.New(ranker, srvOpts...)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.Server.Addr) }()
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
