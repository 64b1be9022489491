package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	chiTransport "github.com/kailas-cloud/neumann/internal/transport/chi"
	"github.com/kailas-cloud/neumann/internal/version"
)

type serveOptions struct {
	port   int
	outDir string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search API",
		Long: `Start the HTTP search API. Rendered page images under the output
directory are served at /<assets.root>/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port (overrides http.port)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "Rendered output directory (overrides assets.dir)")

	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts serveOptions) error {
	a, err := newApp(ctx, root.env)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if opts.port > 0 {
		cfg.HTTP.Port = opts.port
	}
	if opts.outDir != "" {
		cfg.Assets.Dir = opts.outDir
	}

	a.logger.Info("Starting neumann API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("semantic", a.embedder != nil),
	)

	created, err := a.collections.EnsureIndexes(ctx)
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if len(created) > 0 {
		a.logger.Info("Created indexes", zap.Strings("indexes", created))
	}

	server := chiTransport.NewServer(
		a.searchService(),
		a.healthService(),
		a.summaries,
		a.chunks,
		chiTransport.SearchDefaults{
			K:         cfg.Search.DefaultK,
			WSemantic: cfg.Search.SemanticWeight,
			WLexical:  cfg.Search.LexicalWeight,
		},
		chiTransport.Assets{
			BaseURL: cfg.Assets.BaseURL,
			Dir:     cfg.Assets.Dir,
			Root:    cfg.Assets.Root,
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           chiTransport.NewRouter(server, cfg.Auth.APIKeys, a.logger),
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
