package main

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fuid-service/internal/semantic"
	serverhttp "fuid-service/server/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		addr         string
		embedOnStart bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if addr != "" {
					host, port, err := splitAddr(addr)
					if err != nil {
						return err
					}
					d.Config.Host, d.Config.Port = host, port
				}
				return runServe(cmd.Context(), d, embedOnStart)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address host:port (overrides config)")
	cmd.Flags().BoolVar(&embedOnStart, "embed-on-start", true, "Build the semantic index in the background when it is missing or stale")
	return cmd
}

func runServe(ctx context.Context, d *Deps, embedOnStart bool) error {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}
	logger := d.Log

	if embedOnStart && d.Engine != nil {
		// the deferred Close in withDeps must not run under a live build
		bctx, cancelBuild := context.WithCancel(ctx)
		wait := buildOnStart(bctx, d.Service, logger)
		defer func() {
			cancelBuild()
			wait()
		}()
	}

	r := serverhttp.NewRouter(d.Config, d.Service, logger)
	srv := &http.Server{
		Addr:              d.Config.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Str("addr", d.Config.Addr()).Str("data", d.Config.DataFile).Msg("server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	logger.Info().Msg("bye")
	return nil
}

type embeddingBuilder interface {
	EmbeddingStatus() (semantic.Status, error)
	BuildEmbeddings(ctx context.Context) (semantic.Status, error)
}

// buildOnStart builds the semantic index in the background when it is
// missing or stale. The returned func blocks until that build is over.
func buildOnStart(ctx context.Context, b embeddingBuilder, logger zerolog.Logger) (wait func()) {
	var wg sync.WaitGroup
	if st, err := b.EmbeddingStatus(); err == nil && (!st.Ready || st.Stale) {
		wg.Go(func() {
			if _, err := b.BuildEmbeddings(ctx); err != nil {
				logger.Warn().Err(err).Msg("startup embedding build failed; lexical search only")
			}
		})
	}
	return wg.Wait
}
