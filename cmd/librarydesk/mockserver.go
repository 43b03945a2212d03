package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/librarydesk/librarydesk/internal/apitest"
	"github.com/librarydesk/librarydesk/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func newMockServerCmd(a *app) *cobra.Command {
	var (
		addr    string
		latency time.Duration
		empty   bool
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory library backend for local use",
		Long: `mock-server serves the backend's REST routes from memory, seeded with a
small sample library. Point --api-base-url at it from another terminal.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationStandalone: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.New(logger.Config{
				Level:       logger.ParseLevel(firstNonEmpty(a.flags.LogLevel, "info")),
				Environment: a.flags.Environment,
				Writer:      cmd.ErrOrStderr(),
			})

			backend := apitest.New(apitest.WithLogger(log), apitest.WithLatency(latency))
			if !empty {
				backend.Seed()
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           backend,
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("Mock backend starting", "addr", srv.Addr, "seeded", !empty)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			log.Info("Shutting down mock backend...")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay added to every response")
	cmd.Flags().BoolVar(&empty, "empty", false, "Start without sample data")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
