package main

import (
	"context"

	"github.com/spf13/cobra"

	apihttp "github.com/alem-hub/study-dept/internal/interface/http"
	"github.com/alem-hub/study-dept/internal/interface/http/handlers"
	"github.com/alem-hub/study-dept/pkg/circuitbreaker"
	"github.com/alem-hub/study-dept/pkg/logger"
)

func (c *cli) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			cfg := apihttp.DefaultConfig()
			cfg.Addr = a.cfg.HTTP.Addr
			if addr != "" {
				cfg.Addr = addr
			}
			cfg.ReadTimeout = a.cfg.HTTP.ReadTimeout
			cfg.WriteTimeout = a.cfg.HTTP.WriteTimeout
			cfg.CacheMaxAge = a.cfg.HTTP.CacheMaxAge

			health := handlers.NewCompositeHealthChecker()
			health.AddCheck("directory", handlers.NewDirectoryCheck(a.dept))
			if a.redis != nil {
				health.AddOptionalCheck("redis", handlers.NewPingCheck(a.redis))
				health.AddOptionalCheck("suggestion-cache", breakerCheck(a.breaker))
			}

			srv := apihttp.NewServer(cfg, apihttp.Dependencies{
				SearchStudents: a.search,
				SuggestNames:   a.suggest,
				Directory:      a.dept,
				Health:         health,
				Logger:         a.log,
			})

			errCh := srv.StartAsync()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			// ─────────────────────────────────────────────────────────────────
			// Graceful shutdown
			// ─────────────────────────────────────────────────────────────────
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				a.log.Error("shutdown failed", logger.Err(err))
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

// breakerCheck сообщает об открытом предохранителе кеша подсказок.
func breakerCheck(cb *circuitbreaker.CircuitBreaker) handlers.HealthCheckFunc {
	return func(context.Context) error {
		if cb.IsOpen() {
			return circuitbreaker.ErrCircuitOpen
		}
		return nil
	}
}
