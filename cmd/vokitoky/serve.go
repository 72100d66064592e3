package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/vokitoky/vokitoky/internal/adapters/http"
	"github.com/vokitoky/vokitoky/internal/config"
	"github.com/vokitoky/vokitoky/internal/registry"
	"github.com/vokitoky/vokitoky/internal/relay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the channel relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		reg := registry.New()
		sessions := relay.NewSessionTable()
		rel := relay.New(reg, sessions, relay.SimplePolicy{})

		r := router.SetupRouter(ctx, cfg, rel)
		addr := fmt.Sprintf(":%d", cfg.Port)

		srv := &http.Server{
			Addr:    addr,
			Handler: r,
		}

		go func() {
			log.Info().Str("addr", addr).Msg("relay server started")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("server error")
			}
		}()

		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited gracefully")
		return nil
	},
}
