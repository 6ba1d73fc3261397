package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wut/internal/logging"
	"wut/internal/relay"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		listen   string
		peerTTL  time.Duration
		inboxCap int
		env      string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Run the wut topic relay",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := logging.Console(env == "development", lvl)

			srv := relay.NewServer(relay.ServerConfig{PeerTTL: peerTTL, InboxCap: inboxCap}, logger)
			httpSrv := &http.Server{
				Addr:         listen,
				Handler:      srv.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			reapEvery := peerTTL / 2
			if reapEvery <= 0 {
				reapEvery = relay.DefaultPeerTTL / 2
			}
			go srv.Run(ctx, reapEvery)

			errc := make(chan error, 1)
			go func() {
				logger.Info().Str("listen", listen).Str("env", env).Dur("peer_ttl", peerTTL).Msg("starting relay")
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					logger.Error().Err(err).Msg("relay failed")
				}
				return err
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down relay...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info().Msg("relay stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8080", "listen address")
	cmd.Flags().DurationVar(&peerTTL, "peer-ttl", relay.DefaultPeerTTL, "reap members that have not polled for this long")
	cmd.Flags().IntVar(&inboxCap, "inbox-cap", relay.DefaultInboxCap, "maximum queued events per member")
	cmd.Flags().StringVar(&env, "env", "production", "environment; development logs in console format")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}
