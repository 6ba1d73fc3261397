package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wut/internal/app"
	"wut/internal/services/message"
	"wut/internal/ui"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Join the configured topic and chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := wire.Config
			log := wire.Log

			keys, err := wire.Identity.Ensure()
			if err != nil {
				return fmt.Errorf("cannot establish identity: %w", err)
			}

			rc := wire.Relay()
			if err := rc.Join(ctx); err != nil {
				return fmt.Errorf("join %s on %s: %w", cfg.Topic, cfg.RelayURL, err)
			}
			rc.Start(ctx)
			defer func() {
				leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rc.Close(leaveCtx); err != nil {
					log.Warn().Err(err).Msg("leave topic")
				}
			}()

			console, err := ui.Open("> ", os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			defer console.Close()
			console.Title(fmt.Sprintf("¿wut? connected to %s on %s", cfg.Topic, cfg.RelayURL))

			chat := app.NewChat(app.ChatConfig{
				Transport:   rc,
				Keys:        keys,
				Profile:     message.Profile{Handle: cfg.Handle, Bio: cfg.Bio},
				Display:     console,
				Input:       console.Lines(),
				PeerRefresh: cfg.PeerRefresh.Duration,
				Log:         log,
			})
			err = chat.Run(ctx)
			if errors.Is(err, app.ErrTransportClosed) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}
