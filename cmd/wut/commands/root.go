package commands

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"wut/internal/app"
	"wut/internal/logging"
)

var (
	home       string
	configPath string
	relayURL   string
	topic      string
	handle     string
	logLevel   string

	wire      *app.Wire
	logCloser io.Closer
)

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:           "wut",
		Short:         "Peer-to-peer terminal chat with end-to-end encrypted direct messages",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, closer, err := logging.OpenFile(cfg.Home, cfg.LogLevel)
			if err != nil {
				return err
			}
			logCloser = closer
			wire = app.NewWire(cfg, log, nil)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "application home (default ~/.wut)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <home>/config.toml)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&topic, "topic", "", "topic to join")
	root.PersistentFlags().StringVar(&handle, "handle", "", "handle to announce (default: your peer id)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(initCmd(), whoamiCmd(), chatCmd())
	return root.Execute()
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*app.Config, error) {
	if home == "" {
		dir, err := app.DefaultHome()
		if err != nil {
			return nil, err
		}
		home = dir
	}
	if configPath == "" {
		configPath = filepath.Join(home, app.ConfigFileName)
	}
	cfg, err := app.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Home = home

	flags := cmd.Flags()
	if flags.Changed("relay") {
		cfg.RelayURL = relayURL
	}
	if flags.Changed("topic") {
		cfg.Topic = topic
	}
	if flags.Changed("handle") {
		cfg.Handle = handle
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}
