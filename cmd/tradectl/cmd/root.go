package cmd

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tradecore/client/cache"
	"github.com/tradecore/client/config"
	"github.com/tradecore/client/session"
	"github.com/tradecore/client/transport/ws"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tradectl",
	Short: "A command-line client for multi-account trading sessions",
	Long: `Tradectl drives a trading backend session from the command line.

It provides tools for:
  - Logging in and inspecting the account list
  - Switching the active account
  - Watching aggregate balances per scope
  - Topping up demo accounts
  - Inspecting which account types may still be opened`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tradectl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// loadConfig reads the configured file, falling back to defaults when no
// file exists, and overlays the environment.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = "./tradectl.yaml"
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		loaded, lerr := config.LoadFromFile(path)
		if lerr != nil {
			return nil, lerr
		}
		cfg = loaded
	}
	cfg.LoadEnv()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	var out = zerolog.New(os.Stderr)
	if cfg.Log.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}

func buildStore(cfg *config.Config) (session.Store, error) {
	if cfg.Cache.Type == "sqlite" {
		return cache.NewSQLite(cfg.Cache.DBPath)
	}
	return cache.NewMemory(), nil
}

// newLiveController connects the websocket transport and assembles a
// controller from the configuration. The caller owns the returned client.
func newLiveController(ctx context.Context, cfg *config.Config) (*session.Controller, *ws.Client, error) {
	log := buildLogger(cfg)

	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := ws.New(cfg.Endpoint.DialURL(), log)
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}

	ctrl := session.New(session.Deps{
		Transport:           client,
		Store:               store,
		Logger:              log,
		IsEU:                cfg.Session.IsEU,
		RealityCheckDefault: time.Duration(cfg.Session.RealityCheckMinutes) * time.Minute,
	})
	return ctrl, client, nil
}
