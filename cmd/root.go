package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/axellelanca/linkforge/internal/app"
	"github.com/axellelanca/linkforge/internal/config"
	"github.com/spf13/cobra"
)

// Cfg holds the configuration loaded before any command runs.
var Cfg *config.Config

// cfgErr keeps the load error so commands can report it themselves.
var cfgErr error

// RootCmd is the base command. Sub-commands register themselves from their
// own init() functions.
var RootCmd = &cobra.Command{
	Use:   "linkforge",
	Short: "A URL shortener service",
	Long: `linkforge maps long URLs to short codes, redirects visitors and
records click analytics. Run the HTTP server with run-server or manage links
directly from the command line.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called from main.go.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	Cfg, cfgErr = config.LoadConfig()
}

// LoadedConfig returns the configuration or the error that prevented loading it.
func LoadedConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	return Cfg, nil
}

// OpenApp builds the application for a one-shot CLI command. Clicks are
// recorded inline and the cache is skipped so the command leaves nothing
// behind when it exits.
func OpenApp(ctx context.Context) (*app.App, error) {
	cfg, err := LoadedConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{SyncClicks: true, NoCache: true})
}
