// cmd/contentdesk/main.go
//
// Entry point for the contentdesk terminal client.
//
// Flow:
// 1. Load .env (if any) so CONTENTDESK_* overrides apply
// 2. Initialize the .contentdesk workspace folder and read config.yaml
// 3. Open the diagnostics log, build the API client, launch the TUI

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kingrea/contentdesk/internal/apiclient"
	"github.com/kingrea/contentdesk/internal/config"
	"github.com/kingrea/contentdesk/internal/logging"
	"github.com/kingrea/contentdesk/internal/session"
	"github.com/kingrea/contentdesk/internal/tui"
)

var version = "dev"

type rootOptions struct {
	dir      string
	apiURL   string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "contentdesk",
		Short: "Terminal client for the content generation service",
		Long: `contentdesk signs in to the content service, runs the four-stage
generation pipeline for a topic, and manages approval, scheduling and the
posting queue from a single terminal UI.

Settings live in .contentdesk/config.yaml under the working directory and
can be overridden with CONTENTDESK_API_URL and CONTENTDESK_LOG_LEVEL.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "", "workspace directory holding .contentdesk (default: current directory)")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "content service base URL (saved to config.yaml)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "diagnostics log level: debug, info, warn or error")
	return cmd
}

func run(opts *rootOptions) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	dir := opts.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		dir = cwd
	}

	if err := config.InitDir(dir); err != nil {
		return fmt.Errorf("initializing .contentdesk directory: %w", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.apiURL != "" {
		if err := cfg.SetBaseURL(opts.apiURL); err != nil {
			return err
		}
	}
	if opts.logLevel != "" {
		if err := cfg.SetLogLevel(opts.logLevel); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.LogsDir(), cfg.LogLevel())
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.Info("contentdesk starting", "version", version, "base_url", cfg.BaseURL(), "workspace", dir)

	sess := session.New()
	client := apiclient.New(cfg.BaseURL(), sess,
		apiclient.WithTimeout(cfg.Timeout()),
		apiclient.WithLogger(logger.Logger),
	)

	app, err := tui.NewApp(cfg, sess, client, tui.WithLogger(logger.Logger))
	if err != nil {
		return fmt.Errorf("starting TUI: %w", err)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	logger.Info("contentdesk exited")
	return nil
}
