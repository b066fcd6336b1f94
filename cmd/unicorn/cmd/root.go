// Package cmd contains all CLI commands for unicorn.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devprozorov/unicorn/client"
	"github.com/devprozorov/unicorn/credstore/file"
	"github.com/devprozorov/unicorn/internal/config"
)

var (
	cfgFile string
	verbose bool
	apiURL  string
	cfg     *config.Config
	logger  *slog.Logger
	api     *client.Client
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "unicorn",
	Short: "Unicorn job marketplace CLI",
	Long: `unicorn talks to the Unicorn job-marketplace API from the terminal.

The access token is kept in a local file shared between invocations,
so logging in once is enough until the session expires.

Example usage:
  unicorn login alice          # Log in, prompting for the password
  unicorn whoami               # Show the current identity
  unicorn vacancies go remote  # List vacancies tagged go and remote
  unicorn resumes              # List your resumes`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/unicorn/.unicorn.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides config)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if !cfg.Output.Colors {
		color.NoColor = true
	}

	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case cfg.Logging.Level == "debug":
		level = slog.LevelDebug
	case cfg.Logging.Level == "info":
		level = slog.LevelInfo
	case cfg.Logging.Level == "error":
		level = slog.LevelError
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	api, err = client.New(cfg.API.BaseURL,
		client.WithLogger(logger),
		client.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		client.WithCredentialStore(file.New(cfg.Token.Path)),
		client.WithUserAgent("unicorn-cli/"+version),
		client.WithSessionExpiredHook(func() {
			color.Yellow("Session expired; run 'unicorn login' to sign in again.")
		}),
	)
	return err
}

// requireAuth restores the session from the token file or the refresh
// cookie and fails when neither yields a login.
func requireAuth(ctx context.Context) error {
	api.Bootstrap(ctx)
	if !api.Session().IsAuthenticated() {
		return fmt.Errorf("not logged in; run 'unicorn login'")
	}
	return nil
}
