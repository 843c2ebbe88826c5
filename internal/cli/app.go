// Package cli holds the envctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/apiclient"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/auth"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/config"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/environment"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/querycache"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
)

// App is everything a command needs for one invocation.
type App struct {
	Session *environment.Session
	Tokens  *auth.FileStore
}

// NewApp opens the token file and wires a session against the dashboard API.
func NewApp(cfg *config.ClientConfig, nav environment.Navigator, l *slog.Logger) (*App, error) {
	tokens, err := auth.OpenFileStore(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	client, err := apiclient.New(cfg.APIURL, tokens)
	if err != nil {
		return nil, err
	}
	session := environment.NewSession(
		client,
		tokens,
		nav,
		querycache.New(cfg.QueryCacheTTL),
		environment.WithLogger(l),
		environment.WithDefaultRoute(cfg.DefaultRoute),
	)
	return &App{Session: session, Tokens: tokens}, nil
}

// RootCommand builds the envctl command tree. Flags override cfg.
func RootCommand(cfg *config.ClientConfig) *cobra.Command {
	var app *App

	rootCmd := &cobra.Command{
		Use:           "envctl",
		Short:         "Inspect and switch dashboard environments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "dashboard API base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "file holding the access token")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		l := logger.NewWriter(cmd.ErrOrStderr(), "envctl", cfg.LogLevel, "text")
		nav := printNavigator(cmd.ErrOrStderr())
		var err error
		app, err = NewApp(cfg, nav, l)
		return err
	}

	rootCmd.AddCommand(EnvironmentsCommand(func() *App { return app }))
	return rootCmd
}

// printNavigator stands in for client-side routing: a CLI has no page to
// move to, so it reports the landing route.
func printNavigator(w io.Writer) environment.Navigator {
	return environment.NavigatorFunc(func(_ context.Context, route string) error {
		_, err := fmt.Fprintf(w, "navigated to %s\n", route)
		return err
	})
}
