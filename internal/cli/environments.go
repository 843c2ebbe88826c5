package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/auth"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/environment"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

// EnvironmentsCommand creates the environments parent command. app is called
// after the root pre-run has built the App.
func EnvironmentsCommand(app func() *App) *cobra.Command {
	envCmd := &cobra.Command{
		Use:     "environments",
		Aliases: []string{"env"},
		Short:   "Commands for the environments of the signed-in identity",
	}

	envCmd.AddCommand(
		listCommand(app),
		currentCommand(app),
		switchCommand(app),
		refetchCommand(app),
	)
	return envCmd
}

func listCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the environments available to the active token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app().Session
			if err := s.LoadAvailableEnvironments(cmd.Context()); err != nil {
				return err
			}
			// The marker is best effort; list still works with a token the
			// current endpoint rejects.
			_ = s.LoadCurrentEnvironment(cmd.Context())
			return printEnvironments(cmd.OutOrStdout(), s.Environments(), s.Environment())
		},
	}
}

func currentCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the environment bound to the active token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.Session.LoadCurrentEnvironment(cmd.Context()); err != nil {
				return err
			}
			printCurrent(cmd.OutOrStdout(), a.Session)

			if claims, err := auth.Inspect(a.Tokens.Token()); err == nil && claims.ExpiresAt != nil {
				state := "valid"
				if claims.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "token:    %s until %s\n", state, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func switchCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Exchange the active token for one scoped to another environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app().Session
			if err := s.LoadAvailableEnvironments(cmd.Context()); err != nil {
				return err
			}

			outcome := s.SwitchEnvironment(cmd.Context(), args[0])
			if outcome != environment.SwitchCompleted {
				return fmt.Errorf("switch to %q: %s", args[0], outcome)
			}

			if err := s.LoadCurrentEnvironment(cmd.Context()); err != nil {
				return err
			}
			printCurrent(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func refetchCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refetch",
		Short: "Reload the current environment, bypassing cached reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app().Session
			if err := s.RefetchCurrentEnvironment(cmd.Context()); err != nil {
				return err
			}
			printCurrent(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func printEnvironments(w io.Writer, envs map[string]models.Environment, current *models.Environment) error {
	names := make([]string, 0, len(envs))
	for name := range envs {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tNAME\tID\tIDENTIFIER\tREADONLY")
	for _, name := range names {
		env := envs[name]
		marker := ""
		if current != nil && current.ID == env.ID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", marker, env.Name, env.ID, env.Identifier, env.Derived())
	}
	return tw.Flush()
}

func printCurrent(w io.Writer, s *environment.Session) {
	env := s.Environment()
	if env == nil {
		fmt.Fprintln(w, "no current environment")
		return
	}
	fmt.Fprintf(w, "name:     %s\n", env.Name)
	fmt.Fprintf(w, "id:       %s\n", env.ID)
	fmt.Fprintf(w, "readonly: %t\n", s.Readonly())
}
