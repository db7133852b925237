package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/internal/config"
	"github.com/dfryer1193/journal/shared/oauth"
	"github.com/spf13/cobra"
)

func terminalPrompter(cmd *cobra.Command) oauth.TerminalPrompter {
	return oauth.TerminalPrompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
}

func printStatus(cmd *cobra.Command, a *app) {
	name := "none"
	if r := a.sync.Remote(); r != nil {
		name = r.Name()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, a.sync.RemoteStatus(cmd.Context()))
}

func newRemoteCmd(cfg func() config.Config) *cobra.Command {
	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the remote copy of the posts",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the remote status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				printStatus(cmd, a)
				return nil
			})
		},
	}

	signInCmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				if err := a.sync.SignIn(cmd.Context()); err != nil {
					return err
				}
				printStatus(cmd, a)
				return nil
			})
		},
	}

	signOutCmd := &cobra.Command{
		Use:   "signout",
		Short: "Sign out of the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				if err := a.sync.SignOut(cmd.Context()); err != nil {
					return err
				}
				printStatus(cmd, a)
				return nil
			})
		},
	}

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Retry connecting to the remote and show the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				a.sync.TestRemote(cmd.Context())
				printStatus(cmd, a)
				return nil
			})
		},
	}

	remoteCmd.AddCommand(statusCmd, signInCmd, signOutCmd, testCmd, newCredentialsCmd(cfg))
	return remoteCmd
}

func newCredentialsCmd(cfg func() config.Config) *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "credentials <drive|firestore|gist>",
		Short: "Show or save a remote's credentials",
		Long: `Show the credentials saved for a remote, or save new ones with --set.

--set takes a JSON file, or "-" for stdin:
  drive      {"clientId": "...", "apiKey": "...", "clientSecret": "..."}
  firestore  {"apiKey": "...", "authDomain": "...", "projectId": "...",
              "storageBucket": "...", "messagingSenderId": "...", "appId": "..."}
  gist       {"token": "..."}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				r, ok := a.remotes[args[0]]
				if !ok {
					names := make([]string, 0, len(a.remotes))
					for name := range a.remotes {
						names = append(names, name)
					}
					sort.Strings(names)
					return fmt.Errorf("%w: remote %q, expected one of %v", domain.ErrNotFound, args[0], names)
				}

				if set == "" {
					raw, found, err := r.Credentials(cmd.Context())
					if err != nil {
						return err
					}
					if !found {
						return fmt.Errorf("%w: no credentials saved for %s", domain.ErrNotFound, r.Name())
					}
					return writeJSON(cmd.OutOrStdout(), raw)
				}

				raw, err := readInput(cmd, set)
				if err != nil {
					return err
				}
				if err := r.SetCredentials(cmd.Context(), raw); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials for %s\n", r.Name())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&set, "set", "", `Credentials JSON file to save, "-" for stdin`)
	return cmd
}

func readInput(cmd *cobra.Command, path string) (json.RawMessage, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
