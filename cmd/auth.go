package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/oidc"
)

// authLoginRunE walks the user through the authorization-code flow from the terminal.
// The code is taken from code, or read from in after the authorization URL is shown.
func authLoginRunE(ctx context.Context, svc OAuthService, out, errOut io.Writer, in io.Reader, configName, code string) error {
	if code == "" {
		authURL, err := svc.AuthCodeURL(ctx, configName, uuid.NewString())
		if err != nil {
			printErrorHint(errOut, err)
			return err
		}
		fmt.Fprintln(errOut, "Open the following URL in your browser and authorize jpro:")
		fmt.Fprintln(errOut, authURL)
		fmt.Fprint(errOut, "Paste the authorization code: ")

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		code = strings.TrimSpace(line)
		if code == "" {
			return fmt.Errorf("no authorization code entered")
		}
	}

	if err := svc.Exchange(ctx, configName, code); err != nil {
		Log.Error().Err(err).Str("oidc_config", configName).Msg("Authorization failed")
		printErrorHint(errOut, err)
		return err
	}
	Log.Info().Str("oidc_config", configName).Msg("Authorization stored")
	fmt.Fprintf(out, "Authorized %s.\n", configName)
	return nil
}

// tokenStatus is one line of 'jpro auth status'.
type tokenStatus struct {
	Config     string `json:"config" yaml:"config"`
	Authorized bool   `json:"authorized" yaml:"authorized"`
}

// authStatusRunE reports, per OIDC client, whether a usable token exists. Expired tokens
// are renewed on the way.
func authStatusRunE(ctx context.Context, svc OAuthService, out io.Writer, format string, configNames []string) error {
	statuses := make([]tokenStatus, 0, len(configNames))
	for _, name := range configNames {
		_, ok := svc.Token(ctx, name)
		statuses = append(statuses, tokenStatus{Config: name, Authorized: ok})
	}
	return writeOutput(out, format, statuses, func(w io.Writer) error {
		if len(statuses) == 0 {
			fmt.Fprintln(w, "No OIDC clients configured.")
			return nil
		}
		for _, s := range statuses {
			state := "not authorized (run 'jpro auth login " + s.Config + "')"
			if s.Authorized {
				state = "authorized"
			}
			fmt.Fprintf(w, "%s: %s\n", s.Config, state)
		}
		return nil
	})
}

func authLogoutRunE(ctx context.Context, svc OAuthService, out, errOut io.Writer, configName string) error {
	err := svc.Logout(ctx, configName)
	if errors.Is(err, oidc.ErrTokenNotFound) {
		fmt.Fprintf(out, "No stored token for %s.\n", configName)
		return nil
	}
	if err != nil {
		Log.Error().Err(err).Str("oidc_config", configName).Msg("Failed to remove token")
		printErrorHint(errOut, err)
		return err
	}
	fmt.Fprintf(out, "Removed the stored token for %s.\n", configName)
	return nil
}

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage OAuth authorizations",
		Long: `Authorizes --user against the OIDC clients of config.yaml. Tokens are kept in the
OS keychain and renewed with their refresh token when they expire.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login <oidc-client>",
		Short: "Authorize an OIDC client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			code, _ := cmd.Flags().GetString("code")
			return authLoginRunE(commandContext(cmd), provider.OAuth, cmd.OutOrStdout(), cmd.ErrOrStderr(), cmd.InOrStdin(), args[0], code)
		},
	}
	loginCmd.Flags().String("code", "", "Authorization code obtained out of band")

	statusCmd := &cobra.Command{
		Use:   "status [oidc-client...]",
		Short: "Show which OIDC clients have a usable token",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			names := args
			if len(names) == 0 {
				for _, c := range provider.App.OIDCClients {
					names = append(names, c.Name)
				}
			}
			return authStatusRunE(commandContext(cmd), provider.OAuth, cmd.OutOrStdout(), outputFormat(cmd), names)
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout <oidc-client>",
		Short: "Forget the stored token of an OIDC client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			return authLogoutRunE(commandContext(cmd), provider.OAuth, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}

	authCmd.AddCommand(loginCmd, statusCmd, logoutCmd)
	return authCmd
}
