package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// instancesRunE lists the configured Jira instances.
func instancesRunE(issues IssueService, out io.Writer, format string) error {
	return writeSuggestions(out, format, issues.SuggestInstance())
}

// authenticatorRunE prints the authentication scheme of one instance, empty for anonymous access.
func authenticatorRunE(issues IssueService, out io.Writer, errOut io.Writer, format, instance string) error {
	id, err := issues.AuthenticatorID(instance)
	if err != nil {
		Log.Error().Err(err).Str("instance", instance).Msg("Failed to resolve authenticator")
		printErrorHint(errOut, err)
		return err
	}
	return writeOutput(out, format, map[string]string{"id": id}, func(w io.Writer) error {
		if id == "" {
			fmt.Fprintf(w, "%s: anonymous\n", instance)
			return nil
		}
		fmt.Fprintf(w, "%s: %s\n", instance, id)
		return nil
	})
}

func newInstancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "List the configured Jira instances",
		Long:  `Lists the Jira instances from config.yaml with their base URL, sorted by id.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			return instancesRunE(provider.Issues, cmd.OutOrStdout(), outputFormat(cmd))
		},
	}
}

func newAuthenticatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authenticator <instance>",
		Short: "Show how jpro authenticates against an instance",
		Long: `Prints the authentication scheme configured for the instance ("basic" or "oauth"),
or "anonymous" when requests are sent without credentials.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			return authenticatorRunE(provider.Issues, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFormat(cmd), args[0])
		},
	}
}
