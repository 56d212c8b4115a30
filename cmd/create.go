package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// createdIssue picks the fields of a create response worth showing as text.
type createdIssue struct {
	Key  string `json:"key"`
	Self string `json:"self"`
}

// createRequest carries the inputs of one create invocation.
type createRequest struct {
	instance    string
	data        string
	pending     io.Reader
	interactive bool
	confirm     io.Reader
}

// confirmInteractively asks the user to confirm the payload when interactive mode is on.
// Returns true if the user confirms, false if the user aborts.
func confirmInteractively(out io.Writer, in io.Reader, instance, data string) (bool, error) {
	fmt.Fprintln(out, "\n--- Issue Payload ---")
	fmt.Fprintf(out, "Instance: %s\n", instance)
	fmt.Fprintln(out, data)
	fmt.Fprintln(out, "---------------------")
	fmt.Fprint(out, "Create this issue? [y/N]: ")

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		Log.Error().Err(err).Msg("Failed to read user input for confirmation")
		return false, err
	}
	cleaned := strings.ToLower(strings.TrimSpace(input))
	if cleaned != "y" && cleaned != "yes" {
		Log.Info().Msg("User aborted issue creation.")
		fmt.Fprintln(out, "Aborted.")
		return false, nil
	}
	return true, nil
}

// createRunE submits the payload and prints Jira's answer.
func createRunE(ctx context.Context, issues IssueService, out, errOut io.Writer, format string, req createRequest) error {
	if req.interactive {
		if req.data == "" {
			return fmt.Errorf("--interactive needs the payload in --data, stdin is used for the confirmation")
		}
		proceed, err := confirmInteractively(errOut, req.confirm, req.instance, req.data)
		if err != nil || !proceed {
			return err
		}
	}

	pending := req.pending
	if req.data != "" {
		pending = nil
	}
	body, err := issues.CreateIssue(ctx, req.instance, req.data, pending)
	if err != nil {
		Log.Error().Err(err).Str("instance", req.instance).Msg("Failed to create Jira issue")
		printErrorHint(errOut, err)
		return err
	}

	var created createdIssue
	if json.Unmarshal(body, &created) == nil && created.Key != "" {
		Log.Info().Str("issue_key", created.Key).Str("issue_url", created.Self).Msg("Successfully created Jira issue")
	} else {
		// Jira's status is not interpreted; a body without a key is usually an error report.
		Log.Warn().Str("instance", req.instance).Msg("Jira response does not name a created issue")
	}

	return writeRaw(out, format, body, func(w io.Writer) error {
		if created.Key == "" {
			fmt.Fprintln(w, string(body))
			return nil
		}
		fmt.Fprintf(w, "Successfully created Jira issue:\nKey: %s\nURL: %s\n", created.Key, created.Self)
		return nil
	})
}

func newCreateCmd() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create <instance>",
		Short: "Create a Jira issue from a JSON payload",
		Long: `Creates an issue on a configured Jira instance. The payload is the body of Jira's
create-issue call ({"fields": {...}}) and must name fields.project.key and fields.issuetype.id.
It is taken from --data, or read from stdin with line breaks removed.

fields.reporter must not be set: when the instance uses basic authentication, the reporter is
set to --user if the issue type's create screen has a reporter field.`,
		Example: `  jpro create corp --data '{"fields":{"project":{"key":"DEMO"},"issuetype":{"id":"10001"},"summary":"Broken link"}}'
  jpro create corp < issue.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			data, _ := cmd.Flags().GetString("data")
			interactive, _ := cmd.Flags().GetBool("interactive")
			return createRunE(commandContext(cmd), provider.Issues, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFormat(cmd), createRequest{
				instance:    args[0],
				data:        data,
				pending:     cmd.InOrStdin(),
				interactive: interactive,
				confirm:     cmd.InOrStdin(),
			})
		},
	}
	createCmd.Flags().StringP("data", "d", "", "Issue payload as JSON (default: read from stdin)")
	createCmd.Flags().BoolP("interactive", "i", false, "Show the payload and ask for confirmation before creating the issue")
	return createCmd
}
