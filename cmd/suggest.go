package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/issuecreate"
)

// suggestFunc fetches one kind of suggestion list.
type suggestFunc func(ctx context.Context, issues IssueService) ([]issuecreate.Suggestion, error)

// suggestRunE runs fetch and prints its result.
func suggestRunE(ctx context.Context, issues IssueService, out, errOut io.Writer, format string, fetch suggestFunc) error {
	res, err := fetch(ctx, issues)
	if err != nil {
		Log.Error().Err(err).Msg("Failed to fetch suggestions")
		printErrorHint(errOut, err)
		return err
	}
	Log.Debug().Int("count", len(res)).Msg("Fetched suggestions")
	return writeSuggestions(out, format, res)
}

// newSuggestSubCmd builds a suggest subcommand; build turns the positional args and --text into a fetch.
func newSuggestSubCmd(use, short string, args cobra.PositionalArgs, build func(args []string, text string) suggestFunc) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			text, _ := cmd.Flags().GetString("text")
			return suggestRunE(commandContext(cmd), provider.Issues, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFormat(cmd), build(args, text))
		},
	}
	c.Flags().StringP("text", "t", "", "Text the suggestions are matched against")
	return c
}

func newSuggestCmd() *cobra.Command {
	suggestCmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest values for issue-creation fields",
		Long: `Fetches projects, issue types or users from a Jira instance and prints them as
label/value suggestions. Project and user lists are limited to 20 entries.`,
	}

	suggestCmd.AddCommand(
		newSuggestSubCmd("project <instance>", "Suggest projects", cobra.ExactArgs(1),
			func(args []string, text string) suggestFunc {
				return func(ctx context.Context, issues IssueService) ([]issuecreate.Suggestion, error) {
					return issues.SuggestProject(ctx, args[0], text)
				}
			}),
		newSuggestSubCmd("issue-type <instance> <project>", "Suggest every issue type of a project except subtasks", cobra.ExactArgs(2),
			func(args []string, text string) suggestFunc {
				return func(ctx context.Context, issues IssueService) ([]issuecreate.Suggestion, error) {
					return issues.SuggestIssueType(ctx, args[0], args[1], text)
				}
			}),
		newSuggestSubCmd("assignable <instance> <project>", "Suggest users assignable in a project", cobra.ExactArgs(2),
			func(args []string, text string) suggestFunc {
				return func(ctx context.Context, issues IssueService) ([]issuecreate.Suggestion, error) {
					return issues.SuggestAssignableUser(ctx, args[0], args[1], text)
				}
			}),
		newSuggestSubCmd("user <instance>", "Suggest users", cobra.ExactArgs(1),
			func(args []string, text string) suggestFunc {
				return func(ctx context.Context, issues IssueService) ([]issuecreate.Suggestion, error) {
					return issues.SuggestUser(ctx, args[0], text)
				}
			}),
	)
	return suggestCmd
}

// fieldsRunE prints the create-screen field metadata of a project and issue type.
func fieldsRunE(ctx context.Context, issues IssueService, out, errOut io.Writer, format, instance, project, issueType string) error {
	body, err := issues.FieldsMetadata(ctx, instance, project, issueType)
	if err != nil {
		Log.Error().Err(err).Str("instance", instance).Msg("Failed to fetch field metadata")
		printErrorHint(errOut, err)
		return err
	}
	return writeRaw(out, format, body, func(w io.Writer) error {
		fields, err := issuecreate.FieldList(body)
		if err != nil {
			fmt.Fprintln(w, string(body))
			return nil
		}
		for _, f := range fields {
			marker := ""
			if f.Required {
				marker = " (required)"
			}
			fmt.Fprintf(w, "- %s: %s%s\n", f.ID, f.Name, marker)
		}
		return nil
	})
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <instance> <project> <issue-type-id>",
		Short: "Show the fields of an issue type's create screen",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			return fieldsRunE(commandContext(cmd), provider.Issues, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFormat(cmd), args[0], args[1], args[2])
		},
	}
}
