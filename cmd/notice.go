package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/notice"
)

// noticeRunE prints what happens to a Jira macro rendered for the current user.
func noticeRunE(ctx context.Context, notices NoticeService, out, errOut io.Writer, format string, req notice.Request) error {
	d, err := notices.Decide(ctx, req)
	if err != nil {
		Log.Error().Err(err).Str("instance", req.InstanceID).Msg("Failed to decide macro notice")
		printErrorHint(errOut, err)
		return err
	}
	return writeOutput(out, format, d, func(w io.Writer) error {
		fmt.Fprintf(w, "Action: %s\n", d.Action)
		if d.Notice != nil {
			fmt.Fprintf(w, "Notice: %s\n", d.Notice.Description)
			fmt.Fprintf(w, "%s: %s\n", d.Notice.LinkText, d.Notice.LinkURL)
		}
		return nil
	})
}

func newNoticeCmd() *cobra.Command {
	noticeCmd := &cobra.Command{
		Use:   "notice <instance>",
		Short: "Show the authentication notice a Jira macro would get",
		Long: `Decides how a Jira macro on an OAuth-protected instance is presented to --user:
kept as is, followed by a "you might need to authenticate" notice, or replaced by a
"you must authenticate" notice linking to the authorization (or login) page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			redirect, _ := cmd.Flags().GetString("redirect-url")
			inline, _ := cmd.Flags().GetBool("inline")
			return noticeRunE(commandContext(cmd), provider.Notices, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFormat(cmd), notice.Request{
				InstanceID:  args[0],
				RedirectURL: redirect,
				Inline:      inline,
			})
		},
	}
	noticeCmd.Flags().String("redirect-url", "", "Page the user returns to after authorizing")
	noticeCmd.Flags().Bool("inline", false, "The macro is rendered inline")
	return noticeCmd
}
