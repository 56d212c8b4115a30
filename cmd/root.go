package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/auth"
)

// version is set during build time (e.g., via ldflags)
// Default is "dev" for local development.
var version = "dev"

// Log is the globally configured zerolog logger instance used throughout the cmd package.
// It's initialized in the root command's PersistentPreRunE based on the --log-level flag.
var Log zerolog.Logger

// configureLogger sets up the global zerolog logger based on the logLevel flag.
func configureLogger(levelStr string) error {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		log.Warn().Msgf("Invalid log level '%s', defaulting to 'info'", levelStr)
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	Log = log.Logger.With().Timestamp().Logger()

	Log.Debug().Msgf("Log level set to '%s'", level.String())
	return nil
}

// persistentPreRunLogic handles --version and configures logging before any subcommand runs.
func persistentPreRunLogic(cmd *cobra.Command, args []string) error {
	showVersion, _ := cmd.Flags().GetBool("version")
	if showVersion {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		os.Exit(0)
	}
	lvl, _ := cmd.Flags().GetString("log-level")
	return configureLogger(lvl)
}

// commandContext returns the command's context carrying the --user identity.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	user, _ := cmd.Flags().GetString("user")
	return auth.WithUser(ctx, user)
}

// Execute is the main entry point for the Cobra CLI application.
// It builds the command tree, runs it, and exits non-zero when the command fails.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Ensure logger is initialized even if PersistentPreRunE failed early
		if Log.GetLevel() == zerolog.Disabled {
			_ = configureLogger("info")
		}
		Log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}

// NewRootCmd creates a fresh command tree. Each call returns independent commands and flags,
// so tests and embedders can execute it repeatedly.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jpro",
		Short: "jpro - Jira issue creation and OAuth access for wiki pages",
		Long: `jpro (Jira Pro connector) creates Jira issues on configured Jira instances,
suggests projects, issue types and users for issue-creation forms, and manages the
OAuth authorization that gates Jira content embedded in wiki pages.

Run 'jpro serve' to expose the same operations over HTTP for the wiki.`,
		PersistentPreRunE: persistentPreRunLogic,
		SilenceUsage:      true,
	}

	root.PersistentFlags().String("log-level", "info", "Set log level (debug, info, warn, error, fatal, panic)")
	root.PersistentFlags().Bool("version", false, "Show application version")
	root.PersistentFlags().StringP("output", "o", "text", "Output format (text|json|yaml|tsv)")
	root.PersistentFlags().String("user", os.Getenv("USER"), "Wiki user the command acts for (reporter and OAuth token owner)")

	root.AddCommand(
		newInstancesCmd(),
		newAuthenticatorCmd(),
		newSuggestCmd(),
		newFieldsCmd(),
		newCreateCmd(),
		newNoticeCmd(),
		newAuthCmd(),
		newServeCmd(),
		newConfigCmd(),
		newCompletionCmd(),
	)
	return root
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(jpro completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ jpro completion bash > /etc/bash_completion.d/jpro
  # macOS:
  $ jpro completion bash > /usr/local/etc/bash_completion.d/jpro

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ jpro completion zsh > "${fpath[1]}/_jpro"

Fish:
  $ jpro completion fish | source

  # To load completions for each session, execute once:
  $ jpro completion fish > ~/.config/fish/completions/jpro.fish

PowerShell:
  PS> jpro completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell type %q", args[0])
			}
		},
	}
}
