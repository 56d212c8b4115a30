package cmd

import (
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jpro configuration",
		Long: `Provides commands to initialize, show and locate the jpro configuration files
(config.yaml and oauth.yaml), and to store secrets in the OS keychain.`,
	}
	configCmd.AddCommand(newConfigInitCmd(), newConfigLocateCmd(), newConfigShowCmd(), newConfigSetSecretCmd())
	return configCmd
}
