package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/config"
)

// configLocateRunE prints where jpro looks for its configuration.
func configLocateRunE(cfgProvider ConfigProvider, out io.Writer) error {
	configDir, err := cfgProvider.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("error ensuring config directory: %w", err)
	}

	fmt.Fprintf(out, "Configuration directory: %s\n", configDir)
	fmt.Fprintln(out, "Expected configuration files:")
	fmt.Fprintf(out, "- %s\n", filepath.Join(configDir, config.DefaultConfigFileName))
	fmt.Fprintf(out, "- %s\n", filepath.Join(configDir, config.DefaultOAuthFileName))
	return nil
}

func newConfigLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Locate jpro configuration files",
		Long: `Displays the paths to the configuration files being used by jpro.
Set JIRAPRO_CONFIG_DIR to use another directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configLocateRunE(&DefaultConfigProvider{}, cmd.OutOrStdout())
		},
	}
}
