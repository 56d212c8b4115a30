package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/config"
)

// configInitRunE creates the configuration directory and default files, then points
// at the two files the user is expected to edit.
func configInitRunE(configProvider ConfigProvider, writer io.Writer) error {
	log.Info().Msg("Initializing configuration...")
	if err := configProvider.CreateDefaultConfigFiles(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize configuration files")
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	dir, err := configProvider.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	log.Info().Str("dir", dir).Msg("Configuration initialization complete.")
	fmt.Fprintln(writer, "Configuration directory and default files ensured.")
	fmt.Fprintf(writer, "Add Jira instances and OIDC clients to %s\n", filepath.Join(dir, config.DefaultConfigFileName))
	fmt.Fprintf(writer, "Add OAuth records per instance to %s\n", filepath.Join(dir, config.DefaultOAuthFileName))
	return nil
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize jpro configuration",
		Long: `Creates the default configuration directory and files if they don't exist.
Existing files are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configInitRunE(&DefaultConfigProvider{}, cmd.OutOrStdout())
		},
	}
}
