package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/config"
)

// secretStatus describes whether the secret under key can be read, without revealing it.
func secretStatus(kc KeyringClient, key string) string {
	_, err := kc.Get(key)
	switch {
	case err == nil:
		return "Set"
	case errors.Is(err, config.ErrSecretNotFound):
		return fmt.Sprintf("Not Set (use 'jpro config set-secret' for key '%s')", key)
	default:
		return fmt.Sprintf("Status Unknown (error checking keychain/env: %v)", err)
	}
}

// configShowRunE prints the loaded configuration with secret status in place of secrets.
func configShowRunE(cfgProvider ConfigProvider, keyringClient KeyringClient, writer io.Writer) error {
	cfg, err := cfgProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	oauthCfgs, err := cfgProvider.LoadOAuthConfigs()
	if err != nil {
		return fmt.Errorf("error loading oauth records: %w", err)
	}

	fmt.Fprintln(writer, "Current jpro Configuration:")
	fmt.Fprintln(writer, "  Jira instances:")
	if len(cfg.Servers) == 0 {
		fmt.Fprintln(writer, "    (none)")
	}
	for _, s := range cfg.Servers {
		fmt.Fprintf(writer, "    %s: %s\n", s.ID, s.URL)
		switch {
		case s.Auth == nil:
			fmt.Fprintln(writer, "      Auth:     anonymous")
		case s.Auth.Type == config.AuthTypeBasic:
			fmt.Fprintf(writer, "      Auth:     basic (%s)\n", s.Auth.Username)
			fmt.Fprintf(writer, "      Password: %s\n", secretStatus(keyringClient, config.BasicSecretKey(s)))
		case s.Auth.Type == config.AuthTypeOAuth:
			if rec, ok := oauthCfgs.Lookup(s.ID); ok {
				fmt.Fprintf(writer, "      Auth:     oauth (client %s, required: %t)\n", rec.OIDCConfigName, rec.RequireAuthentication)
			} else {
				fmt.Fprintf(writer, "      Auth:     oauth (no record in %s)\n", config.DefaultOAuthFileName)
			}
		default:
			fmt.Fprintf(writer, "      Auth:     %s (unknown scheme)\n", s.Auth.Type)
		}
	}

	fmt.Fprintln(writer, "  OIDC clients:")
	if len(cfg.OIDCClients) == 0 {
		fmt.Fprintln(writer, "    (none)")
	}
	for _, c := range cfg.OIDCClients {
		fmt.Fprintf(writer, "    %s: client %s\n", c.Name, c.ClientID)
		fmt.Fprintf(writer, "      Token URL: %s\n", c.TokenURL)
		if c.ClientSecret != "" {
			fmt.Fprintln(writer, "      Secret:    Set (in config.yaml)")
		} else {
			fmt.Fprintf(writer, "      Secret:    %s\n", secretStatus(keyringClient, config.OIDCSecretKey(c.Name)))
		}
	}

	timeout := "transport default"
	if cfg.HTTP.Timeout > 0 {
		timeout = cfg.HTTP.Timeout.String()
	}
	fmt.Fprintf(writer, "  HTTP Timeout:   %s\n", timeout)
	fmt.Fprintf(writer, "  Serve Address:  %s\n", cfg.Serve.Addr)
	fmt.Fprintf(writer, "  Public URL:     %s\n", cfg.Serve.PublicURL)
	fmt.Fprintf(writer, "  User Header:    %s\n", cfg.Serve.UserHeader)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current jpro configuration",
		Long: `Displays the currently loaded configuration values from config files and
environment variables. Secrets are never printed, only whether they are set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configShowRunE(&DefaultConfigProvider{}, defaultKeyringClient{}, cmd.OutOrStdout())
		},
	}
}
