package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/config"
)

// secretKeyFor maps a server id or OIDC client name to the keychain key its secret lives under.
// Unknown names are used as the key itself.
func secretKeyFor(cfg *config.AppConfig, name string) string {
	if cfg != nil {
		for _, s := range cfg.Servers {
			if s.ID == name {
				return config.BasicSecretKey(s)
			}
		}
		for _, c := range cfg.OIDCClients {
			if c.Name == name {
				return config.OIDCSecretKey(c.Name)
			}
		}
	}
	return name
}

// configSetSecretRun stores secret under key in the keychain.
func configSetSecretRun(kc KeyringClient, writer io.Writer, key, secret string) error {
	if key == "" {
		return errors.New("secret key cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	log.Info().Msgf("Attempting to store secret '%s' in keychain for service '%s'...", key, config.KeyringService)
	if err := kc.Set(key, secret); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to store secret in keychain")
		return fmt.Errorf("failed to store secret in keychain: %w", err)
	}

	fmt.Fprintf(writer, "Secret '%s' stored successfully.\n", key)
	return nil
}

func newConfigSetSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret <server-id|oidc-client> [secret]",
		Short: "Store a password or client secret in the OS keychain",
		Long: `Stores the basic-auth password of a server, or the client secret of an OIDC client,
in the operating system's keychain under the service 'jirapro'.
When the secret is not given as an argument it is read from stdin.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgProvider := &DefaultConfigProvider{}
			appCfg, err := cfgProvider.LoadConfig()
			if err != nil {
				// The raw name still works as a key; a broken config must not block storing secrets.
				log.Warn().Err(err).Msg("Could not load config.yaml, using the name as keychain key")
			}

			var secret string
			if len(args) == 2 {
				secret = args[1]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "Secret: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("failed to read secret: %w", err)
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			return configSetSecretRun(defaultKeyringClient{}, cmd.OutOrStdout(), secretKeyFor(appCfg, args[0]), secret)
		},
	}
}
