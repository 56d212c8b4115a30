package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the OS keychain service under which jpro stores secrets.
	KeyringService = "jirapro"
	// EnvSecretPrefix prefixes the environment variables consulted when a secret is not in the keychain.
	EnvSecretPrefix = "JIRAPRO_SECRET_"
)

// SecretEnvVar returns the environment variable name consulted for key,
// e.g. "basic:corp" -> "JIRAPRO_SECRET_BASIC_CORP".
func SecretEnvVar(key string) string {
	var b strings.Builder
	b.WriteString(EnvSecretPrefix)
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// GetSecret retrieves a secret stored under key.
// It first tries the OS keychain using service "jirapro", then the JIRAPRO_SECRET_<KEY> environment variable.
// If not found in either, it returns ErrSecretNotFound.
func GetSecret(key string) (string, error) {
	log.Debug().Str("service", KeyringService).Str("user", key).Msg("Attempting to get secret from keychain")
	secret, err := keyring.Get(KeyringService, key)
	if err == nil {
		log.Debug().Str("user", key).Msg("Secret retrieved successfully (from keychain)")
		return secret, nil
	}

	if !errors.Is(err, keyring.ErrNotFound) {
		log.Error().Err(err).Str("service", KeyringService).Str("user", key).Msg("Error reading secret from keychain")
		return "", fmt.Errorf("%w: %w", ErrKeyringGet, err)
	}

	envVar := SecretEnvVar(key)
	log.Debug().Str("user", key).Str("env_var", envVar).Msg("Secret not found in keychain, checking environment variable")
	secret = os.Getenv(envVar)
	if secret != "" {
		log.Debug().Str("user", key).Msg("Secret retrieved successfully (from env var)")
		return secret, nil
	}

	log.Warn().Str("user", key).Str("env_var", envVar).Msg("Secret not found in keychain or environment")
	return "", fmt.Errorf("%w: %s (keychain or %s)", ErrSecretNotFound, key, envVar)
}

// SetSecret stores secret under key in the OS keychain.
func SetSecret(key, secret string) error {
	log.Debug().Str("service", KeyringService).Str("user", key).Msg("Attempting to set secret in keychain")
	if err := keyring.Set(KeyringService, key, secret); err != nil {
		log.Error().Err(err).Str("service", KeyringService).Str("user", key).Msg("Failed to set secret in keychain")
		return fmt.Errorf("%w: %w", ErrKeyringSet, err)
	}
	log.Info().Str("service", KeyringService).Str("user", key).Msg("Secret stored successfully in keychain")
	return nil
}

// BasicSecretKey is the keychain key holding the password of a basic-auth server.
func BasicSecretKey(s ServerConfig) string {
	if s.Auth != nil && s.Auth.Secret != "" {
		return s.Auth.Secret
	}
	return "basic:" + s.ID
}

// OIDCSecretKey is the keychain key holding the client secret of an OIDC client.
func OIDCSecretKey(name string) string {
	return "oidc:" + name
}
