package oidc

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/karolswdev/jirapro/internal/config"
)

// ClientConfiguration is an OAuth2 client registration ready for use.
type ClientConfiguration struct {
	Name   string
	OAuth2 *oauth2.Config
}

// ConfigurationStore resolves client configurations by name.
type ConfigurationStore interface {
	Configuration(name string) (*ClientConfiguration, error)
}

// AppConfigStore serves client configurations from the oidc_clients section of the app config.
type AppConfigStore struct {
	Config *config.AppConfig
	// Secret resolves a client secret missing from the config file. Defaults to config.GetSecret.
	Secret func(key string) (string, error)
}

// Configuration returns the client configuration called name.
func (s *AppConfigStore) Configuration(name string) (*ClientConfiguration, error) {
	c, err := s.Config.OIDCClient(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownConfiguration, err)
	}

	secret := c.ClientSecret
	if secret == "" {
		lookup := s.Secret
		if lookup == nil {
			lookup = config.GetSecret
		}
		secret, err = lookup(config.OIDCSecretKey(name))
		if err != nil && !errors.Is(err, config.ErrSecretNotFound) {
			return nil, err
		}
		// Public clients have no secret.
	}

	return &ClientConfiguration{
		Name: name,
		OAuth2: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: secret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  c.AuthURL,
				TokenURL: c.TokenURL,
			},
			RedirectURL: c.RedirectURL,
			Scopes:      c.Scopes,
		},
	}, nil
}
