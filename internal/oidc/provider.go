package oidc

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// TokenProvider resolves the bearer token for a client configuration, renewing it first.
// Every failure degrades to "no token" so callers proceed unauthenticated.
type TokenProvider struct {
	Configs ConfigurationStore
	Manager *ClientManager
	Store   TokenStore
}

// Token returns the access token for configName, or false when none is available.
func (p *TokenProvider) Token(ctx context.Context, configName string) (string, bool) {
	cfg, err := p.Configs.Configuration(configName)
	if err != nil {
		log.Error().Err(err).Str("oidc_config", configName).Msg("Can't get OAuth token")
		return "", false
	}

	job, err := p.Manager.Renew(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("oidc_config", configName).Msg("Can't get OAuth token")
		return "", false
	}
	if job != nil {
		if err := job.Join(ctx); err != nil {
			if errors.Is(err, ErrRenewalInterrupted) {
				log.Error().Err(err).Str("oidc_config", configName).Msg("Can't get renewal job")
				return "", false
			}
			// A failed refresh leaves the stored token in place.
			log.Debug().Err(err).Str("oidc_config", configName).Msg("Renewal job finished with an error")
		}
	}

	tok, err := p.Store.Token(ctx, configName)
	if err != nil {
		log.Debug().Err(err).Str("oidc_config", configName).Msg("No OAuth token available")
		return "", false
	}
	if tok.AccessToken == "" {
		return "", false
	}
	return tok.AccessToken, true
}
