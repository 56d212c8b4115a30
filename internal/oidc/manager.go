package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Job is a token renewal running in the background.
type Job struct {
	done chan struct{}
	err  error
}

// Join waits for the job to finish. It returns ErrRenewalInterrupted when ctx ends first,
// otherwise the job's own error.
func (j *Job) Join(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrRenewalInterrupted, ctx.Err())
	}
}

// ClientManager renews stored tokens and runs the authorization-code flow.
type ClientManager struct {
	Store TokenStore
	// HTTPClient is used for token endpoint calls. nil means http.DefaultClient.
	HTTPClient *http.Client
}

// NewClientManager returns a manager backed by store.
func NewClientManager(store TokenStore, httpClient *http.Client) *ClientManager {
	return &ClientManager{Store: store, HTTPClient: httpClient}
}

func (m *ClientManager) oauthContext(ctx context.Context) context.Context {
	if m.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.HTTPClient)
}

// Renew starts refreshing the token stored for cfg. It returns a nil job when there is
// nothing to renew: no stored token, a still valid token, or no refresh token.
func (m *ClientManager) Renew(ctx context.Context, cfg *ClientConfiguration) (*Job, error) {
	tok, err := m.Store.Token(ctx, cfg.Name)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if tok.Valid() || tok.RefreshToken == "" {
		return nil, nil
	}

	job := &Job{done: make(chan struct{})}
	// The refresh outlives a cancelled caller so the new token is still stored.
	jobCtx := m.oauthContext(context.WithoutCancel(ctx))
	go func() {
		defer close(job.done)
		log.Debug().Str("oidc_config", cfg.Name).Msg("Renewing OAuth token")
		fresh, err := cfg.OAuth2.TokenSource(jobCtx, tok).Token()
		if err != nil {
			log.Warn().Err(err).Str("oidc_config", cfg.Name).Msg("OAuth token renewal failed")
			job.err = err
			return
		}
		if err := m.Store.SetToken(jobCtx, cfg.Name, fresh); err != nil {
			job.err = err
			return
		}
		log.Info().Str("oidc_config", cfg.Name).Time("expiry", fresh.Expiry).Msg("OAuth token renewed")
	}()
	return job, nil
}

// AuthCodeURL returns the provider URL the caller is sent to for authorization.
func (m *ClientManager) AuthCodeURL(cfg *ClientConfiguration, state string) string {
	return cfg.OAuth2.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and stores it for the current caller.
func (m *ClientManager) Exchange(ctx context.Context, cfg *ClientConfiguration, code string) (*oauth2.Token, error) {
	tok, err := cfg.OAuth2.Exchange(m.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchange, err)
	}
	if err := m.Store.SetToken(ctx, cfg.Name, tok); err != nil {
		return nil, err
	}
	log.Info().Str("oidc_config", cfg.Name).Msg("OAuth authorization completed")
	return tok, nil
}
