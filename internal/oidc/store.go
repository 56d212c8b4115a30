package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	"github.com/karolswdev/jirapro/internal/auth"
)

// TokenStore persists OAuth tokens per client configuration and caller.
type TokenStore interface {
	Token(ctx context.Context, configName string) (*oauth2.Token, error)
	SetToken(ctx context.Context, configName string, tok *oauth2.Token) error
	Delete(ctx context.Context, configName string) error
}

// KeyringService is the keychain service tokens are stored under.
const KeyringService = "jirapro-oauth"

// KeyringTokenStore keeps tokens in the OS keychain as JSON.
type KeyringTokenStore struct{}

// tokenKey scopes a configuration to the current caller when one is known.
func tokenKey(ctx context.Context, configName string) string {
	if user, ok := auth.UserFrom(ctx); ok {
		return configName + "/" + user
	}
	return configName
}

func (KeyringTokenStore) Token(ctx context.Context, configName string) (*oauth2.Token, error) {
	key := tokenKey(ctx, configName)
	raw, err := keyring.Get(KeyringService, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, key)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenStore, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrTokenStore, key, err)
	}
	return &tok, nil
}

func (KeyringTokenStore) SetToken(ctx context.Context, configName string, tok *oauth2.Token) error {
	key := tokenKey(ctx, configName)
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrTokenStore, key, err)
	}
	if err := keyring.Set(KeyringService, key, string(raw)); err != nil {
		return fmt.Errorf("%w: %w", ErrTokenStore, err)
	}
	log.Debug().Str("service", KeyringService).Str("user", key).Msg("Stored OAuth token")
	return nil
}

func (KeyringTokenStore) Delete(ctx context.Context, configName string) error {
	key := tokenKey(ctx, configName)
	if err := keyring.Delete(KeyringService, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrTokenNotFound, key)
		}
		return fmt.Errorf("%w: %w", ErrTokenStore, err)
	}
	log.Info().Str("service", KeyringService).Str("user", key).Msg("Deleted OAuth token")
	return nil
}
