package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// OAuth sends the caller's bearer token, obtained for an OIDC client configuration.
// Without a token the request goes out unauthenticated.
type OAuth struct {
	ConfigName string
	Required   bool
	Tokens     TokenSource
}

func (o *OAuth) Authenticate(ctx context.Context, req *http.Request) error {
	if token, ok := o.Tokens.Token(ctx, o.ConfigName); ok {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
	log.Debug().Str("oidc_config", o.ConfigName).Msg("No OAuth token available, sending request unauthenticated")
	return nil
}

// IsAuthenticating reports whether a token is currently available for the caller.
func (o *OAuth) IsAuthenticating(ctx context.Context) bool {
	_, ok := o.Tokens.Token(ctx, o.ConfigName)
	return ok
}

// ID is the OIDC client configuration name.
func (o *OAuth) ID() string {
	return o.ConfigName
}

func (o *OAuth) Scheme() string {
	return SchemeOAuth
}

// RequiresAuthentication reports whether content must be hidden from callers without a token.
func (o *OAuth) RequiresAuthentication() bool {
	return o.Required
}
