package auth

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/jirapro/internal/config"
)

const (
	SchemeBasic = config.AuthTypeBasic
	SchemeOAuth = config.AuthTypeOAuth
)

// ConfigReader looks up the OAuth record stored for a server.
type ConfigReader interface {
	OAuthConfig(serverID string) (*config.OAuthConfig, error)
}

// Deps are the collaborators factories draw on.
type Deps struct {
	OAuthConfigs ConfigReader
	Tokens       TokenSource
	// Secret resolves a stored secret by key. Defaults to config.GetSecret.
	Secret func(key string) (string, error)
}

// Factory builds the authenticator for one server.
type Factory func(server config.ServerConfig, deps Deps) (Authenticator, error)

// Registry maps scheme names to authenticator factories.
type Registry struct {
	factories map[string]Factory
	deps      Deps
}

// NewRegistry returns a registry with the basic and oauth schemes registered.
func NewRegistry(deps Deps) *Registry {
	if deps.Secret == nil {
		deps.Secret = config.GetSecret
	}
	r := &Registry{factories: map[string]Factory{}, deps: deps}
	r.Register(SchemeBasic, newBasic)
	r.Register(SchemeOAuth, newOAuth)
	return r
}

// Register adds or replaces the factory for scheme.
func (r *Registry) Register(scheme string, f Factory) {
	r.factories[scheme] = f
}

// Schemes lists registered scheme names in sorted order.
func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.factories))
	for s := range r.factories {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Build returns the authenticator configured for server, or nil when the server has none.
func (r *Registry) Build(server config.ServerConfig) (Authenticator, error) {
	if server.Auth == nil || server.Auth.Type == "" {
		return nil, nil
	}
	f, ok := r.factories[server.Auth.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q for server %q", ErrUnknownScheme, server.Auth.Type, server.ID)
	}
	a, err := f(server, r.deps)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("instance", server.ID).Str("scheme", a.Scheme()).Str("id", a.ID()).Msg("Built authenticator")
	return a, nil
}

func newBasic(server config.ServerConfig, deps Deps) (Authenticator, error) {
	if server.Auth.Username == "" {
		return nil, fmt.Errorf("%w: server %q", ErrMissingUsername, server.ID)
	}
	key := config.BasicSecretKey(server)
	password, err := deps.Secret(key)
	if err != nil {
		if !errors.Is(err, config.ErrSecretNotFound) {
			return nil, err
		}
		// Jira answers with its own 401 body, which is relayed to the caller.
		log.Warn().Str("instance", server.ID).Str("secret", key).Msg("No password stored for basic authentication")
	}
	return &Basic{Username: server.Auth.Username, Password: password}, nil
}

func newOAuth(server config.ServerConfig, deps Deps) (Authenticator, error) {
	if deps.OAuthConfigs == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("%w: server %q", ErrOAuthUnavailable, server.ID)
	}
	rec, err := deps.OAuthConfigs.OAuthConfig(server.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoOAuthConfig, err)
	}
	return &OAuth{
		ConfigName: rec.OIDCConfigName,
		Required:   rec.RequireAuthentication,
		Tokens:     deps.Tokens,
	}, nil
}
