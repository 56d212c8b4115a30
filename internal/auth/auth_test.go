package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/jirapro/internal/config"
)

type stubTokens map[string]string

func (s stubTokens) Token(_ context.Context, name string) (string, bool) {
	tok, ok := s[name]
	return tok, ok
}

type stubReader map[string]*config.OAuthConfig

func (s stubReader) OAuthConfig(serverID string) (*config.OAuthConfig, error) {
	rec, ok := s[serverID]
	if !ok {
		return nil, config.ErrOAuthConfigNotFound
	}
	return rec, nil
}

func secretsFrom(m map[string]string) func(string) (string, error) {
	return func(key string) (string, error) {
		if v, ok := m[key]; ok {
			return v, nil
		}
		return "", config.ErrSecretNotFound
	}
}

func TestIdentity(t *testing.T) {
	_, ok := UserFrom(context.Background())
	assert.False(t, ok)

	_, ok = UserFrom(WithUser(context.Background(), ""))
	assert.False(t, ok, "Empty user should count as anonymous")

	name, ok := UserFrom(WithUser(context.Background(), "alice"))
	require.True(t, ok)
	assert.Equal(t, "alice", name)
}

func TestBasic(t *testing.T) {
	b := &Basic{Username: "bot", Password: "pw"}
	req, err := http.NewRequest(http.MethodGet, "http://jira.example.com", nil)
	require.NoError(t, err)

	require.NoError(t, b.Authenticate(context.Background(), req))
	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "bot", user)
	assert.Equal(t, "pw", pass)
	assert.True(t, b.IsAuthenticating(context.Background()))
	assert.Equal(t, SchemeBasic, b.Scheme())

	_, ok = ReporterUsername(context.Background(), b)
	assert.False(t, ok, "No reporter without a current user")

	reporter, ok := ReporterUsername(WithUser(context.Background(), "alice"), b)
	require.True(t, ok)
	assert.Equal(t, "alice", reporter)
}

func TestOAuth(t *testing.T) {
	t.Run("WithToken", func(t *testing.T) {
		o := &OAuth{ConfigName: "cloud", Tokens: stubTokens{"cloud": "tok"}}
		req, err := http.NewRequest(http.MethodGet, "http://jira.example.com", nil)
		require.NoError(t, err)

		require.NoError(t, o.Authenticate(context.Background(), req))
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		assert.True(t, o.IsAuthenticating(context.Background()))
		assert.Equal(t, "cloud", o.ID())
	})

	t.Run("WithoutToken", func(t *testing.T) {
		o := &OAuth{ConfigName: "cloud", Tokens: stubTokens{}}
		req, err := http.NewRequest(http.MethodGet, "http://jira.example.com", nil)
		require.NoError(t, err)

		require.NoError(t, o.Authenticate(context.Background(), req))
		assert.Empty(t, req.Header.Get("Authorization"))
		assert.False(t, o.IsAuthenticating(context.Background()))
	})

	t.Run("NeverYieldsReporter", func(t *testing.T) {
		o := &OAuth{ConfigName: "cloud", Tokens: stubTokens{"cloud": "tok"}}
		_, ok := ReporterUsername(WithUser(context.Background(), "alice"), o)
		assert.False(t, ok)
	})
}

func TestRegistryBuild(t *testing.T) {
	reg := NewRegistry(Deps{
		OAuthConfigs: stubReader{"cloud": {ID: "cloud", OIDCConfigName: "atlassian", RequireAuthentication: true}},
		Tokens:       stubTokens{},
		Secret:       secretsFrom(map[string]string{"basic:corp": "pw"}),
	})
	assert.Equal(t, []string{SchemeBasic, SchemeOAuth}, reg.Schemes())

	t.Run("NoAuth", func(t *testing.T) {
		a, err := reg.Build(config.ServerConfig{ID: "anon", URL: "http://x"})
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("Basic", func(t *testing.T) {
		a, err := reg.Build(config.ServerConfig{ID: "corp", Auth: &config.AuthConfig{Type: "basic", Username: "bot"}})
		require.NoError(t, err)
		b, ok := a.(*Basic)
		require.True(t, ok)
		assert.Equal(t, "pw", b.Password)
	})

	t.Run("BasicWithoutSecret", func(t *testing.T) {
		a, err := reg.Build(config.ServerConfig{ID: "other", Auth: &config.AuthConfig{Type: "basic", Username: "bot"}})
		require.NoError(t, err)
		assert.Empty(t, a.(*Basic).Password)
	})

	t.Run("BasicWithoutUsername", func(t *testing.T) {
		_, err := reg.Build(config.ServerConfig{ID: "corp", Auth: &config.AuthConfig{Type: "basic"}})
		assert.ErrorIs(t, err, ErrMissingUsername)
	})

	t.Run("OAuth", func(t *testing.T) {
		a, err := reg.Build(config.ServerConfig{ID: "cloud", Auth: &config.AuthConfig{Type: "oauth"}})
		require.NoError(t, err)
		o, ok := a.(*OAuth)
		require.True(t, ok)
		assert.Equal(t, "atlassian", o.ID())
		assert.True(t, o.RequiresAuthentication())
	})

	t.Run("OAuthWithoutRecord", func(t *testing.T) {
		_, err := reg.Build(config.ServerConfig{ID: "nope", Auth: &config.AuthConfig{Type: "oauth"}})
		assert.ErrorIs(t, err, ErrNoOAuthConfig)
		assert.ErrorIs(t, err, config.ErrOAuthConfigNotFound)
	})

	t.Run("UnknownScheme", func(t *testing.T) {
		_, err := reg.Build(config.ServerConfig{ID: "corp", Auth: &config.AuthConfig{Type: "kerberos"}})
		assert.ErrorIs(t, err, ErrUnknownScheme)
	})

	t.Run("CustomScheme", func(t *testing.T) {
		custom := NewRegistry(Deps{Secret: secretsFrom(nil)})
		custom.Register("token", func(s config.ServerConfig, _ Deps) (Authenticator, error) {
			return nil, errors.New("boom")
		})
		_, err := custom.Build(config.ServerConfig{ID: "x", Auth: &config.AuthConfig{Type: "token"}})
		assert.EqualError(t, err, "boom")
	})
}
