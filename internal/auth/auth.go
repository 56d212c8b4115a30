package auth

import (
	"context"
	"net/http"
)

// Authenticator decorates outgoing Jira requests with credentials for one server.
type Authenticator interface {
	// Authenticate attaches credentials to req. It is called once per outgoing request.
	Authenticate(ctx context.Context, req *http.Request) error
	// IsAuthenticating reports whether requests made now would carry credentials.
	IsAuthenticating(ctx context.Context) bool
	// ID identifies the credential source (service account, OIDC configuration name).
	ID() string
	// Scheme is the registry key the authenticator was built from.
	Scheme() string
}

// ReporterSource is implemented by authenticators that can name the Jira user on whose
// behalf an issue is filed. Token-based authenticators never implement it.
type ReporterSource interface {
	ReporterUsername(ctx context.Context) (string, bool)
}

// TokenSource yields the bearer token for an OIDC client configuration, or false when
// none is available.
type TokenSource interface {
	Token(ctx context.Context, configName string) (string, bool)
}

// ReporterUsername returns the reporter username a derives for the current identity.
func ReporterUsername(ctx context.Context, a Authenticator) (string, bool) {
	if a == nil {
		return "", false
	}
	rs, ok := a.(ReporterSource)
	if !ok {
		return "", false
	}
	return rs.ReporterUsername(ctx)
}

type userKey struct{}

// WithUser returns a copy of ctx carrying the name of the current caller.
func WithUser(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userKey{}, name)
}

// UserFrom returns the current caller carried by ctx.
func UserFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userKey{}).(string)
	return name, ok && name != ""
}
