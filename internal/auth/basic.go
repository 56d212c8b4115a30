package auth

import (
	"context"
	"net/http"
)

// Basic authenticates with a fixed service account. Issues are filed by the service
// account, so the current caller is reported as the issue reporter.
type Basic struct {
	Username string
	Password string
}

func (b *Basic) Authenticate(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

func (b *Basic) IsAuthenticating(context.Context) bool {
	return b.Username != ""
}

func (b *Basic) ID() string {
	return b.Username
}

func (b *Basic) Scheme() string {
	return SchemeBasic
}

// ReporterUsername returns the current caller, if any.
func (b *Basic) ReporterUsername(ctx context.Context) (string, bool) {
	return UserFrom(ctx)
}
