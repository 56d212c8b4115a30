// Package notice decides how Jira macro output is presented to callers who have not
// authorized jpro against an OAuth-protected Jira instance.
package notice

import (
	"context"
	"net/url"
	"strings"

	"github.com/karolswdev/jirapro/internal/auth"
	"github.com/karolswdev/jirapro/internal/jira"
)

// Action says what happens to the macro output.
type Action string

const (
	// Keep leaves the macro output untouched.
	Keep Action = "keep"
	// Append adds the notice after the macro output.
	Append Action = "append"
	// Replace shows only the notice.
	Replace Action = "replace"
)

// WarningClass is the CSS class the notice is rendered with.
const WarningClass = "box warningmessage"

// Notice is the warning shown to callers who need to authenticate.
type Notice struct {
	Class       string `json:"class" yaml:"class"`
	Inline      bool   `json:"inline" yaml:"inline"`
	Description string `json:"description" yaml:"description"`
	LinkText    string `json:"linkText" yaml:"linkText"`
	LinkURL     string `json:"linkUrl" yaml:"linkUrl"`
}

// Decision is the outcome for one macro.
type Decision struct {
	Action Action  `json:"action" yaml:"action"`
	Notice *Notice `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// Request describes the macro being rendered.
type Request struct {
	InstanceID  string
	RedirectURL string
	Inline      bool
}

// Builder produces notices for the configured instances.
type Builder struct {
	Registry *jira.Registry
	// AuthorizePath is the page that starts OAuth authorization.
	AuthorizePath string
	// LoginURL is where anonymous callers sign in.
	LoginURL string
}

// gatedAuthenticator is an authenticator that can hide content from callers without credentials.
type gatedAuthenticator interface {
	auth.Authenticator
	RequiresAuthentication() bool
}

// Decide returns what to do with the macro output for the caller carried by ctx.
func (b *Builder) Decide(ctx context.Context, req Request) (*Decision, error) {
	server, err := b.Registry.Lookup(req.InstanceID)
	if err != nil {
		return nil, err
	}
	gate, ok := server.Authenticator.(gatedAuthenticator)
	if !ok || gate.IsAuthenticating(ctx) {
		return &Decision{Action: Keep}, nil
	}

	_, loggedIn := auth.UserFrom(ctx)
	n := b.notice(gate.ID(), gate.RequiresAuthentication(), loggedIn, req)
	if gate.RequiresAuthentication() {
		return &Decision{Action: Replace, Notice: n}, nil
	}
	return &Decision{Action: Append, Notice: n}, nil
}

func (b *Builder) notice(configID string, mustAuthenticate, loggedIn bool, req Request) *Notice {
	n := &Notice{Class: WarningClass, Inline: req.Inline}
	switch {
	case mustAuthenticate && loggedIn:
		n.Description = "This content is only available once you authorize access to Jira."
		n.LinkText = "Authorize access to Jira"
	case mustAuthenticate:
		n.Description = "This content is only available to logged in users who have authorized access to Jira."
		n.LinkText = "Log in"
	case loggedIn:
		n.Description = "Some Jira content might be missing until you authorize access to Jira."
		n.LinkText = "Authorize access to Jira"
	default:
		n.Description = "Some Jira content might be missing until you log in and authorize access to Jira."
		n.LinkText = "Log in"
	}

	if loggedIn {
		n.LinkURL = withQuery(b.AuthorizePath, "configId="+url.QueryEscape(configID)+"&redirectUrl="+url.QueryEscape(req.RedirectURL))
	} else {
		n.LinkURL = withQuery(b.LoginURL, "xredirect="+url.QueryEscape(req.RedirectURL))
	}
	return n
}

func withQuery(base, query string) string {
	if strings.Contains(base, "?") {
		return base + "&" + query
	}
	return base + "?" + query
}
