package jira

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/jirapro/internal/auth"
	"github.com/karolswdev/jirapro/internal/config"
)

// Server is one configured Jira instance.
type Server struct {
	ID            string
	URL           *url.URL
	Authenticator auth.Authenticator // nil when the instance is accessed anonymously
}

// AuthenticatorBuilder builds the authenticator configured for a server.
type AuthenticatorBuilder interface {
	Build(server config.ServerConfig) (auth.Authenticator, error)
}

// Registry maps instance ids to servers.
type Registry struct {
	servers map[string]*Server
	ids     []string
}

// NewRegistry parses the configured servers and builds their authenticators.
// builder may be nil when no server uses authentication.
func NewRegistry(servers []config.ServerConfig, builder AuthenticatorBuilder) (*Registry, error) {
	r := &Registry{servers: make(map[string]*Server, len(servers))}
	for _, sc := range servers {
		u, err := parseServerURL(sc.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrServerURLParse, sc.ID, err)
		}

		s := &Server{ID: sc.ID, URL: u}
		if sc.Auth != nil && sc.Auth.Type != "" {
			if builder == nil {
				return nil, fmt.Errorf("%w: no authenticator registry for %q", ErrConfiguration, sc.ID)
			}
			a, err := builder.Build(sc)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
			}
			s.Authenticator = a
		}

		if _, dup := r.servers[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate instance %q", ErrConfiguration, s.ID)
		}
		r.servers[s.ID] = s
		r.ids = append(r.ids, s.ID)
	}
	sort.Strings(r.ids)
	log.Debug().Strs("instances", r.ids).Msg("Jira instance registry ready")
	return r, nil
}

func parseServerURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("missing scheme or host in %q", raw)
	}
	return u, nil
}

// Lookup returns the server registered under id.
func (r *Registry) Lookup(id string) (*Server, error) {
	s, ok := r.servers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstance, id)
	}
	return s, nil
}

// All returns every server ordered by id.
func (r *Registry) All() []*Server {
	out := make([]*Server, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.servers[id])
	}
	return out
}
