package server

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/karolswdev/jirapro/internal/auth"
)

// stateTTL bounds how long an authorization may take.
const stateTTL = 10 * time.Minute

type pendingAuth struct {
	configID    string
	user        string
	redirectURL string
	created     time.Time
}

// stateStore remembers authorizations in flight, keyed by the OAuth state parameter.
type stateStore struct {
	mu      sync.Mutex
	pending map[string]pendingAuth
	now     func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{pending: map[string]pendingAuth{}, now: time.Now}
}

func (s *stateStore) put(p pendingAuth) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.pending {
		if now.Sub(v.created) > stateTTL {
			delete(s.pending, k)
		}
	}
	state := uuid.NewString()
	p.created = now
	s.pending[state] = p
	return state
}

// take removes and returns the authorization for state.
func (s *stateStore) take(state string) (pendingAuth, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[state]
	if !ok {
		return pendingAuth{}, false
	}
	delete(s.pending, state)
	if s.now().Sub(p.created) > stateTTL {
		return pendingAuth{}, false
	}
	return p, true
}

// safeRedirect accepts local paths and URLs on the public host only.
func (s *Server) safeRedirect(target string) bool {
	if target == "" {
		return true
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return true
	}
	t, err := url.Parse(target)
	if err != nil {
		return false
	}
	pub, err := url.Parse(s.opts.PublicURL)
	if err != nil || pub.Host == "" {
		return false
	}
	return strings.EqualFold(t.Host, pub.Host) && (t.Scheme == "http" || t.Scheme == "https")
}

// authorize sends a logged in caller to the OAuth provider.
func (s *Server) authorize(c *gin.Context) {
	user, ok := auth.UserFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization requires a logged in user"})
		return
	}
	configID := c.Query("configId")
	redirectURL := c.Query("redirectUrl")
	if configID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "configId is required"})
		return
	}
	if !s.safeRedirect(redirectURL) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "redirectUrl must stay on this site"})
		return
	}

	cfg, err := s.opts.Clients.Configuration(configID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	state := s.states.put(pendingAuth{configID: configID, user: user, redirectURL: redirectURL})
	log.Info().Str("oidc_config", configID).Str("user", user).Msg("Starting OAuth authorization")
	c.Redirect(http.StatusFound, s.opts.Authorizer.AuthCodeURL(cfg, state))
}

// callback completes the authorization and stores the token for the caller who started it.
func (s *Server) callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errParam, "description": c.Query("error_description")})
		return
	}
	p, ok := s.states.take(c.Query("state"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown or expired state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	cfg, err := s.opts.Clients.Configuration(p.configID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	ctx := auth.WithUser(c.Request.Context(), p.user)
	if _, err := s.opts.Authorizer.Exchange(ctx, cfg, code); err != nil {
		abortWithError(c, err)
		return
	}

	if p.redirectURL != "" {
		c.Redirect(http.StatusFound, p.redirectURL)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "authorized", "configId": p.configID})
}
