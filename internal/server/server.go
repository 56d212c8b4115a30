// Package server exposes the issue-creation manager, the macro notice and the OAuth
// authorization flow over HTTP for the hosting wiki.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/karolswdev/jirapro/internal/issuecreate"
	"github.com/karolswdev/jirapro/internal/jira"
	"github.com/karolswdev/jirapro/internal/notice"
	"github.com/karolswdev/jirapro/internal/oidc"
)

// IssueService is the issue-creation surface served under /v1.
type IssueService interface {
	SuggestInstance() []issuecreate.Suggestion
	AuthenticatorID(instanceID string) (string, error)
	SuggestProject(ctx context.Context, instanceID, text string) ([]issuecreate.Suggestion, error)
	SuggestIssueType(ctx context.Context, instanceID, project, text string) ([]issuecreate.Suggestion, error)
	SuggestAssignableUser(ctx context.Context, instanceID, project, text string) ([]issuecreate.Suggestion, error)
	SuggestUser(ctx context.Context, instanceID, text string) ([]issuecreate.Suggestion, error)
	FieldsMetadata(ctx context.Context, instanceID, project, issueType string) (json.RawMessage, error)
	CreateIssue(ctx context.Context, instanceID, input string, pending io.Reader) (json.RawMessage, error)
}

// NoticeService decides how macro output is presented.
type NoticeService interface {
	Decide(ctx context.Context, req notice.Request) (*notice.Decision, error)
}

// Authorizer runs the OAuth authorization-code flow.
type Authorizer interface {
	AuthCodeURL(cfg *oidc.ClientConfiguration, state string) string
	Exchange(ctx context.Context, cfg *oidc.ClientConfiguration, code string) (*oauth2.Token, error)
}

// Options wires the server's collaborators.
type Options struct {
	Issues     IssueService
	Notices    NoticeService
	Authorizer Authorizer
	Clients    oidc.ConfigurationStore
	// UserHeader names the header a trusted front proxy sets to the caller's user name.
	UserHeader string
	// PublicURL is this service's external base URL; OAuth redirects must stay on its host.
	PublicURL string
}

// Server holds the HTTP handlers.
type Server struct {
	opts   Options
	states *stateStore
}

// New returns a server for opts.
func New(opts Options) *Server {
	if opts.UserHeader == "" {
		opts.UserHeader = "X-Remote-User"
	}
	return &Server{opts: opts, states: newStateStore()}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLog(), gin.Recovery(), identity(s.opts.UserHeader))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.GET("/instances", s.listInstances)
	inst := v1.Group("/instances/:instance")
	inst.GET("/authenticator", s.authenticatorID)
	inst.GET("/projects", s.suggestProject)
	inst.GET("/projects/:project/issuetypes", s.suggestIssueType)
	inst.GET("/projects/:project/issuetypes/:issuetype/fields", s.fieldsMetadata)
	inst.GET("/projects/:project/assignable", s.suggestAssignableUser)
	inst.GET("/users", s.suggestUser)
	inst.POST("/issues", s.createIssue)
	inst.GET("/notice", s.decideNotice)

	r.GET("/oauth/authorize", s.authorize)
	r.GET("/oauth/callback", s.callback)
	return r
}

// statusFor maps an error to the HTTP status returned to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, issuecreate.ErrInvalidInput), errors.Is(err, issuecreate.ErrUnexpectedReporterField):
		return http.StatusBadRequest
	case errors.Is(err, jira.ErrUnknownInstance), errors.Is(err, oidc.ErrUnknownConfiguration):
		return http.StatusNotFound
	case errors.Is(err, jira.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, jira.ErrRequestFailed),
		errors.Is(err, jira.ErrMalformedPaginatedResponse),
		errors.Is(err, jira.ErrMalformedJiraResponse),
		errors.Is(err, oidc.ErrExchange):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Int("status_code", status).Msg("Request failed")
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
