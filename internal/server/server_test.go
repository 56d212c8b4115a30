package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/karolswdev/jirapro/internal/auth"
	"github.com/karolswdev/jirapro/internal/issuecreate"
	"github.com/karolswdev/jirapro/internal/jira"
	"github.com/karolswdev/jirapro/internal/notice"
	"github.com/karolswdev/jirapro/internal/oidc"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIssues struct {
	err         error
	gotInput    string
	gotPending  string
	gotInstance string
	gotText     string
}

func (s *stubIssues) SuggestInstance() []issuecreate.Suggestion {
	hint := "https://jira.example.com"
	return []issuecreate.Suggestion{{Label: "corp", Value: "corp", Hint: &hint}}
}

func (s *stubIssues) AuthenticatorID(id string) (string, error) {
	s.gotInstance = id
	if s.err != nil {
		return "", s.err
	}
	return "basic", nil
}

func (s *stubIssues) suggest(id, text string) ([]issuecreate.Suggestion, error) {
	s.gotInstance, s.gotText = id, text
	if s.err != nil {
		return nil, s.err
	}
	return []issuecreate.Suggestion{{Label: "Demo (DEMO)", Value: "DEMO"}}, nil
}

func (s *stubIssues) SuggestProject(_ context.Context, id, text string) ([]issuecreate.Suggestion, error) {
	return s.suggest(id, text)
}

func (s *stubIssues) SuggestIssueType(_ context.Context, id, project, text string) ([]issuecreate.Suggestion, error) {
	return s.suggest(id, project+"/"+text)
}

func (s *stubIssues) SuggestAssignableUser(_ context.Context, id, project, text string) ([]issuecreate.Suggestion, error) {
	return s.suggest(id, project+"/"+text)
}

func (s *stubIssues) SuggestUser(_ context.Context, id, text string) ([]issuecreate.Suggestion, error) {
	return s.suggest(id, text)
}

func (s *stubIssues) FieldsMetadata(_ context.Context, id, project, issueType string) (json.RawMessage, error) {
	s.gotInstance, s.gotText = id, project+"/"+issueType
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"values":[]}`), nil
}

func (s *stubIssues) CreateIssue(_ context.Context, id, input string, pending io.Reader) (json.RawMessage, error) {
	s.gotInstance, s.gotInput = id, input
	if pending != nil {
		b, _ := io.ReadAll(pending)
		s.gotPending = string(b)
	}
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"key":"DEMO-1"}`), nil
}

type stubNotices struct {
	gotUser string
	gotReq  notice.Request
}

func (s *stubNotices) Decide(ctx context.Context, req notice.Request) (*notice.Decision, error) {
	s.gotUser, _ = auth.UserFrom(ctx)
	s.gotReq = req
	return &notice.Decision{Action: notice.Keep}, nil
}

type stubAuthorizer struct {
	err     error
	gotUser string
	gotCode string
}

func (s *stubAuthorizer) AuthCodeURL(cfg *oidc.ClientConfiguration, state string) string {
	return cfg.OAuth2.Endpoint.AuthURL + "?state=" + url.QueryEscape(state)
}

func (s *stubAuthorizer) Exchange(ctx context.Context, _ *oidc.ClientConfiguration, code string) (*oauth2.Token, error) {
	s.gotUser, _ = auth.UserFrom(ctx)
	s.gotCode = code
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: "tok"}, nil
}

type stubClients struct{}

func (stubClients) Configuration(name string) (*oidc.ClientConfiguration, error) {
	if name != "corp-sso" {
		return nil, fmt.Errorf("%w: %s", oidc.ErrUnknownConfiguration, name)
	}
	return &oidc.ClientConfiguration{Name: name, OAuth2: &oauth2.Config{
		Endpoint: oauth2.Endpoint{AuthURL: "https://sso.example.com/authorize"},
	}}, nil
}

func setupServer(t *testing.T) (*Server, *stubIssues, *stubNotices, *stubAuthorizer) {
	t.Helper()
	issues := &stubIssues{}
	notices := &stubNotices{}
	authz := &stubAuthorizer{}
	s := New(Options{
		Issues:     issues,
		Notices:    notices,
		Authorizer: authz,
		Clients:    stubClients{},
		PublicURL:  "https://wiki.example.com",
	})
	return s, issues, notices, authz
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthAndRequestID(t *testing.T) {
	s, _, _, _ := setupServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(s, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestSuggestRoutes(t *testing.T) {
	s, issues, _, _ := setupServer(t)

	tests := []struct {
		path     string
		wantText string
	}{
		{"/v1/instances/corp/projects?text=dem", "dem"},
		{"/v1/instances/corp/projects/DEMO/issuetypes?text=bug", "DEMO/bug"},
		{"/v1/instances/corp/projects/DEMO/assignable?text=al", "DEMO/al"},
		{"/v1/instances/corp/users?text=al", "al"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `[{"label":"Demo (DEMO)","value":"DEMO"}]`, w.Body.String())
			assert.Equal(t, "corp", issues.gotInstance)
			assert.Equal(t, tt.wantText, issues.gotText)
		})
	}
}

func TestInstancesAndAuthenticator(t *testing.T) {
	s, _, _, _ := setupServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/v1/instances", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"label":"corp","value":"corp","hint":"https://jira.example.com"}]`, w.Body.String())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/instances/corp/authenticator", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"basic"}`, w.Body.String())
}

func TestFieldsMetadataRelayed(t *testing.T) {
	s, issues, _, _ := setupServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/v1/instances/corp/projects/DEMO/issuetypes/10001/fields", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"values":[]}`, w.Body.String())
	assert.Equal(t, "DEMO/10001", issues.gotText)
}

func TestCreateIssue(t *testing.T) {
	t.Run("FormData", func(t *testing.T) {
		s, issues, _, _ := setupServer(t)
		form := url.Values{"data": {`{"fields":{}}`}}
		req := httptest.NewRequest(http.MethodPost, "/v1/instances/corp/issues", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := serve(s, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"key":"DEMO-1"}`, w.Body.String())
		assert.Equal(t, `{"fields":{}}`, issues.gotInput)
		assert.Empty(t, issues.gotPending)
	})

	t.Run("RawBody", func(t *testing.T) {
		s, issues, _, _ := setupServer(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/instances/corp/issues", strings.NewReader(`{"fields":{}}`))
		req.Header.Set("Content-Type", "application/json")

		w := serve(s, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, issues.gotInput)
		assert.Equal(t, `{"fields":{}}`, issues.gotPending)
	})
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"InvalidInput", fmt.Errorf("%w: fields missing", issuecreate.ErrInvalidInput), http.StatusBadRequest},
		{"Reporter", issuecreate.ErrUnexpectedReporterField, http.StatusBadRequest},
		{"UnknownInstance", jira.ErrUnknownInstance, http.StatusNotFound},
		{"Configuration", jira.ErrServerURLParse, http.StatusInternalServerError},
		{"RequestFailed", jira.ErrRequestFailed, http.StatusBadGateway},
		{"Malformed", jira.ErrMalformedPaginatedResponse, http.StatusBadGateway},
		{"Other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, issues, _, _ := setupServer(t)
			issues.err = tt.err
			w := serve(s, httptest.NewRequest(http.MethodGet, "/v1/instances/corp/projects", nil))
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestNoticeCarriesIdentity(t *testing.T) {
	s, _, notices, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/instances/corp/notice?inline=true&redirectUrl=%2Fpage", nil)
	req.Header.Set("X-Remote-User", "alice")

	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"action":"keep"}`, w.Body.String())
	assert.Equal(t, "alice", notices.gotUser)
	assert.Equal(t, notice.Request{InstanceID: "corp", RedirectURL: "/page", Inline: true}, notices.gotReq)
}

func TestOAuthFlow(t *testing.T) {
	authorize := func(s *Server, user, query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+query, nil)
		if user != "" {
			req.Header.Set("X-Remote-User", user)
		}
		return serve(s, req)
	}

	t.Run("RoundTrip", func(t *testing.T) {
		s, _, _, authz := setupServer(t)
		w := authorize(s, "alice", "configId=corp-sso&redirectUrl=%2Fpage")
		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "sso.example.com", loc.Host)
		state := loc.Query().Get("state")
		require.NotEmpty(t, state)

		w = serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=xyz&state="+url.QueryEscape(state), nil))
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/page", w.Header().Get("Location"))
		assert.Equal(t, "alice", authz.gotUser)
		assert.Equal(t, "xyz", authz.gotCode)

		// states are single use
		w = serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=xyz&state="+url.QueryEscape(state), nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NoRedirect", func(t *testing.T) {
		s, _, _, _ := setupServer(t)
		w := authorize(s, "alice", "configId=corp-sso")
		loc, _ := url.Parse(w.Header().Get("Location"))
		w = serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=xyz&state="+loc.Query().Get("state"), nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"authorized","configId":"corp-sso"}`, w.Body.String())
	})

	t.Run("Anonymous", func(t *testing.T) {
		s, _, _, _ := setupServer(t)
		assert.Equal(t, http.StatusUnauthorized, authorize(s, "", "configId=corp-sso").Code)
	})

	t.Run("UnknownConfig", func(t *testing.T) {
		s, _, _, _ := setupServer(t)
		assert.Equal(t, http.StatusNotFound, authorize(s, "alice", "configId=nope").Code)
	})

	t.Run("MissingConfig", func(t *testing.T) {
		s, _, _, _ := setupServer(t)
		assert.Equal(t, http.StatusBadRequest, authorize(s, "alice", "").Code)
	})

	t.Run("ForeignRedirect", func(t *testing.T) {
		s, _, _, _ := setupServer(t)
		w := authorize(s, "alice", "configId=corp-sso&redirectUrl="+url.QueryEscape("https://evil.example.net/"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ExchangeFails", func(t *testing.T) {
		s, _, _, authz := setupServer(t)
		authz.err = fmt.Errorf("%w: denied", oidc.ErrExchange)
		w := authorize(s, "alice", "configId=corp-sso")
		loc, _ := url.Parse(w.Header().Get("Location"))
		w = serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=xyz&state="+loc.Query().Get("state"), nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("ProviderError", func(t *testing.T) {
		s, _, _, _ := setupServer(t)
		w := serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback?error=access_denied", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "access_denied")
	})
}

func TestSafeRedirect(t *testing.T) {
	s, _, _, _ := setupServer(t)
	assert.True(t, s.safeRedirect(""))
	assert.True(t, s.safeRedirect("/display/DEMO/Page"))
	assert.True(t, s.safeRedirect("https://wiki.example.com/display/DEMO"))
	assert.False(t, s.safeRedirect("//evil.example.net/"))
	assert.False(t, s.safeRedirect("https://evil.example.net/"))
	assert.False(t, s.safeRedirect("javascript://wiki.example.com/x"))
}

func TestStateStoreExpiry(t *testing.T) {
	store := newStateStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	state := store.put(pendingAuth{configID: "corp-sso", user: "alice"})
	now = now.Add(stateTTL + time.Second)
	_, ok := store.take(state)
	assert.False(t, ok)

	fresh := store.put(pendingAuth{configID: "corp-sso", user: "bob"})
	p, ok := store.take(fresh)
	require.True(t, ok)
	assert.Equal(t, "bob", p.user)
}
