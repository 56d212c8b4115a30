package issuecreate

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/jirapro/internal/jira"
)

// Manager answers suggest, metadata and issue-creation requests against the configured
// Jira instances. Every call goes to Jira; nothing is cached between calls.
type Manager struct {
	Registry   *jira.Registry
	HTTPClient *http.Client
}

// NewManager returns a manager over registry. httpClient may be nil.
func NewManager(registry *jira.Registry, httpClient *http.Client) *Manager {
	return &Manager{Registry: registry, HTTPClient: httpClient}
}

func (m *Manager) client(instanceID string) (*jira.Client, error) {
	server, err := m.Registry.Lookup(instanceID)
	if err != nil {
		return nil, err
	}
	return jira.NewClient(server, m.HTTPClient), nil
}

// SuggestInstance lists every configured instance, ordered by id.
func (m *Manager) SuggestInstance() []Suggestion {
	servers := m.Registry.All()
	res := make([]Suggestion, 0, len(servers))
	for _, s := range servers {
		u := s.URL.String()
		res = append(res, Suggestion{Label: s.ID, Value: s.ID, Hint: &u})
	}
	return res
}

// AuthenticatorID returns the scheme of the instance's authenticator, or "" when it has none.
func (m *Manager) AuthenticatorID(instanceID string) (string, error) {
	server, err := m.Registry.Lookup(instanceID)
	if err != nil {
		return "", err
	}
	if server.Authenticator == nil {
		return "", nil
	}
	return server.Authenticator.Scheme(), nil
}

// SuggestProject suggests projects whose name or key contains text.
func (m *Manager) SuggestProject(ctx context.Context, instanceID, text string) ([]Suggestion, error) {
	c, err := m.client(instanceID)
	if err != nil {
		return nil, err
	}
	body, err := c.Projects(ctx)
	if err != nil {
		return nil, err
	}
	res, err := formatProjects(body, text)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("instance", instanceID).Str("text", text).Int("suggestions", len(res)).Msg("Suggested projects")
	return res, nil
}

// SuggestIssueType suggests the non sub-task issue types of project. The list is short,
// so text is not applied here; narrowing is left to the caller's picker.
func (m *Manager) SuggestIssueType(ctx context.Context, instanceID, project, text string) ([]Suggestion, error) {
	c, err := m.client(instanceID)
	if err != nil {
		return nil, err
	}
	body, err := c.IssueTypes(ctx, project)
	if err != nil {
		return nil, err
	}
	res, err := formatIssueTypes(body)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("instance", instanceID).Str("project", project).Int("suggestions", len(res)).Msg("Suggested issue types")
	return res, nil
}

// SuggestAssignableUser suggests users matching text that can be assigned issues in project.
func (m *Manager) SuggestAssignableUser(ctx context.Context, instanceID, project, text string) ([]Suggestion, error) {
	c, err := m.client(instanceID)
	if err != nil {
		return nil, err
	}
	body, err := c.AssignableUsers(ctx, project, text)
	if err != nil {
		return nil, err
	}
	return formatUsers(body)
}

// SuggestUser suggests users matching text.
func (m *Manager) SuggestUser(ctx context.Context, instanceID, text string) ([]Suggestion, error) {
	c, err := m.client(instanceID)
	if err != nil {
		return nil, err
	}
	body, err := c.Users(ctx, text)
	if err != nil {
		return nil, err
	}
	return formatUsers(body)
}

// FieldsMetadata returns the merged create-metadata of an issue type, as Jira sent it.
func (m *Manager) FieldsMetadata(ctx context.Context, instanceID, project, issueType string) (json.RawMessage, error) {
	c, err := m.client(instanceID)
	if err != nil {
		return nil, err
	}
	return c.FieldsMetadata(ctx, project, issueType)
}
