package issuecreate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/karolswdev/jirapro/internal/auth"
	"github.com/karolswdev/jirapro/internal/jira"
)

type object = map[string]json.RawMessage

func isObject(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}

// stringAttr returns obj[parent][name] when it is a JSON string.
func stringAttr(obj object, parent, name string) (string, bool) {
	var inner object
	if err := json.Unmarshal(obj[parent], &inner); err != nil || inner == nil {
		return "", false
	}
	var s string
	raw, ok := inner[name]
	if !ok || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// readPending reads a request body, dropping line breaks.
func readPending(pending io.Reader) (string, error) {
	if pending == nil {
		return "", nil
	}
	b, err := io.ReadAll(pending)
	if err != nil {
		return "", fmt.Errorf("%w: could not retrieve POST data: %w", ErrInvalidInput, err)
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(string(b)), nil
}

// CreateIssue validates input, adds the reporter when Jira expects one and it can be
// determined, and submits the issue. Jira's response body is returned unmodified.
// When input is empty the payload is read from pending.
func (m *Manager) CreateIssue(ctx context.Context, instanceID, input string, pending io.Reader) (json.RawMessage, error) {
	if input == "" {
		var err error
		if input, err = readPending(pending); err != nil {
			return nil, err
		}
	}

	var root object
	if err := json.Unmarshal([]byte(input), &root); err != nil || root == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrInvalidInput)
	}
	fieldsRaw, ok := root["fields"]
	if !ok || !isObject(fieldsRaw) {
		return nil, fmt.Errorf("%w: missing fields", ErrInvalidInput)
	}
	var fields object
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return nil, fmt.Errorf("%w: fields: %w", ErrInvalidInput, err)
	}

	if _, ok := fields["issuetype"]; !ok {
		return nil, fmt.Errorf("%w: missing issuetype field", ErrInvalidInput)
	}
	if _, ok := fields["project"]; !ok {
		return nil, fmt.Errorf("%w: missing project field", ErrInvalidInput)
	}
	if _, ok := fields["reporter"]; ok {
		return nil, ErrUnexpectedReporterField
	}
	issueType, ok := stringAttr(fields, "issuetype", "id")
	if !ok {
		return nil, fmt.Errorf("%w: invalid issuetype field", ErrInvalidInput)
	}
	project, ok := stringAttr(fields, "project", "key")
	if !ok {
		return nil, fmt.Errorf("%w: invalid project field", ErrInvalidInput)
	}

	c, err := m.client(instanceID)
	if err != nil {
		return nil, err
	}

	reporter, err := m.reporter(ctx, c, project, issueType)
	if err != nil {
		return nil, err
	}
	if reporter != "" {
		fields["reporter"], _ = json.Marshal(map[string]string{"name": reporter})
		if root["fields"], err = json.Marshal(fields); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		log.Debug().Str("instance", instanceID).Str("reporter", reporter).Msg("Setting issue reporter")
	}

	payload, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	body, err := c.PostIssue(ctx, payload)
	if err != nil {
		return nil, err
	}
	log.Info().Str("instance", instanceID).Str("project", project).Str("issuetype", issueType).Msg("Submitted issue")
	return body, nil
}

// reporter returns the Jira name of the current caller when the issue needs an explicit
// reporter, or "" when it does not or the name cannot be determined.
func (m *Manager) reporter(ctx context.Context, c *jira.Client, project, issueType string) (string, error) {
	username, ok := auth.ReporterUsername(ctx, c.Server.Authenticator)
	if !ok {
		return "", nil
	}

	body, err := c.User(ctx, username)
	if err != nil {
		return "", err
	}
	var user object
	if err := json.Unmarshal(body, &user); err != nil {
		return "", malformed("user %q: %v", username, err)
	}
	var name string
	if raw, ok := user["name"]; !ok || json.Unmarshal(raw, &name) != nil || name == "" {
		log.Debug().Str("instance", c.Server.ID).Str("user", username).Msg("No Jira user for caller, leaving reporter unset")
		return "", nil
	}

	needed, err := hasReporterField(ctx, c, project, issueType)
	if err != nil || !needed {
		return "", err
	}
	return name, nil
}

func hasReporterField(ctx context.Context, c *jira.Client, project, issueType string) (bool, error) {
	body, err := c.FieldsMetadata(ctx, project, issueType)
	if err != nil {
		return false, err
	}
	values, err := decodeValues(body, "fieldsMetadata")
	if err != nil {
		return false, err
	}
	for _, raw := range values {
		var field struct {
			FieldID json.RawMessage `json:"fieldId"`
		}
		if json.Unmarshal(raw, &field) != nil {
			continue
		}
		var id string
		if json.Unmarshal(field.FieldID, &id) == nil && id == "reporter" {
			return true, nil
		}
	}
	return false, nil
}
