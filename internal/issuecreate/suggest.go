package issuecreate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/karolswdev/jirapro/internal/jira"
)

// SuggestLimit caps free-text suggestion lists.
const SuggestLimit = 20

// Icon points at an image shown next to a suggestion.
type Icon struct {
	URL string `json:"url" yaml:"url"`
}

// Suggestion is one autocomplete entry. Value is a string, or a number for issue types.
type Suggestion struct {
	Label string  `json:"label" yaml:"label"`
	Value any     `json:"value" yaml:"value"`
	Hint  *string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Icon  *Icon   `json:"icon,omitempty" yaml:"icon,omitempty"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", jira.ErrMalformedJiraResponse, fmt.Sprintf(format, args...))
}

func decodeArray(body []byte, what string) ([]json.RawMessage, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return nil, malformed("expected a JSON array of %s", what)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, malformed("%s: %v", what, err)
	}
	return entries, nil
}

func decodeValues(body []byte, what string) ([]json.RawMessage, error) {
	var page map[string]json.RawMessage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, malformed("%s: %v", what, err)
	}
	values, ok := page["values"]
	if !ok {
		return nil, malformed("%s: could not find the 'values' attribute", what)
	}
	return decodeArray(values, what)
}

// firstAvatar returns the first URL of an avatarUrls object in document order.
func firstAvatar(raw json.RawMessage) *Icon {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	switch tok {
	case json.Delim('{'):
		if _, err := dec.Token(); err != nil { // size key, e.g. "48x48"
			return nil
		}
	case json.Delim('['):
	default:
		return nil
	}
	if !dec.More() {
		return nil
	}
	tok, err = dec.Token()
	if err != nil {
		return nil
	}
	if u, ok := tok.(string); ok {
		return &Icon{URL: u}
	}
	return nil
}

type projectEntry struct {
	Name       *string         `json:"name"`
	Key        *string         `json:"key"`
	AvatarURLs json.RawMessage `json:"avatarUrls"`
}

// formatProjects keeps projects whose name or key contains text, case-insensitively.
func formatProjects(body []byte, text string) ([]Suggestion, error) {
	entries, err := decodeArray(body, "projects")
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(text)
	res := make([]Suggestion, 0)
	for i, raw := range entries {
		if len(res) >= SuggestLimit {
			break
		}
		var p projectEntry
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, malformed("project %d: %v", i, err)
		}
		if p.Name == nil || p.Key == nil {
			return nil, malformed("project %d: missing name or key", i)
		}
		if !strings.Contains(strings.ToLower(*p.Name), needle) && !strings.Contains(strings.ToLower(*p.Key), needle) {
			continue
		}
		res = append(res, Suggestion{
			Label: *p.Name + " (" + *p.Key + ")",
			Value: *p.Key,
			Icon:  firstAvatar(p.AvatarURLs),
		})
	}
	return res, nil
}

type issueTypeEntry struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	ID          json.RawMessage `json:"id"`
	Subtask     *bool           `json:"subtask"`
	IconURL     *string         `json:"iconUrl"`
}

func parseNumericID(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(s, 10, 64)
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// formatIssueTypes returns every issue type that is not a sub-task, in Jira's order.
func formatIssueTypes(body []byte) ([]Suggestion, error) {
	entries, err := decodeValues(body, "issuetypes")
	if err != nil {
		return nil, err
	}

	res := make([]Suggestion, 0)
	for i, raw := range entries {
		var it issueTypeEntry
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, malformed("issue type %d: %v", i, err)
		}
		if it.Name == nil || len(it.ID) == 0 {
			return nil, malformed("issue type %d: missing name or id", i)
		}
		if it.Subtask == nil {
			return nil, malformed("issue type %d: missing subtask", i)
		}
		if *it.Subtask {
			continue
		}
		id, err := parseNumericID(it.ID)
		if err != nil {
			return nil, malformed("issue type %d: id %s is not numeric", i, it.ID)
		}
		s := Suggestion{Label: *it.Name, Value: id, Hint: it.Description}
		if it.IconURL != nil {
			s.Icon = &Icon{URL: *it.IconURL}
		}
		res = append(res, s)
	}
	return res, nil
}

type userEntry struct {
	Name         *string         `json:"name"`
	DisplayName  *string         `json:"displayName"`
	EmailAddress *string         `json:"emailAddress"`
	AvatarURLs   json.RawMessage `json:"avatarUrls"`
}

func formatUsers(body []byte) ([]Suggestion, error) {
	entries, err := decodeArray(body, "users")
	if err != nil {
		return nil, err
	}

	res := make([]Suggestion, 0)
	for i, raw := range entries {
		if len(res) >= SuggestLimit {
			break
		}
		var u userEntry
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, malformed("user %d: %v", i, err)
		}
		if u.Name == nil || u.DisplayName == nil || u.EmailAddress == nil {
			return nil, malformed("user %d: missing name, displayName or emailAddress", i)
		}
		res = append(res, Suggestion{
			Label: *u.DisplayName + " - " + *u.EmailAddress + " (" + *u.Name + ")",
			Value: *u.Name,
			Icon:  firstAvatar(u.AvatarURLs),
		})
	}
	return res, nil
}

// Field is one entry of an issue type's create-screen metadata.
type Field struct {
	ID       string `json:"fieldId"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// FieldList extracts the fields from a FieldsMetadata body. Entries that are not objects are skipped.
func FieldList(body []byte) ([]Field, error) {
	values, err := decodeValues(body, "fieldsMetadata")
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(values))
	for _, raw := range values {
		var f Field
		if json.Unmarshal(raw, &f) != nil || f.ID == "" {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}
