package issuecreate

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/jirapro/internal/jira"
)

func TestFormatProjects(t *testing.T) {
	t.Run("FiltersByNameOrKey", func(t *testing.T) {
		body := `[
			{"name":"Platform Core","key":"PLAT","avatarUrls":{"48x48":"https://x/48.png","16x16":"https://x/16.png"}},
			{"name":"Other","key":"OTH"}
		]`
		res, err := formatProjects([]byte(body), "platform")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "Platform Core (PLAT)", res[0].Label)
		assert.Equal(t, "PLAT", res[0].Value)
		require.NotNil(t, res[0].Icon)
		assert.Equal(t, "https://x/48.png", res[0].Icon.URL, "First avatar in document order")

		res, err = formatProjects([]byte(body), "oth")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "OTH", res[0].Value)
		assert.Nil(t, res[0].Icon)
	})

	t.Run("TruncatesToLimit", func(t *testing.T) {
		var entries []string
		for i := 0; i < 30; i++ {
			entries = append(entries, fmt.Sprintf(`{"name":"Project %d","key":"P%d"}`, i, i))
		}
		res, err := formatProjects([]byte("["+strings.Join(entries, ",")+"]"), "")
		require.NoError(t, err)
		assert.Len(t, res, SuggestLimit)
		assert.Equal(t, "P0", res[0].Value)
		assert.Equal(t, "P19", res[19].Value)
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := formatProjects([]byte(`[{"name":"No Key"}]`), "")
		assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
	})

	t.Run("NotArray", func(t *testing.T) {
		_, err := formatProjects([]byte(`{"errorMessages":["x"]}`), "")
		assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
	})

	t.Run("SerializedShape", func(t *testing.T) {
		res, err := formatProjects([]byte(`[{"name":"A","key":"A","avatarUrls":{"24x24":"u"}}]`), "")
		require.NoError(t, err)
		b, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"label":"A (A)","value":"A","icon":{"url":"u"}}]`, string(b))
	})
}

func TestFormatIssueTypes(t *testing.T) {
	body := `{"isLast":true,"values":[
		{"id":"1","name":"Sub-task","description":"child","subtask":true},
		{"id":"10001","name":"Bug","description":"A problem","subtask":false,"iconUrl":"https://x/bug.png"},
		{"id":"10002","name":"Story","description":null,"subtask":false},
		{"id":"5","name":"Sub-bug","subtask":true}
	]}`

	t.Run("ExcludesSubtasks", func(t *testing.T) {
		res, err := formatIssueTypes([]byte(body))
		require.NoError(t, err)
		require.Len(t, res, 2)

		assert.Equal(t, "Bug", res[0].Label)
		assert.Equal(t, int64(10001), res[0].Value)
		require.NotNil(t, res[0].Hint)
		assert.Equal(t, "A problem", *res[0].Hint)
		assert.Equal(t, "https://x/bug.png", res[0].Icon.URL)

		assert.Equal(t, "Story", res[1].Label)
		assert.Nil(t, res[1].Hint, "Null description yields no hint")
		assert.Nil(t, res[1].Icon)

		b, err := json.Marshal(res[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"label":"Bug","value":10001,"hint":"A problem","icon":{"url":"https://x/bug.png"}}`, string(b))
	})

	t.Run("MissingSubtask", func(t *testing.T) {
		_, err := formatIssueTypes([]byte(`{"values":[{"id":"1","name":"Bug"}]}`))
		assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
	})

	t.Run("NoLimit", func(t *testing.T) {
		var entries []string
		for i := 0; i < 25; i++ {
			entries = append(entries, fmt.Sprintf(`{"id":"%d","name":"T%d","subtask":false}`, i, i))
		}
		res, err := formatIssueTypes([]byte(`{"values":[`+strings.Join(entries, ",")+`]}`))
		require.NoError(t, err)
		assert.Len(t, res, 25)
	})

	t.Run("MissingValues", func(t *testing.T) {
		_, err := formatIssueTypes([]byte(`{"isLast":true}`))
		assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
	})

	t.Run("MissingName", func(t *testing.T) {
		_, err := formatIssueTypes([]byte(`{"values":[{"id":"1","subtask":false}]}`))
		assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
	})

	t.Run("NonNumericID", func(t *testing.T) {
		_, err := formatIssueTypes([]byte(`{"values":[{"id":"abc","name":"X","subtask":false}]}`))
		assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
	})
}

func TestFormatUsers(t *testing.T) {
	t.Run("Label", func(t *testing.T) {
		body := `[{"name":"jdoe","displayName":"John Doe","emailAddress":"jdoe@example.com","avatarUrls":{"48x48":"https://x/a.png"}}]`
		res, err := formatUsers([]byte(body))
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "John Doe - jdoe@example.com (jdoe)", res[0].Label)
		assert.Equal(t, "jdoe", res[0].Value)
		assert.Equal(t, "https://x/a.png", res[0].Icon.URL)
	})

	t.Run("TruncatesToLimit", func(t *testing.T) {
		var entries []string
		for i := 0; i < 21; i++ {
			entries = append(entries, fmt.Sprintf(`{"name":"u%d","displayName":"U","emailAddress":"e"}`, i))
		}
		res, err := formatUsers([]byte("[" + strings.Join(entries, ",") + "]"))
		require.NoError(t, err)
		assert.Len(t, res, SuggestLimit)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		_, err := formatUsers([]byte(`[{"name":"jdoe","displayName":"John"}]`))
		assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
	})
}

func TestFirstAvatar(t *testing.T) {
	assert.Nil(t, firstAvatar(nil))
	assert.Nil(t, firstAvatar(json.RawMessage(`{}`)))
	assert.Nil(t, firstAvatar(json.RawMessage(`"plain"`)))
	assert.Nil(t, firstAvatar(json.RawMessage(`{"48x48":1}`)))
	assert.Equal(t, "b", firstAvatar(json.RawMessage(`{"32x32":"b","16x16":"a"}`)).URL)
	assert.Equal(t, "a", firstAvatar(json.RawMessage(`["a","b"]`)).URL)
}

func TestFieldList(t *testing.T) {
	fields, err := FieldList([]byte(`{"values":[{"fieldId":"summary","name":"Summary","required":true},{"fieldId":"reporter","name":"Reporter"},7]}`))
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{ID: "summary", Name: "Summary", Required: true},
		{ID: "reporter", Name: "Reporter"},
	}, fields)

	_, err = FieldList([]byte(`{"fields":[]}`))
	assert.ErrorIs(t, err, jira.ErrMalformedJiraResponse)
}
