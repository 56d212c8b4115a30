package jira

import (
	"context"
	"net/url"
)

// Projects lists every project visible to the caller.
func (c *Client) Projects(ctx context.Context) ([]byte, error) {
	return c.Get(ctx, "/rest/api/2/project")
}

// IssueTypes lists the issue types that can be created in project, merged across pages.
func (c *Client) IssueTypes(ctx context.Context, project string) ([]byte, error) {
	return c.PaginatedGet(ctx, "/rest/api/2/issue/createmeta/"+url.PathEscape(project)+"/issuetypes")
}

// FieldsMetadata lists the create-metadata fields of an issue type in project, merged across pages.
func (c *Client) FieldsMetadata(ctx context.Context, project, issueType string) ([]byte, error) {
	return c.PaginatedGet(ctx, "/rest/api/2/issue/createmeta/"+url.PathEscape(project)+"/issuetypes/"+url.PathEscape(issueType))
}

// AssignableUsers searches users that can be assigned issues in project.
func (c *Client) AssignableUsers(ctx context.Context, project, text string) ([]byte, error) {
	return c.Get(ctx, "/rest/api/2/user/assignable/search?project="+url.QueryEscape(project)+"&username="+url.QueryEscape(text))
}

// Users searches users matching text.
func (c *Client) Users(ctx context.Context, text string) ([]byte, error) {
	return c.Get(ctx, "/rest/api/2/user/search?username="+url.QueryEscape(text))
}

// User fetches the user record for username.
func (c *Client) User(ctx context.Context, username string) ([]byte, error) {
	return c.Get(ctx, "/rest/api/2/user?username="+url.QueryEscape(username))
}

// PostIssue submits an issue-creation payload.
func (c *Client) PostIssue(ctx context.Context, payload []byte) ([]byte, error) {
	return c.Post(ctx, "/rest/api/2/issue", payload)
}
