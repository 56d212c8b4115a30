package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/karolswdev/jirapro/internal/config"
	"github.com/karolswdev/jirapro/internal/issuecreate"
	"github.com/karolswdev/jirapro/internal/notice"
)

// --- Mock ConfigProvider ---

type MockConfigProvider struct {
	mock.Mock
}

func (m *MockConfigProvider) LoadConfig() (*config.AppConfig, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(*config.AppConfig)
	return cfg, args.Error(1)
}

func (m *MockConfigProvider) LoadOAuthConfigs() (config.OAuthConfigs, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(config.OAuthConfigs)
	return cfg, args.Error(1)
}

func (m *MockConfigProvider) CreateDefaultConfigFiles() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockConfigProvider) EnsureConfigDir() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// --- Mock KeyringClient ---

type MockKeyringClient struct {
	mock.Mock
}

func (m *MockKeyringClient) Set(key, secret string) error {
	args := m.Called(key, secret)
	return args.Error(0)
}

func (m *MockKeyringClient) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

// --- Mock IssueService ---

type MockIssueService struct {
	mock.Mock
}

func suggestionsResult(args mock.Arguments) ([]issuecreate.Suggestion, error) {
	res, _ := args.Get(0).([]issuecreate.Suggestion)
	return res, args.Error(1)
}

func (m *MockIssueService) SuggestInstance() []issuecreate.Suggestion {
	args := m.Called()
	res, _ := args.Get(0).([]issuecreate.Suggestion)
	return res
}

func (m *MockIssueService) AuthenticatorID(instanceID string) (string, error) {
	args := m.Called(instanceID)
	return args.String(0), args.Error(1)
}

func (m *MockIssueService) SuggestProject(ctx context.Context, instanceID, text string) ([]issuecreate.Suggestion, error) {
	return suggestionsResult(m.Called(ctx, instanceID, text))
}

func (m *MockIssueService) SuggestIssueType(ctx context.Context, instanceID, project, text string) ([]issuecreate.Suggestion, error) {
	return suggestionsResult(m.Called(ctx, instanceID, project, text))
}

func (m *MockIssueService) SuggestAssignableUser(ctx context.Context, instanceID, project, text string) ([]issuecreate.Suggestion, error) {
	return suggestionsResult(m.Called(ctx, instanceID, project, text))
}

func (m *MockIssueService) SuggestUser(ctx context.Context, instanceID, text string) ([]issuecreate.Suggestion, error) {
	return suggestionsResult(m.Called(ctx, instanceID, text))
}

func (m *MockIssueService) FieldsMetadata(ctx context.Context, instanceID, project, issueType string) (json.RawMessage, error) {
	args := m.Called(ctx, instanceID, project, issueType)
	body, _ := args.Get(0).(json.RawMessage)
	return body, args.Error(1)
}

func (m *MockIssueService) CreateIssue(ctx context.Context, instanceID, input string, pending io.Reader) (json.RawMessage, error) {
	args := m.Called(ctx, instanceID, input, pending)
	body, _ := args.Get(0).(json.RawMessage)
	return body, args.Error(1)
}

// --- Mock NoticeService ---

type MockNoticeService struct {
	mock.Mock
}

func (m *MockNoticeService) Decide(ctx context.Context, req notice.Request) (*notice.Decision, error) {
	args := m.Called(ctx, req)
	d, _ := args.Get(0).(*notice.Decision)
	return d, args.Error(1)
}

// --- Mock OAuthService ---

type MockOAuthService struct {
	mock.Mock
}

func (m *MockOAuthService) AuthCodeURL(ctx context.Context, configName, state string) (string, error) {
	args := m.Called(ctx, configName, state)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthService) Exchange(ctx context.Context, configName, code string) error {
	args := m.Called(ctx, configName, code)
	return args.Error(0)
}

func (m *MockOAuthService) Token(ctx context.Context, configName string) (string, bool) {
	args := m.Called(ctx, configName)
	return args.String(0), args.Bool(1)
}

func (m *MockOAuthService) Logout(ctx context.Context, configName string) error {
	args := m.Called(ctx, configName)
	return args.Error(0)
}
