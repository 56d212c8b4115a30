package cmd

import (
	"context"

	"github.com/karolswdev/jirapro/internal/config"
	"github.com/karolswdev/jirapro/internal/server"
)

// ConfigProvider defines an interface for components that load the jpro configuration
// files (config.yaml and oauth.yaml) and manage the configuration directory.
// This abstraction allows for easier testing by mocking configuration loading behavior.
type ConfigProvider interface {
	LoadConfig() (*config.AppConfig, error)
	LoadOAuthConfigs() (config.OAuthConfigs, error)
	CreateDefaultConfigFiles() error
	EnsureConfigDir() (string, error)
}

// KeyringClient defines an interface for components that interact with the
// operating system's secure credential store (keychain/keyring), holding
// basic-auth passwords and OIDC client secrets.
type KeyringClient interface {
	Set(key, secret string) error
	Get(key string) (string, error)
}

// IssueService is the issue-creation surface the commands drive. The HTTP
// service serves the same operations.
type IssueService interface {
	server.IssueService
}

// NoticeService decides how Jira macro output is presented to the current user.
type NoticeService interface {
	server.NoticeService
}

// OAuthService runs the OAuth authorization for the current user from the terminal.
type OAuthService interface {
	// AuthCodeURL returns the provider page the user must visit to authorize configName.
	AuthCodeURL(ctx context.Context, configName, state string) (string, error)
	// Exchange trades an authorization code for a token and stores it.
	Exchange(ctx context.Context, configName, code string) error
	// Token returns a usable access token, renewing it first when needed.
	Token(ctx context.Context, configName string) (string, bool)
	// Logout forgets the stored token.
	Logout(ctx context.Context, configName string) error
}
