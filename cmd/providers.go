package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/karolswdev/jirapro/internal/auth"
	"github.com/karolswdev/jirapro/internal/config"
	"github.com/karolswdev/jirapro/internal/issuecreate"
	"github.com/karolswdev/jirapro/internal/jira"
	"github.com/karolswdev/jirapro/internal/notice"
	"github.com/karolswdev/jirapro/internal/oidc"
)

// --- Concrete Implementations of Shared Interfaces ---

// DefaultConfigProvider implements the ConfigProvider interface using the config package.
// An empty BaseDir resolves the directory from JIRAPRO_CONFIG_DIR or ~/.jirapro.
type DefaultConfigProvider struct {
	BaseDir string
}

func (p *DefaultConfigProvider) LoadConfig() (*config.AppConfig, error) {
	return config.LoadConfig(p.BaseDir)
}

func (p *DefaultConfigProvider) LoadOAuthConfigs() (config.OAuthConfigs, error) {
	return config.LoadOAuthConfigs(p.BaseDir)
}

func (p *DefaultConfigProvider) CreateDefaultConfigFiles() error {
	return config.CreateDefaultConfigFiles(p.BaseDir)
}

func (p *DefaultConfigProvider) EnsureConfigDir() (string, error) {
	return config.EnsureConfigDir(p.BaseDir)
}

// defaultKeyringClient implements KeyringClient on top of the config secret helpers,
// so reads fall back to JIRAPRO_SECRET_* variables like every other secret lookup.
type defaultKeyringClient struct{}

func (defaultKeyringClient) Set(key, secret string) error { return config.SetSecret(key, secret) }

func (defaultKeyringClient) Get(key string) (string, error) { return config.GetSecret(key) }

// defaultOAuthService implements OAuthService with the OIDC client manager and keychain token store.
type defaultOAuthService struct {
	configs oidc.ConfigurationStore
	manager *oidc.ClientManager
	tokens  *oidc.TokenProvider
}

func (s *defaultOAuthService) AuthCodeURL(_ context.Context, configName, state string) (string, error) {
	cfg, err := s.configs.Configuration(configName)
	if err != nil {
		return "", err
	}
	return s.manager.AuthCodeURL(cfg, state), nil
}

func (s *defaultOAuthService) Exchange(ctx context.Context, configName, code string) error {
	cfg, err := s.configs.Configuration(configName)
	if err != nil {
		return err
	}
	_, err = s.manager.Exchange(ctx, cfg, code)
	return err
}

func (s *defaultOAuthService) Token(ctx context.Context, configName string) (string, bool) {
	return s.tokens.Token(ctx, configName)
}

func (s *defaultOAuthService) Logout(ctx context.Context, configName string) error {
	if _, err := s.configs.Configuration(configName); err != nil {
		return err
	}
	return s.manager.Store.Delete(ctx, configName)
}

// --- Central Provider ---

// Provider serves as a central dependency injection container, aggregating the services
// the commands need. It is built once per command invocation from the loaded configuration.
type Provider struct {
	Config  ConfigProvider
	Keyring KeyringClient
	App     *config.AppConfig

	Issues  IssueService
	Notices NoticeService
	OAuth   OAuthService

	// Clients and Manager back the OAuth routes of 'jpro serve'.
	Clients oidc.ConfigurationStore
	Manager *oidc.ClientManager
}

// GetProvider loads config.yaml and wires the instance registry, the authenticators,
// the OIDC token machinery and the issue-creation manager.
func GetProvider() (*Provider, error) {
	return newProvider(&DefaultConfigProvider{}, defaultKeyringClient{}, oidc.KeyringTokenStore{})
}

func newProvider(cfgProvider *DefaultConfigProvider, kc KeyringClient, store oidc.TokenStore) (*Provider, error) {
	appCfg, err := cfgProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load application config: %w", err)
	}

	httpClient := &http.Client{Timeout: appCfg.HTTP.Timeout}

	clients := &oidc.AppConfigStore{Config: appCfg, Secret: kc.Get}
	manager := oidc.NewClientManager(store, httpClient)
	tokens := &oidc.TokenProvider{Configs: clients, Manager: manager, Store: store}

	authenticators := auth.NewRegistry(auth.Deps{
		OAuthConfigs: config.FileReader{BaseDir: cfgProvider.BaseDir},
		Tokens:       tokens,
		Secret:       kc.Get,
	})
	registry, err := jira.NewRegistry(appCfg.Servers, authenticators)
	if err != nil {
		return nil, fmt.Errorf("failed to build instance registry: %w", err)
	}
	Log.Debug().Int("instances", len(registry.All())).Strs("schemes", authenticators.Schemes()).Msg("Instance registry initialized")

	provider := &Provider{
		Config:  cfgProvider,
		Keyring: kc,
		App:     appCfg,
		Issues:  issuecreate.NewManager(registry, httpClient),
		Notices: &notice.Builder{
			Registry:      registry,
			AuthorizePath: appCfg.Serve.AuthorizePath,
			LoginURL:      appCfg.Serve.LoginURL,
		},
		OAuth:   &defaultOAuthService{configs: clients, manager: manager, tokens: tokens},
		Clients: clients,
		Manager: manager,
	}

	Log.Debug().Msg("Service Provider initialized successfully.")
	return provider, nil
}
