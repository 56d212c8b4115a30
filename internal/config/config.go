package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigFileName is the standard name for the main configuration file.
	DefaultConfigFileName = "config.yaml"
	// DefaultOAuthFileName is the standard name for the per-server OAuth configuration records.
	DefaultOAuthFileName = "oauth.yaml"
	// DefaultConfigDirName is the standard name for the configuration directory within the user's home directory.
	DefaultConfigDirName = ".jirapro"
	// ConfigDirEnvVar is the environment variable used to override the default configuration directory path.
	ConfigDirEnvVar = "JIRAPRO_CONFIG_DIR"

	// AuthTypeBasic selects username/password authentication for a server.
	AuthTypeBasic = "basic"
	// AuthTypeOAuth selects OAuth2 bearer authentication for a server.
	AuthTypeOAuth = "oauth"
)

// EnsureConfigDir checks if the configuration directory exists, creating it if necessary.
// It prioritizes baseDir if provided. If baseDir is empty, it checks the JIRAPRO_CONFIG_DIR
// environment variable. If the environment variable is also empty or unset, it defaults to ~/.jirapro.
// The directory is created with 0700 permissions.
func EnsureConfigDir(baseDir string) (string, error) {
	var configDirPath string

	if baseDir != "" {
		configDirPath = baseDir
		log.Debug().Str("path", configDirPath).Msg("Using provided base directory path")
	} else {
		envDir := os.Getenv(ConfigDirEnvVar)
		if envDir != "" {
			configDirPath = envDir
			log.Debug().Str("path", configDirPath).Str("env_var", ConfigDirEnvVar).Msg("Using config directory path from environment variable")
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get user home directory: %w", err)
			}
			configDirPath = filepath.Join(homeDir, DefaultConfigDirName)
			log.Debug().Str("path", configDirPath).Msg("Using default config directory path")
		}
	}

	info, err := os.Stat(configDirPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configDirPath).Msg("Config directory does not exist, attempting to create")
			if mkdirErr := os.MkdirAll(configDirPath, 0700); mkdirErr != nil {
				log.Error().Err(mkdirErr).Str("path", configDirPath).Msg("Failed to create config directory")
				return "", fmt.Errorf("%w: %w", ErrConfigDirCreate, mkdirErr)
			}
			log.Info().Str("path", configDirPath).Msg("Successfully created config directory")
			return configDirPath, nil
		}
		log.Error().Err(err).Str("path", configDirPath).Msg("Failed to stat config directory path")
		return "", fmt.Errorf("%w: %w", ErrConfigDirStat, err)
	}

	if !info.IsDir() {
		log.Error().Str("path", configDirPath).Msg("Config path exists but is not a directory")
		return "", ErrConfigDirNotDir
	}

	log.Debug().Str("path", configDirPath).Msg("Config directory exists and is a directory")
	return configDirPath, nil
}

// AuthConfig selects and parameterizes the authenticator of a Jira server.
type AuthConfig struct {
	Type     string `mapstructure:"type" yaml:"type"`                             // "basic" or "oauth"
	Username string `mapstructure:"username" yaml:"username,omitempty"`           // basic only
	Secret   string `mapstructure:"secret" yaml:"secret,omitempty"`               // keyring key holding the password, defaults to "<server id>"
}

// ServerConfig describes one configured Jira instance.
type ServerConfig struct {
	ID   string      `mapstructure:"id" yaml:"id"`
	URL  string      `mapstructure:"url" yaml:"url"`
	Auth *AuthConfig `mapstructure:"auth" yaml:"auth,omitempty"`
}

// OIDCClientConfig holds the OAuth2 client registration used to obtain and renew tokens.
type OIDCClientConfig struct {
	Name         string   `mapstructure:"name" yaml:"name"`
	ClientID     string   `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string   `mapstructure:"client_secret" yaml:"client_secret,omitempty"` // falls back to the keyring under "oidc:<name>"
	AuthURL      string   `mapstructure:"auth_url" yaml:"auth_url"`
	TokenURL     string   `mapstructure:"token_url" yaml:"token_url"`
	RedirectURL  string   `mapstructure:"redirect_url" yaml:"redirect_url"`
	Scopes       []string `mapstructure:"scopes" yaml:"scopes,omitempty"`
}

// HTTPConfig tunes the outbound HTTP client used for Jira calls.
type HTTPConfig struct {
	// Timeout of zero leaves the transport defaults in charge.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServeConfig holds settings for the inbound HTTP service.
type ServeConfig struct {
	Addr          string `mapstructure:"addr"`
	UserHeader    string `mapstructure:"user_header"`
	PublicURL     string `mapstructure:"public_url"`
	AuthorizePath string `mapstructure:"authorize_path"`
	LoginURL      string `mapstructure:"login_url"`
}

// AppConfig holds the overall application configuration.
type AppConfig struct {
	Servers     []ServerConfig     `mapstructure:"servers"`
	OIDCClients []OIDCClientConfig `mapstructure:"oidc_clients"`
	HTTP        HTTPConfig         `mapstructure:"http"`
	Serve       ServeConfig        `mapstructure:"serve"`
}

// OIDCClient returns the OIDC client configuration with the given name.
func (c *AppConfig) OIDCClient(name string) (*OIDCClientConfig, error) {
	for i := range c.OIDCClients {
		if c.OIDCClients[i].Name == name {
			return &c.OIDCClients[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrOIDCClientNotFound, name)
}

// LoadConfig loads the application configuration from the config file (e.g., ~/.jirapro/config.yaml or baseDir/config.yaml),
// environment variables (JIRAPRO_*), and sets defaults.
// If baseDir is empty, it uses the default ~/.jirapro.
func LoadConfig(baseDir string) (*AppConfig, error) {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure config directory: %w", err)
	}

	v := viper.New()

	v.SetDefault("http.timeout", "0s")
	v.SetDefault("serve.addr", ":8089")
	v.SetDefault("serve.user_header", "X-Remote-User")
	v.SetDefault("serve.public_url", "http://localhost:8089")
	v.SetDefault("serve.authorize_path", "/oauth/authorize")
	v.SetDefault("serve.login_url", "/login")

	configPath := filepath.Join(configDir, DefaultConfigFileName)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	log.Debug().Str("path", configPath).Msg("Attempting to load config file")

	v.SetEnvPrefix("JIRAPRO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // serve.addr -> JIRAPRO_SERVE_ADDR

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Str("path", configPath).Msg("Config file not found. Using defaults and environment variables.")
		} else {
			log.Error().Err(err).Str("path", configPath).Msg("Failed to read config file")
			return nil, fmt.Errorf("%w: %w", ErrConfigRead, err)
		}
	} else {
		log.Debug().Str("path", configPath).Msg("Read config file successfully")
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("Failed to unmarshal config file")
		return nil, fmt.Errorf("%w: %w", ErrConfigParse, err)
	}

	if err := validateServers(cfg.Servers); err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("Invalid server registry")
		return nil, err
	}
	log.Debug().Str("path", configPath).Int("servers", len(cfg.Servers)).Msg("Unmarshalled config successfully")

	return &cfg, nil
}

func validateServers(servers []ServerConfig) error {
	seen := make(map[string]bool, len(servers))
	for _, s := range servers {
		if s.ID == "" {
			return fmt.Errorf("%w: server entry without id", ErrServerInvalid)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate server id %q", ErrServerInvalid, s.ID)
		}
		seen[s.ID] = true
		if s.URL == "" {
			return fmt.Errorf("%w: server %q has no url", ErrServerInvalid, s.ID)
		}
	}
	return nil
}

// OAuthConfig links a Jira server to the OIDC client configuration used to authenticate against it.
type OAuthConfig struct {
	ID                    string `yaml:"id"`
	OIDCConfigName        string `yaml:"oidc_config_name"`
	RequireAuthentication bool   `yaml:"require_authentication"`
}

// OAuthConfigs holds the list of OAuth configuration records.
type OAuthConfigs struct {
	Configs []OAuthConfig `yaml:"configs"`
}

// Lookup returns the record whose id matches serverID.
func (c OAuthConfigs) Lookup(serverID string) (*OAuthConfig, bool) {
	for i := range c.Configs {
		if c.Configs[i].ID == serverID {
			return &c.Configs[i], true
		}
	}
	return nil, false
}

// LoadOAuthConfigs loads the OAuth records from the oauth file (e.g., ~/.jirapro/oauth.yaml).
// It returns an empty OAuthConfigs if the file doesn't exist.
// It returns an error if the file exists but cannot be read or parsed.
func LoadOAuthConfigs(baseDir string) (OAuthConfigs, error) {
	var cfg OAuthConfigs

	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return cfg, fmt.Errorf("failed to ensure config directory for oauth records: %w", err)
	}

	oauthPath := filepath.Join(configDir, DefaultOAuthFileName)
	log.Debug().Str("path", oauthPath).Msg("Attempting to load oauth file")

	fileBytes, err := os.ReadFile(oauthPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", oauthPath).Msg("OAuth file not found, returning empty oauth config")
			return cfg, nil
		}
		log.Error().Err(err).Str("path", oauthPath).Msg("Failed to read oauth file")
		return cfg, fmt.Errorf("%w: %w", ErrOAuthRead, err)
	}

	if err := yaml.Unmarshal(fileBytes, &cfg); err != nil {
		log.Error().Err(err).Str("path", oauthPath).Msg("Failed to parse oauth file")
		return cfg, fmt.Errorf("%w: %w", ErrOAuthParse, err)
	}
	log.Debug().Str("path", oauthPath).Int("records", len(cfg.Configs)).Msg("Parsed oauth file successfully")

	if cfg.Configs == nil {
		cfg.Configs = []OAuthConfig{}
	}
	return cfg, nil
}

// FileReader serves OAuth records from oauth.yaml. Each lookup re-reads the file so
// edits are picked up without a restart.
type FileReader struct {
	BaseDir string
}

// OAuthConfig returns the OAuth record for serverID.
func (r FileReader) OAuthConfig(serverID string) (*OAuthConfig, error) {
	cfgs, err := LoadOAuthConfigs(r.BaseDir)
	if err != nil {
		return nil, err
	}
	rec, ok := cfgs.Lookup(serverID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOAuthConfigNotFound, serverID)
	}
	return rec, nil
}

// --- Default File Creation ---

const defaultConfigYAML = `# Configuration for the Jira Pro connector (jpro)
# Located at ~/.jirapro/config.yaml

# Jira instances that can be targeted by suggest/create operations.
servers:
  - id: "corp"
    url: "https://jira.example.com"
    auth:
      type: "basic"          # password is read from the keychain ("jpro config set-secret corp")
      username: "wiki-bot"
  # - id: "cloud"
  #   url: "https://example.atlassian.net"
  #   auth:
  #     type: "oauth"        # see oauth.yaml

# OAuth2 client registrations used by oauth servers.
oidc_clients: []
#  - name: "jira-cloud"
#    client_id: "..."
#    auth_url: "https://auth.atlassian.com/authorize"
#    token_url: "https://auth.atlassian.com/oauth/token"
#    redirect_url: "http://localhost:8089/oauth/callback"
#    scopes: ["read:jira-work", "write:jira-work", "offline_access"]

http:
  timeout: "0s"   # 0 keeps the transport defaults

serve:
  addr: ":8089"
  user_header: "X-Remote-User"
  public_url: "http://localhost:8089"
  authorize_path: "/oauth/authorize"
  login_url: "/login"
`

const defaultOAuthYAML = `# ~/.jirapro/oauth.yaml
# Links Jira servers using "oauth" authentication to an OIDC client from config.yaml.
configs: []
#  - id: "cloud"                    # server id from config.yaml
#    oidc_config_name: "jira-cloud"
#    require_authentication: true   # hide Jira content entirely until the user authorizes
`

// writeFileIfNotExists checks if a file exists. If not, it writes the provided content.
func writeFileIfNotExists(filePath string, content string, perm os.FileMode) error {
	_, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", filePath).Msg("File does not exist, attempting to write default content")
			if errWrite := os.WriteFile(filePath, []byte(content), perm); errWrite != nil {
				log.Error().Err(errWrite).Str("path", filePath).Msg("Failed to write default file content")
				return fmt.Errorf("%w: %w", ErrDefaultFileWrite, errWrite)
			}
			log.Info().Str("path", filePath).Msg("Successfully wrote default file content")
			return nil
		}
		log.Error().Err(err).Str("path", filePath).Msg("Failed to stat file path")
		return fmt.Errorf("%w: %w", ErrDefaultFileStat, err)
	}
	log.Debug().Str("path", filePath).Msg("File already exists, no action needed")
	return nil
}

// CreateDefaultConfigFiles ensures the configuration directory exists (using default or baseDir)
// and creates config.yaml and oauth.yaml within it if they do not already exist.
func CreateDefaultConfigFiles(baseDir string) error {
	configDir, err := EnsureConfigDir(baseDir)
	if err != nil {
		return fmt.Errorf("failed to ensure config directory: %w", err)
	}

	filesToCreate := []struct {
		name    string
		content string
		perm    os.FileMode
	}{
		{DefaultConfigFileName, defaultConfigYAML, 0600},
		{DefaultOAuthFileName, defaultOAuthYAML, 0600},
	}

	for _, file := range filesToCreate {
		filePath := filepath.Join(configDir, file.name)
		log.Debug().Str("file", file.name).Msg("Ensuring default file")
		if err := writeFileIfNotExists(filePath, file.content, file.perm); err != nil {
			return err
		}
	}

	return nil
}
