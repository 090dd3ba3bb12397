package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "semcrawl.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/semcrawl"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Environment variables that override file configuration.
const (
	EnvNATSURL           = "SEMCRAWL_NATS_URL"
	EnvNATSURLFallback   = "NATS_URL"
	EnvSPARQLEndpoint    = "SEMCRAWL_SPARQL_URL"
	EnvSPARQLUser        = "SEMCRAWL_SPARQL_USER"
	EnvSPARQLPassword    = "SEMCRAWL_SPARQL_PASSWORD"
	EnvSearchURL         = "SEMCRAWL_SEARCH_URL"
	EnvSearchToken       = "SEMCRAWL_SEARCH_TOKEN"
	EnvRegistrationURL   = "SEMCRAWL_REGISTRATION_URL"
	EnvRegistrationToken = "SEMCRAWL_REGISTRATION_TOKEN"
	EnvHTTPAddr          = "SEMCRAWL_HTTP_ADDR"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	getenv func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, getenv: os.Getenv}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/semcrawl/config.yaml)
// 3. Project config (semcrawl.yaml in current or parent directories)
// 4. Explicit config file, if path is non-empty
// 5. Environment variables
func (l *Loader) Load(path string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := loadLayer(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !os.IsNotExist(err) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := loadLayer(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	// An explicit file must load
	if path != "" {
		explicit, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", path))
		config.Merge(explicit)
	}

	l.applyEnv(config)

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()
	if userConfigPath == "" {
		return fmt.Errorf("no home directory")
	}

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

func (l *Loader) applyEnv(c *Config) {
	env := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := l.getenv(k); v != "" {
				*dst = v
				l.logger.Debug("Config overridden from environment", slog.String("var", k))
				return
			}
		}
	}
	env(&c.NATS.URL, EnvNATSURL, EnvNATSURLFallback)
	env(&c.SPARQL.Endpoint, EnvSPARQLEndpoint)
	env(&c.SPARQL.User, EnvSPARQLUser)
	env(&c.SPARQL.Password, EnvSPARQLPassword)
	env(&c.Search.URL, EnvSearchURL)
	env(&c.Search.Token, EnvSearchToken)
	env(&c.Registration.URL, EnvRegistrationURL)
	env(&c.Registration.Token, EnvRegistrationToken)
	env(&c.HTTP.Addr, EnvHTTPAddr)
}

// loadLayer parses a file without defaults so that only the values it sets
// take part in a merge.
func loadLayer(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var layer Config
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &layer, nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for semcrawl.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
