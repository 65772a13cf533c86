package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "anner-rdf.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/anner-rdf"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvFile is the dotenv file read from the working directory
	EnvFile = ".env"
	// EnvPrefix prefixes every environment override
	EnvPrefix = "ANNER_RDF_"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger    *slog.Logger
	homeDir   string
	workDir   string
	file      string
	lookupEnv func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigFile loads path instead of searching for a project config.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) { l.file = path }
}

// WithHomeDir overrides the directory holding the user config.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) { l.homeDir = dir }
}

// WithWorkDir overrides the directory the project config search and the
// .env lookup start from.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// WithLookupEnv overrides the environment lookup.
func WithLookupEnv(fn func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		if fn != nil {
			l.lookupEnv = fn
		}
	}
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	if l.homeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			l.homeDir = home
		}
	}
	if l.workDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			l.workDir = cwd
		}
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/anner-rdf/config.yaml)
// 3. Project config (anner-rdf.yaml in current or parent directories, or --config)
// 4. .env in the working directory
// 5. ANNER_RDF_* environment variables
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := loadLayer(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// An explicit config file must load; a discovered one only warns
	if l.file != "" {
		fileConfig, err := loadLayer(l.file)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", l.file))
		config.Merge(fileConfig)
	} else if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := loadLayer(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if err := l.applyEnv(config); err != nil {
		return nil, err
	}

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
		return fmt.Errorf("no home directory for user config")
	}

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for anner-rdf.yaml in the work directory and its parents
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// envOverride binds one environment variable to a config field.
type envOverride struct {
	key   string
	apply func(c *Config, value string) error
}

func stringField(get func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*get(c) = v
		return nil
	}
}

var envOverrides = []envOverride{
	{"OUTPUT_FORMAT", stringField(func(c *Config) *string { return &c.Output.Format })},
	{"OUTPUT_DIR", stringField(func(c *Config) *string { return &c.Output.Dir })},
	{"PUBLICATION_TITLE", stringField(func(c *Config) *string { return &c.Publication.Title })},
	{"PUBLICATION_DATE", stringField(func(c *Config) *string { return &c.Publication.Date })},
	{"PUBLICATION_DOI", stringField(func(c *Config) *string { return &c.Publication.DOI })},
	{"SCHEMA_NAME", stringField(func(c *Config) *string { return &c.Schema.Name })},
	{"SCHEMA_LABELS", func(c *Config, v string) error {
		c.Schema.Labels = splitList(v)
		return nil
	}},
	{"SCHEMA_NER_SYSTEM", stringField(func(c *Config) *string { return &c.Schema.NERSystem })},
	{"SCHEMA_NER_VERSION", stringField(func(c *Config) *string { return &c.Schema.NERVersion })},
	{"NATS_URL", stringField(func(c *Config) *string { return &c.NATS.URL })},
	{"NATS_SUBJECT", stringField(func(c *Config) *string { return &c.NATS.Subject })},
	{"SERVER_ADDR", stringField(func(c *Config) *string { return &c.Server.Addr })},
	{"SERVER_MAX_BODY_BYTES", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Server.MaxBodyBytes = n
		return nil
	}},
	{"WATCH_DEBOUNCE", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Watch.Debounce = d
		return nil
	}},
	{"WATCH_EXCLUDE_DIRS", func(c *Config, v string) error {
		c.Watch.ExcludeDirs = splitList(v)
		return nil
	}},
}

// applyEnv applies .env values and then process environment values; the
// process environment wins over .env.
func (l *Loader) applyEnv(c *Config) error {
	dotenv := map[string]string{}
	if l.workDir != "" {
		envPath := filepath.Join(l.workDir, EnvFile)
		if values, err := godotenv.Read(envPath); err == nil {
			l.logger.Debug("Loaded env file", slog.String("path", envPath))
			dotenv = values
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Failed to load env file", slog.String("path", envPath), slog.String("error", err.Error()))
		}
	}

	for _, o := range envOverrides {
		key := EnvPrefix + o.key
		value, ok := l.lookupEnv(key)
		if !ok {
			value, ok = dotenv[key]
		}
		if !ok || value == "" {
			continue
		}
		if err := o.apply(c, value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
