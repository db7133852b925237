package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dfryer1193/journal/shared/db/sqlite"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddr = ":8080"
	// callbackPath is where the HTTP API receives the OAuth redirect.
	callbackPath = "/remote/v1/oauth/callback"
)

// Remote selects which remote tier backs the collection.
type Remote string

const (
	// RemoteAuto uses the first remote that has credentials saved.
	RemoteAuto      Remote = "auto"
	RemoteDrive     Remote = "drive"
	RemoteFirestore Remote = "firestore"
	RemoteGist      Remote = "gist"
	RemoteNone      Remote = "none"
)

type Config struct {
	DBPath string      `yaml:"db_path"`
	Addr   string      `yaml:"addr"`
	Remote Remote      `yaml:"remote"`
	Log    LogConfig   `yaml:"log"`
	OAuth  OAuthConfig `yaml:"oauth"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OAuthConfig is the OAuth client used to sign in to Firestore, and the
// redirect shared with Drive sign-in.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

func Default() Config {
	return Config{
		DBPath: sqlite.DefaultPath,
		Addr:   defaultAddr,
		Remote: RemoteAuto,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from the defaults, then the YAML file named
// by JOURNAL_CONFIG if any, then the JOURNAL_* environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("JOURNAL_CONFIG"))
}

// LoadFrom is Load with an explicit YAML file. An empty path skips the file.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	overrides := []struct {
		key string
		dst *string
	}{
		{"JOURNAL_DB_PATH", &cfg.DBPath},
		{"JOURNAL_ADDR", &cfg.Addr},
		{"JOURNAL_LOG_LEVEL", &cfg.Log.Level},
		{"JOURNAL_LOG_FORMAT", &cfg.Log.Format},
		{"JOURNAL_OAUTH_CLIENT_ID", &cfg.OAuth.ClientID},
		{"JOURNAL_OAUTH_CLIENT_SECRET", &cfg.OAuth.ClientSecret},
		{"JOURNAL_OAUTH_REDIRECT_URL", &cfg.OAuth.RedirectURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("JOURNAL_REMOTE"); v != "" {
		cfg.Remote = Remote(strings.ToLower(v))
	}

	if cfg.OAuth.RedirectURL == "" {
		cfg.OAuth.RedirectURL = redirectURL(cfg.Addr)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	switch c.Remote {
	case RemoteAuto, RemoteDrive, RemoteFirestore, RemoteGist, RemoteNone:
	default:
		return fmt.Errorf("unknown remote %q", c.Remote)
	}
	if c.DBPath == "" {
		return errors.New("db path must not be empty")
	}
	return nil
}

func (c Config) SQLite() *sqlite.SQLiteConfig {
	return &sqlite.SQLiteConfig{Path: c.DBPath}
}

func redirectURL(addr string) string {
	host := addr
	if strings.HasPrefix(addr, ":") {
		host = "localhost" + addr
	}
	return "http://" + host + callbackPath
}
