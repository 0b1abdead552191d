package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Keychain service under which secrets are stored.
const keychainService = "magic"

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Context ContextConfig
	History HistoryConfig
	Remote  RemoteConfig
	Pages   PagesConfig
}

type ServerConfig struct {
	Port  int
	Token string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type ContextConfig struct {
	ProjectDir string
	TTL        time.Duration
	Watch      bool
}

type HistoryConfig struct {
	MaxEntries int
}

type RemoteConfig struct {
	Backend   string
	BaseURL   string
	Model     string
	APIKey    string
	RateLimit float64
	Timeout   time.Duration
}

type PagesConfig struct {
	TemplatesFile string
}

func defaults() Config {
	projectDir, err := os.Getwd()
	if err != nil {
		projectDir = "."
	}
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Context: ContextConfig{
			ProjectDir: projectDir,
			TTL:        5 * time.Minute,
			Watch:      true,
		},
		History: HistoryConfig{
			MaxEntries: 100,
		},
		Remote: RemoteConfig{
			RateLimit: 2,
		},
		Pages: PagesConfig{
			TemplatesFile: filepath.Join(configDir(), "pages.yaml"),
		},
	}
}

// Load reads configuration from the TOML file at
// $XDG_CONFIG_HOME/magic/config.toml, then environment variables (MAGIC_*),
// then the platform secret store for secrets still unset.
//
// On macOS secrets live in the login Keychain (service: magic); elsewhere in
// $XDG_DATA_HOME/magic/secrets.json.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()), keychainStore{})
}

// keychain abstracts secret storage for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, kc)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Remote.Backend {
	case "", "http", "ollama":
	default:
		return fmt.Errorf("invalid remote.backend %q: want \"\", \"http\" or \"ollama\"", cfg.Remote.Backend)
	}
	if cfg.Remote.Backend == "http" && cfg.Remote.BaseURL == "" {
		return fmt.Errorf("remote.backend \"http\" requires remote.base_url (or MAGIC_REMOTE_BASE_URL)")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", cfg.Log.Level)
	}
	if cfg.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive, got %d", cfg.History.MaxEntries)
	}
	return nil
}

// keychainStore reads and writes the platform secret store.
type keychainStore struct{}

func (keychainStore) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "magic")
}

func configFilePath() string {
	return filepath.Join(configDir(), "config.toml")
}
