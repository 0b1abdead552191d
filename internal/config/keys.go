package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "MAGIC_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "MAGIC_SERVER_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "storage.data_dir", typ: kString, env: "MAGIC_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "MAGIC_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "context.project_dir", typ: kString, env: "MAGIC_CONTEXT_PROJECT_DIR",
		apply:   func(cfg *Config, v any) { cfg.Context.ProjectDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Context.ProjectDir },
	},
	{
		key: "context.ttl", typ: kDuration, env: "MAGIC_CONTEXT_TTL",
		apply:   func(cfg *Config, v any) { cfg.Context.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Context.TTL },
	},
	{
		key: "context.watch", typ: kBool, env: "MAGIC_CONTEXT_WATCH",
		apply:   func(cfg *Config, v any) { cfg.Context.Watch = v.(bool) },
		extract: func(cfg Config) any { return cfg.Context.Watch },
	},
	{
		key: "history.max_entries", typ: kInt, env: "MAGIC_HISTORY_MAX_ENTRIES",
		apply:   func(cfg *Config, v any) { cfg.History.MaxEntries = v.(int) },
		extract: func(cfg Config) any { return cfg.History.MaxEntries },
	},
	{
		key: "remote.backend", typ: kString, env: "MAGIC_REMOTE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Remote.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Remote.Backend },
	},
	{
		key: "remote.base_url", typ: kString, env: "MAGIC_REMOTE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Remote.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Remote.BaseURL },
	},
	{
		key: "remote.model", typ: kString, env: "MAGIC_REMOTE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Remote.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Remote.Model },
	},
	{
		key: "remote.api_key", typ: kString, env: "MAGIC_REMOTE_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Remote.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Remote.APIKey },
	},
	{
		key: "remote.rate_limit", typ: kFloat, env: "MAGIC_REMOTE_RATE_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Remote.RateLimit = v.(float64) },
		extract: func(cfg Config) any { return cfg.Remote.RateLimit },
	},
	{
		key: "remote.timeout", typ: kDuration, env: "MAGIC_REMOTE_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Remote.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Remote.Timeout },
	},
	{
		key: "pages.templates_file", typ: kString, env: "MAGIC_PAGES_TEMPLATES_FILE",
		apply:   func(cfg *Config, v any) { cfg.Pages.TemplatesFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Pages.TemplatesFile },
	},
}

// parse converts a raw string to the key's type.
func (s keySpec) parse(raw string) (any, error) {
	switch s.typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	case kDuration:
		if raw == "" {
			return time.Duration(0), nil
		}
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}
		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config key %s=%q: %v. Using default value.\n", s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}

// applySecrets fills secrets that are still empty from the keychain. The
// keychain account is the config key.
func applySecrets(cfg *Config, kc keychain) {
	for _, s := range specs {
		if !s.secret || s.extract(*cfg).(string) != "" {
			continue
		}
		if v, err := kc.Get(keychainService, s.key); err == nil && v != "" {
			s.apply(cfg, v)
		}
	}
}
