// Package config provides configuration loading for the accord CLI:
// defaults, an optional YAML config file, and ACCORD_* environment variables,
// in ascending precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "ACCORD"

// Load reads configuration. path selects an explicit config file; when empty
// the default user config path is tried and silently skipped if absent.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if defaultPath := DefaultConfigPath(); defaultPath != "" {
		v.SetConfigFile(defaultPath)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(defaultPath); statErr == nil {
				return nil, fmt.Errorf("read config %s: %w", defaultPath, err)
			}
		}
	}

	cfg := &Config{}
	decode := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decode); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.Path) == "" && strings.TrimSpace(cfg.Store.URL) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// An explicit empty default makes the key visible to AutomaticEnv during
	// Unmarshal.
	v.SetDefault("token", "")
	v.SetDefault("base_url", "https://api.accord.chat/v1")
	v.SetDefault("user_agent", "accord-cli")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("deadline", 0)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", 500*time.Millisecond)
	v.SetDefault("retry.max_delay", 15*time.Second)
	v.SetDefault("retry.jitter", 0.25)

	v.SetDefault("pace.requests_per_second", 0)
	v.SetDefault("pace.burst", 1)
	v.SetDefault("pace.max_inflight", 0)

	v.SetDefault("routes.table_path", "")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.public_key", "")
	v.SetDefault("server.port", 8264)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("logging.level", "info")
}

// DefaultConfigPath returns the user config file location, empty when the
// user config directory cannot be determined.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "accord", "config.yaml")
}

// DefaultStorePath returns the bucket state database location.
func DefaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "./accord.db"
	}
	return filepath.Join(dir, "accord", "accord.db")
}
