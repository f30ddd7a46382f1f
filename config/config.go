// Package config loads the gateway's runtime configuration via viper:
// a config file (if present), overridden by MESHGWD_-prefixed
// environment variables, overridden by explicit defaults only where
// neither is set.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full set of settings the gateway reads at startup.
type Config struct {
	Radio      RadioConfig
	Redis      RedisConfig
	DDF        DDFConfig
	Log        LogConfig
	SecretsKey string // passphrase sealing secrets at rest; required
}

// RadioConfig selects and tunes the serial radio driver.
type RadioConfig struct {
	Device   string // e.g. /dev/ttyUSB0
	BaudRate int
}

// RedisConfig configures the debounced persistence writer.
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// DDFConfig locates device description bundles on disk.
type DDFConfig struct {
	Directory string
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string // debug|info|warn|error
	Format string // text|json
}

// Load reads configuration from an optional config file located by
// viper's search paths, environment variables prefixed MESHGWD_, and
// falls back to defaults for anything left unset.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MESHGWD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("radio.device", "/dev/ttyUSB0")
	v.SetDefault("radio.baudrate", 38400)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.keyprefix", "meshgwd:persist:")
	v.SetDefault("ddf.directory", "/etc/meshgwd/ddf")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("meshgwd")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/meshgwd")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Radio: RadioConfig{
			Device:   v.GetString("radio.device"),
			BaudRate: v.GetInt("radio.baudrate"),
		},
		Redis: RedisConfig{
			URL:       v.GetString("redis.url"),
			KeyPrefix: v.GetString("redis.keyprefix"),
		},
		DDF: DDFConfig{
			Directory: v.GetString("ddf.directory"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		SecretsKey: v.GetString("secretskey"),
	}

	if cfg.SecretsKey == "" {
		return nil, fmt.Errorf("secretskey is required (set MESHGWD_SECRETSKEY or secretskey in the config file)")
	}

	return cfg, nil
}
