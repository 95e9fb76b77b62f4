// Package config loads applectl settings from defaults, a YAML file and
// APPLECTL_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "APPLECTL"

var ErrInvalid = errors.New("invalid configuration")

// Tools are the executables applectl drives. Bare names are looked up on
// PATH.
type Tools struct {
	Xcrun     string `mapstructure:"xcrun"`
	Codesign  string `mapstructure:"codesign"`
	Spctl     string `mapstructure:"spctl"`
	IOSDeploy string `mapstructure:"ios_deploy"`
}

type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type IOSDeploy struct {
	// Timeout is how long --detect waits for devices, in seconds.
	Timeout int  `mapstructure:"timeout"`
	WiFi    bool `mapstructure:"wifi"`
}

type Watch struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type Config struct {
	Tools     Tools     `mapstructure:"tools"`
	Log       Log       `mapstructure:"log"`
	IOSDeploy IOSDeploy `mapstructure:"ios_deploy"`
	Watch     Watch     `mapstructure:"watch"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tools.xcrun", "xcrun")
	v.SetDefault("tools.codesign", "codesign")
	v.SetDefault("tools.spctl", "spctl")
	v.SetDefault("tools.ios_deploy", "ios-deploy")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("ios_deploy.timeout", 1)
	v.SetDefault("ios_deploy.wifi", true)
	v.SetDefault("watch.debounce", "750ms")
}

// DefaultDir is $XDG_CONFIG_HOME/applectl, falling back to ~/.config/applectl.
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "applectl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "applectl")
}

// Load reads the configuration. An empty path looks for config.yaml in
// DefaultDir and is not an error when none exists; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if dir := DefaultDir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	for key, val := range map[string]string{
		"tools.xcrun":      c.Tools.Xcrun,
		"tools.codesign":   c.Tools.Codesign,
		"tools.spctl":      c.Tools.Spctl,
		"tools.ios_deploy": c.Tools.IOSDeploy,
	} {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is empty", ErrInvalid, key))
		}
	}
	if c.IOSDeploy.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: ios_deploy.timeout must be positive, got %d", ErrInvalid, c.IOSDeploy.Timeout))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: watch.debounce must not be negative, got %s", ErrInvalid, c.Watch.Debounce))
	}
	return errors.Join(errs...)
}
