package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/strrl/autolora/internal/civitai"
	"github.com/strrl/autolora/internal/home"
)

// LocalConfigFile is picked up from the working directory when present.
const LocalConfigFile = "autolora.yaml"

// Load reads configuration from defaults, the config file and AUTOLORA_*
// environment variables, in increasing priority. With an empty cfgFile the
// local autolora.yaml is tried first, then the home directory config. A
// missing config file is not an error.
func Load(cfgFile string, dir *home.Dir) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUTOLORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = findConfigFile(dir)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.expandPaths(dir)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("loras.dirs", d.Loras.Dirs)
	v.SetDefault("loras.extensions", d.Loras.Extensions)
	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.limit", d.Remote.Limit)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.max_retries", d.Remote.MaxRetries)
	v.SetDefault("remote.requests_per_second", d.Remote.RequestsPerSecond)
	v.SetDefault("remote.user_agent", d.Remote.UserAgent)
	v.SetDefault("remote.api_key", d.Remote.APIKey)
	v.SetDefault("scan.use_index", d.Scan.UseIndex)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func findConfigFile(dir *home.Dir) string {
	if _, err := os.Stat(LocalConfigFile); err == nil {
		return LocalConfigFile
	}
	if dir != nil && dir.ConfigExists() {
		return dir.ConfigPath()
	}
	return ""
}

func (c *Config) expandPaths(dir *home.Dir) {
	if c.Store.Path == "" && dir != nil {
		c.Store.Path = dir.StorePath()
	}
	c.Store.Path = ExpandPath(c.Store.Path)

	dirs := make([]string, 0, len(c.Loras.Dirs))
	for _, d := range c.Loras.Dirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, ExpandPath(d))
		}
	}
	c.Loras.Dirs = dirs
}

// ExpandPath replaces a leading ~ with the user's home directory and
// resolves ${ENV_VAR} references.
func ExpandPath(path string) string {
	path = ResolveEnvVars(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if userHome, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(userHome, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// CivitaiConfig converts the remote section for the civitai client,
// resolving ${ENV_VAR} references in the API key.
func (c *Config) CivitaiConfig() civitai.Config {
	return civitai.Config{
		BaseURL:           c.Remote.BaseURL,
		APIKey:            ResolveEnvVars(c.Remote.APIKey),
		UserAgent:         c.Remote.UserAgent,
		Limit:             c.Remote.Limit,
		Timeout:           c.Remote.TimeoutDuration(),
		MaxRetries:        c.Remote.MaxRetries,
		RequestsPerSecond: c.Remote.RequestsPerSecond,
	}
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# autolora configuration
# Environment variables override any key: AUTOLORA_REMOTE_LIMIT=3, AUTOLORA_LOG_LEVEL=debug
# The API key uses ${ENV_VAR} syntax: export CIVITAI_API_KEY=xxx
# An empty store.path keeps the trigger store in ~/.autolora

`)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append(header, data...), 0o644)
}
