package config

import "time"

// Config holds autolora configuration.
// Stored at: ~/.autolora/config.yaml or ./autolora.yaml
type Config struct {
	Store  StoreCfg  `mapstructure:"store" yaml:"store"`
	Loras  LorasCfg  `mapstructure:"loras" yaml:"loras"`
	Remote RemoteCfg `mapstructure:"remote" yaml:"remote"`
	Scan   ScanCfg   `mapstructure:"scan" yaml:"scan"`
	Watch  WatchCfg  `mapstructure:"watch" yaml:"watch"`
	Log    LogCfg    `mapstructure:"log" yaml:"log"`
}

type StoreCfg struct {
	// Path of the trigger store document. Empty means the home directory.
	Path string `mapstructure:"path" yaml:"path"`
}

type LorasCfg struct {
	// Dirs are searched in order; the first is the scan root.
	Dirs       []string `mapstructure:"dirs" yaml:"dirs"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// RemoteCfg configures the Civitai search client.
type RemoteCfg struct {
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
	Limit             int     `mapstructure:"limit" yaml:"limit"`
	Timeout           string  `mapstructure:"timeout" yaml:"timeout"` // Go duration, "0s" disables
	MaxRetries        int     `mapstructure:"max_retries" yaml:"max_retries"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	UserAgent         string  `mapstructure:"user_agent" yaml:"user_agent"`
	APIKey            string  `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
}

type ScanCfg struct {
	// UseIndex prefetches .civitai.info sidecars through DuckDB.
	UseIndex bool `mapstructure:"use_index" yaml:"use_index"`
}

type WatchCfg struct {
	Debounce string `mapstructure:"debounce" yaml:"debounce"`
}

type LogCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreCfg{Path: ""},
		Loras: LorasCfg{
			Dirs:       []string{"~/ComfyUI/models/loras"},
			Extensions: []string{".safetensors", ".ckpt"},
		},
		Remote: RemoteCfg{
			BaseURL:           "https://civitai.com/api/v1",
			Limit:             1,
			Timeout:           "0s",
			MaxRetries:        3,
			RequestsPerSecond: 2,
			UserAgent:         "Mozilla/5.0",
			APIKey:            "${CIVITAI_API_KEY}",
		},
		Scan:  ScanCfg{UseIndex: true},
		Watch: WatchCfg{Debounce: "2s"},
		Log: LogCfg{
			Level:  "info",
			Format: "console",
		},
	}
}

// TimeoutDuration parses Remote.Timeout. Invalid values mean no timeout.
func (r RemoteCfg) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DebounceDuration parses Watch.Debounce, falling back to two seconds.
func (w WatchCfg) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}
