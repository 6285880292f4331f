package msd

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for msd.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Shares     SharesConfig     `toml:"shares"`
	SSDP       SSDPConfig       `toml:"ssdp"`
	Probe      ProbeConfig      `toml:"probe"`
	Thumbnails ThumbnailsConfig `toml:"thumbnails"`
	Browse     BrowseConfig     `toml:"browse"`
}

// ServerConfig defines the device identity, listener and logging.
type ServerConfig struct {
	Name            string `toml:"name"`
	Host            string `toml:"host"`
	Bind            string `toml:"bind"`
	Port            int    `toml:"port"`
	PortRange       int    `toml:"port_range"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	LogOutput       string `toml:"log_output"`
	LogSource       bool   `toml:"log_source"`
	LogUTC          bool   `toml:"log_utc"`
	LogColor        bool   `toml:"log_color"`
	ShutdownGraceMS int64  `toml:"shutdown_grace_ms"`
	Metrics         bool   `toml:"metrics"`
}

// SharesConfig lists the shared folders.
type SharesConfig struct {
	Folders []string `toml:"folders"`
}

// SSDPConfig tunes discovery announcements.
type SSDPConfig struct {
	Enabled          bool `toml:"enabled"`
	MaxAge           int  `toml:"max_age"`
	InitialIntervalS int  `toml:"initial_interval_s"`
	MaxIntervalS     int  `toml:"max_interval_s"`
}

// ProbeConfig configures the ffprobe and ffmpeg collaborators.
type ProbeConfig struct {
	Enabled     bool   `toml:"enabled"`
	FFprobe     string `toml:"ffprobe"`
	FFmpeg      string `toml:"ffmpeg"`
	TimeoutMS   int64  `toml:"timeout_ms"`
	CacheMB     int    `toml:"cache_mb"`
	CacheTTLMin int    `toml:"cache_ttl_min"`
}

// ThumbnailsConfig configures the thumbnail cache.
type ThumbnailsConfig struct {
	Enabled  bool `toml:"enabled"`
	Capacity int  `toml:"capacity"`
	Width    int  `toml:"width"`
}

// BrowseConfig controls DIDL-Lite metadata.
type BrowseConfig struct {
	ReadTags  bool `toml:"read_tags"`
	Durations bool `toml:"durations"`
}

// DefaultConfig returns the configuration used when no file sets a value.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8200,
			PortRange:       10,
			LogLevel:        "info",
			LogFormat:       "text",
			LogOutput:       "stderr",
			ShutdownGraceMS: 5000,
		},
		SSDP: SSDPConfig{
			Enabled:          true,
			MaxAge:           1800,
			InitialIntervalS: 60,
			MaxIntervalS:     1800,
		},
		Probe: ProbeConfig{
			Enabled:     true,
			FFprobe:     "ffprobe",
			FFmpeg:      "ffmpeg",
			TimeoutMS:   5000,
			CacheMB:     4,
			CacheTTLMin: 60,
		},
		Thumbnails: ThumbnailsConfig{
			Enabled:  true,
			Capacity: 100,
			Width:    160,
		},
		Browse: BrowseConfig{
			ReadTags:  true,
			Durations: true,
		},
	}
}

// ApplyDefaults fills zero numeric and string values left by a partial file.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.PortRange <= 0 {
		c.Server.PortRange = def.Server.PortRange
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = def.Server.LogFormat
	}
	if c.Server.LogOutput == "" {
		c.Server.LogOutput = def.Server.LogOutput
	}
	if c.Server.ShutdownGraceMS <= 0 {
		c.Server.ShutdownGraceMS = def.Server.ShutdownGraceMS
	}
	if c.SSDP.MaxAge <= 0 {
		c.SSDP.MaxAge = def.SSDP.MaxAge
	}
	if c.SSDP.InitialIntervalS <= 0 {
		c.SSDP.InitialIntervalS = def.SSDP.InitialIntervalS
	}
	if c.SSDP.MaxIntervalS < c.SSDP.InitialIntervalS {
		c.SSDP.MaxIntervalS = max(def.SSDP.MaxIntervalS, c.SSDP.InitialIntervalS)
	}
	if c.Probe.FFprobe == "" {
		c.Probe.FFprobe = def.Probe.FFprobe
	}
	if c.Probe.FFmpeg == "" {
		c.Probe.FFmpeg = def.Probe.FFmpeg
	}
	if c.Probe.TimeoutMS <= 0 {
		c.Probe.TimeoutMS = def.Probe.TimeoutMS
	}
	if c.Probe.CacheMB <= 0 {
		c.Probe.CacheMB = def.Probe.CacheMB
	}
	if c.Probe.CacheTTLMin <= 0 {
		c.Probe.CacheTTLMin = def.Probe.CacheTTLMin
	}
	if c.Thumbnails.Capacity <= 0 {
		c.Thumbnails.Capacity = def.Thumbnails.Capacity
	}
	if c.Thumbnails.Width <= 0 {
		c.Thumbnails.Width = def.Thumbnails.Width
	}
}

// ShutdownGrace returns the HTTP drain period.
func (c Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Server.ShutdownGraceMS) * time.Millisecond
}

// LoadConfig loads a config file from path over the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults when path does not exist
// and was not explicitly requested.
func LoadOrDefault(path string, explicit bool) (Config, error) {
	cfg, err := LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return Config{}, err
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "msd", "msd.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "msd", "msd.toml"), nil
}
