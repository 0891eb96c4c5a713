package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration.
const DefaultPath = "configs/poppybuddy.yaml"

// Environment variables that override file values.
const (
	EnvContentHost = "POPPY_CONTENT_HOST"
	EnvBasePath    = "POPPY_BASE_PATH"
	EnvSiteOrigin  = "POPPY_SITE_ORIGIN"
)

// Config holds the application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Request RequestConfig `yaml:"request"`
	Player  PlayerConfig  `yaml:"player"`
	Assets  AssetsConfig  `yaml:"assets"`
}

// SiteConfig controls the static site build.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Origin      string `yaml:"origin"`       // absolute origin for sitemap links, e.g. https://poppyandbuddy.com
	ContentHost string `yaml:"content_host"` // host serving audio files
	BasePath    string `yaml:"base_path"`    // prefix for static asset URLs
	OutputDir   string `yaml:"output_dir"`
	StaticDir   string `yaml:"static_dir"` // cover art and other files copied into the output
	CatalogPath string `yaml:"catalog_path"`
	FontPath    string `yaml:"font_path"`
	ShareCards  bool   `yaml:"share_cards"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// PlayerConfig holds settings for host-side kiosk playback.
type PlayerConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	SkipStep     Duration `yaml:"skip_step"`
	CacheDir     string   `yaml:"cache_dir"`
	Volume       float64  `yaml:"volume"`
}

// AssetsConfig holds settings for remote asset checks.
type AssetsConfig struct {
	Concurrency int      `yaml:"concurrency"`
	CacheTTL    Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Title:       "Poppy and Buddy",
			Description: "Read along with Poppy and Buddy as they go on adventures!",
			ContentHost: "content.poppyandbuddy.com",
			OutputDir:   "out",
			StaticDir:   "public",
		},
		Server: ServerConfig{
			Address: "localhost:1926",
		},
		Log: LogConfig{
			Server:   LogSettings{Path: "logs/server.log", Level: "INFO"},
			Requests: LogSettings{Path: "logs/requests.log", Level: "INFO"},
			Events:   LogSettings{Path: "logs/events.log", Level: "INFO"},
		},
		DB: DBConfig{
			Path: "data/poppybuddy.db",
		},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(2 * time.Minute),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		Player: PlayerConfig{
			TickInterval: Duration(100 * time.Millisecond),
			SkipStep:     Duration(10 * time.Second),
			CacheDir:     "data/audio",
			Volume:       1.0,
		},
		Assets: AssetsConfig{
			Concurrency: 8,
			CacheTTL:    Duration(Week),
		},
	}
}

// LoadEnv reads a .env file into the process environment. A missing file is not an error.
func LoadEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
		}
	}
}

// ApplyEnv overlays POPPY_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvContentHost); v != "" {
		cfg.Site.ContentHost = v
	}
	if v, ok := os.LookupEnv(EnvBasePath); ok {
		cfg.Site.BasePath = v
	}
	if v := os.Getenv(EnvSiteOrigin); v != "" {
		cfg.Site.Origin = v
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// Existing files are merged over the defaults but never written back, so user
// formatting and comments survive.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var hostPattern = regexp.MustCompile(`^(https?://)?[A-Za-z0-9.-]+(:[0-9]+)?$`)

// Validate rejects values that would produce broken pages.
func (c *Config) Validate() error {
	if c.Site.ContentHost == "" {
		return fmt.Errorf("site.content_host must not be empty")
	}
	if !hostPattern.MatchString(c.Site.ContentHost) {
		return fmt.Errorf("invalid site.content_host '%s': expected a host name such as content.poppyandbuddy.com", c.Site.ContentHost)
	}
	if c.Site.OutputDir == "" {
		return fmt.Errorf("site.output_dir must not be empty")
	}
	if c.Player.Volume < 0 || c.Player.Volume > 1 {
		return fmt.Errorf("player.volume must be between 0 and 1, got %v", c.Player.Volume)
	}
	if c.Assets.Concurrency < 1 {
		return fmt.Errorf("assets.concurrency must be at least 1, got %d", c.Assets.Concurrency)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Poppy and Buddy Configuration
# -----------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Environment overrides: POPPY_CONTENT_HOST, POPPY_BASE_PATH, POPPY_SITE_ORIGIN

`)
	data = append(header, data...)

	reCatalog := regexp.MustCompile(`(?m)^(\s+)catalog_path:`)
	data = reCatalog.ReplaceAll(data, []byte("${1}# Empty uses the built-in catalog; a .yaml, .yml or .toml file or http(s) URL otherwise\n${1}catalog_path:"))

	reVolume := regexp.MustCompile(`(?m)^(\s+)volume:`)
	data = reVolume.ReplaceAll(data, []byte("${1}# 0.0 to 1.0\n${1}volume:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
