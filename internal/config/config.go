package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up under Root when no config file is given
const DefaultConfigFile = "scene-lint.yaml"

type Config struct {
	Environment string
	LogLevel    slog.Level

	// Content locations. Relative paths resolve against Root.
	Root        string
	ScenesDir   string
	ItemsPath   string
	EndingsPath string
	AudioPath   string
	PublicDir   string
	ConfigFile  string

	// Rules
	ExternalFlags  []string
	ImagePrefix    string
	RawAudioPrefix string
	StrictItems    bool

	// Output
	Format string
	Color  bool
	Width  int

	// Report cache, disabled when RedisURL is empty
	RedisURL string
	CacheTTL time.Duration

	// Watch mode
	Watch    bool
	Debounce time.Duration
}

// FileConfig is the shape of the optional YAML config file
type FileConfig struct {
	ScenesDir      string   `yaml:"scenesDir"`
	ItemsPath      string   `yaml:"items"`
	EndingsPath    string   `yaml:"endings"`
	AudioPath      string   `yaml:"audio"`
	PublicDir      string   `yaml:"publicDir"`
	ExternalFlags  []string `yaml:"externalFlags"`
	ImagePrefix    string   `yaml:"imagePrefix"`
	RawAudioPrefix string   `yaml:"rawAudioPrefix"`
	StrictItems    *bool    `yaml:"strictItems"`
	Format         string   `yaml:"format"`
}

// Load builds the configuration from defaults, an optional .env file and the environment
func Load() (*Config, error) {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "warn")),
		Root:           getEnv("SCENE_LINT_ROOT", "."),
		ScenesDir:      getEnv("SCENE_LINT_SCENES_DIR", filepath.Join("data", "scenes")),
		ItemsPath:      getEnv("SCENE_LINT_ITEMS", filepath.Join("app", "lib", "items.ts")),
		EndingsPath:    getEnv("SCENE_LINT_ENDINGS", filepath.Join("app", "lib", "endings.ts")),
		AudioPath:      getEnv("SCENE_LINT_AUDIO", filepath.Join("app", "hooks", "useAudio.tsx")),
		PublicDir:      getEnv("SCENE_LINT_PUBLIC_DIR", "public"),
		ConfigFile:     getEnv("SCENE_LINT_CONFIG", ""),
		ExternalFlags:  splitList(getEnv("SCENE_LINT_EXTERNAL_FLAGS", "survived_until_dawn")),
		ImagePrefix:    getEnv("SCENE_LINT_IMAGE_PREFIX", "/images/"),
		RawAudioPrefix: getEnv("SCENE_LINT_RAW_AUDIO_PREFIX", "/"),
		StrictItems:    getEnv("SCENE_LINT_STRICT_ITEMS", "false") == "true",
		Format:         getEnv("SCENE_LINT_FORMAT", "text"),
		RedisURL:       getEnv("REDIS_URL", ""),
	}

	var err error
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("SCENE_LINT_CACHE_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SCENE_LINT_CACHE_TTL: %w", err)
	}
	if cfg.Debounce, err = time.ParseDuration(getEnv("SCENE_LINT_DEBOUNCE", "300ms")); err != nil {
		return nil, fmt.Errorf("invalid SCENE_LINT_DEBOUNCE: %w", err)
	}
	return cfg, nil
}

// ApplyFile overlays the YAML config file onto cfg. Settings for which keep
// returns true (typically flags given on the command line) are left alone.
// With no explicit ConfigFile, Root/scene-lint.yaml is used if it exists.
func (c *Config) ApplyFile(keep func(name string) bool) error {
	if keep == nil {
		keep = func(string) bool { return false }
	}

	path := c.ConfigFile
	explicit := path != ""
	if !explicit {
		path = filepath.Join(c.Root, DefaultConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString := func(name string, dst *string, v string) {
		if v != "" && !keep(name) {
			*dst = v
		}
	}
	setString("scenes", &c.ScenesDir, fc.ScenesDir)
	setString("items", &c.ItemsPath, fc.ItemsPath)
	setString("endings", &c.EndingsPath, fc.EndingsPath)
	setString("audio", &c.AudioPath, fc.AudioPath)
	setString("public", &c.PublicDir, fc.PublicDir)
	setString("image-prefix", &c.ImagePrefix, fc.ImagePrefix)
	setString("raw-audio-prefix", &c.RawAudioPrefix, fc.RawAudioPrefix)
	setString("format", &c.Format, fc.Format)

	if fc.ExternalFlags != nil && !keep("external-flag") {
		c.ExternalFlags = fc.ExternalFlags
	}
	if fc.StrictItems != nil && !keep("strict-items") {
		c.StrictItems = *fc.StrictItems
	}
	return nil
}

// Resolve makes the content paths absolute-or-root-relative
func (c *Config) Resolve() {
	for _, p := range []*string{&c.ScenesDir, &c.ItemsPath, &c.EndingsPath, &c.AudioPath, &c.PublicDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.Root, *p)
		}
	}
}

// Validate reports configuration that cannot produce a run
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported format %q (supported: text, json)", c.Format)
	}
	if c.Width < 0 {
		return fmt.Errorf("width must not be negative: %d", c.Width)
	}
	if c.Watch && c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive in watch mode")
	}
	return nil
}

// WatchPaths lists every directory or file a content change can arrive through
func (c *Config) WatchPaths() []string {
	return []string{c.ScenesDir, c.ItemsPath, c.EndingsPath, c.AudioPath, filepath.Join(c.PublicDir, filepath.FromSlash(strings.Trim(c.ImagePrefix, "/")))}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
