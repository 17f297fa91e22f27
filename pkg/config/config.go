package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"viralstudio/internal/app/model"
)

const (
	DefaultPath = "config.yaml"

	defaultBackendURL      = "http://localhost:8000"
	defaultTrendsPath      = "/trends"
	defaultScriptPath      = "/generate_script"
	defaultVideoPath       = "/generate_video"
	defaultUserAgent       = "viralstudio/1.0"
	defaultMaxSuggestions  = 15
	defaultDownloadRetries = 3
	defaultRetryDelay      = 500 * time.Millisecond
	defaultOutputDir       = "./output"
	defaultGCSPrefix       = "renders"
	defaultLogLevel        = "info"
	defaultLogFile         = "viralstudio.log"
)

type Config struct {
	GCSBucket         string `yaml:"-"`
	GoogleCredentials string `yaml:"-"`

	Backend  BackendConfig  `yaml:"backend"`
	Trends   TrendsConfig   `yaml:"trends"`
	Download DownloadConfig `yaml:"download"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Output   OutputConfig   `yaml:"output"`
	GCS      GCSConfig      `yaml:"gcs"`
	Log      LogConfig      `yaml:"log"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TrendsPath     string `yaml:"trends_path"`
	ScriptPath     string `yaml:"script_path"`
	VideoPath      string `yaml:"video_path"`
	ArtifactPrefix string `yaml:"artifact_prefix"`
	UserAgent      string `yaml:"user_agent"`
}

type TrendsConfig struct {
	MaxSuggestions int `yaml:"max_suggestions"`
}

// DownloadConfig tunes retries for artifact downloads. Retries is a pointer so
// an explicit 0 turns retrying off.
type DownloadConfig struct {
	Retries    *int          `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

func (d DownloadConfig) RetryCount() int {
	if d.Retries == nil {
		return defaultDownloadRetries
	}
	return *d.Retries
}

type WorkflowConfig struct {
	DefaultMode string `yaml:"default_mode"`
	DefaultTier string `yaml:"default_tier"`
}

type OutputConfig struct {
	Dir        string `yaml:"dir"`
	OpenPlayer bool   `yaml:"open_player"`
}

type GCSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads .env and the YAML file at path, applies defaults and env
// overrides, and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	if err := loadYAMLConfig(path, cfg); err != nil {
		return nil, err
	}

	cfg.GCSBucket = os.Getenv("GCS_BUCKET")
	cfg.GoogleCredentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if v := os.Getenv("VIRALSTUDIO_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied and nothing read from disk.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func loadYAMLConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Save writes the YAML sections of cfg to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	if _, err := model.ParseContentMode(c.Workflow.DefaultMode); err != nil {
		return fmt.Errorf("workflow.default_mode: %w", err)
	}
	if _, err := model.ParseModelTier(c.Workflow.DefaultTier); err != nil {
		return fmt.Errorf("workflow.default_tier: %w", err)
	}
	if c.Trends.MaxSuggestions < 0 {
		return fmt.Errorf("trends.max_suggestions must not be negative")
	}
	if c.Download.RetryCount() < 0 {
		return fmt.Errorf("download.retries must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.GCS.Enabled && c.GCSBucket == "" {
		return fmt.Errorf("gcs.enabled requires GCS_BUCKET")
	}
	return nil
}

// Mode is the parsed default mode. Unknown values fall back to MEME.
func (w WorkflowConfig) Mode() model.ContentMode {
	mode, err := model.ParseContentMode(w.DefaultMode)
	if err != nil {
		return model.ModeMeme
	}
	return mode
}

// Tier is the parsed default tier. Unknown values fall back to budget.
func (w WorkflowConfig) Tier() model.ModelTier {
	tier, err := model.ParseModelTier(w.DefaultTier)
	if err != nil {
		return model.TierBudget
	}
	return tier
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q: %w", level, err)
	}
	return l, nil
}

func applyDefaults(cfg *Config) {
	applyBackendDefaults(cfg)
	applyTrendsDefaults(cfg)
	applyDownloadDefaults(cfg)
	applyWorkflowDefaults(cfg)
	applyOutputDefaults(cfg)
	applyGCSDefaults(cfg)
	applyLogDefaults(cfg)
}

func applyBackendDefaults(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaultBackendURL
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.TrendsPath == "" {
		cfg.Backend.TrendsPath = defaultTrendsPath
	}
	if cfg.Backend.ScriptPath == "" {
		cfg.Backend.ScriptPath = defaultScriptPath
	}
	if cfg.Backend.VideoPath == "" {
		cfg.Backend.VideoPath = defaultVideoPath
	}
	if cfg.Backend.ArtifactPrefix == "" {
		cfg.Backend.ArtifactPrefix = model.DefaultArtifactPrefix
	}
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = defaultUserAgent
	}
}

func applyTrendsDefaults(cfg *Config) {
	if cfg.Trends.MaxSuggestions == 0 {
		cfg.Trends.MaxSuggestions = defaultMaxSuggestions
	}
}

func applyDownloadDefaults(cfg *Config) {
	if cfg.Download.Retries == nil {
		retries := defaultDownloadRetries
		cfg.Download.Retries = &retries
	}
	if cfg.Download.RetryDelay == 0 {
		cfg.Download.RetryDelay = defaultRetryDelay
	}
}

func applyWorkflowDefaults(cfg *Config) {
	if cfg.Workflow.DefaultMode == "" {
		cfg.Workflow.DefaultMode = string(model.ModeMeme)
	}
	if cfg.Workflow.DefaultTier == "" {
		cfg.Workflow.DefaultTier = string(model.TierBudget)
	}
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
}

func applyGCSDefaults(cfg *Config) {
	if cfg.GCS.Prefix == "" {
		cfg.GCS.Prefix = defaultGCSPrefix
	}
}

func applyLogDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaultLogFile
	}
}
