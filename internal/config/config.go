package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/attendance-tracker/internal/constants"
)

type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Library   LibraryConfig   `yaml:"library"`
	Capture   CaptureConfig   `yaml:"capture"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Render    RenderConfig    `yaml:"render"`
	Database  DatabaseConfig  `yaml:"database"`
	Notify    NotifyConfig    `yaml:"notify"`
	Web       WebConfig       `yaml:"web"`
}

type EmbeddingConfig struct {
	URL          string `yaml:"url"`          // defaults to http://localhost:8000
	MaxImageSize int    `yaml:"maxImageSize"` // longest side sent to the server, larger frames are downscaled
}

type LibraryConfig struct {
	Dir                  string `yaml:"dir"`                  // <dir>/<person>/<image>
	MaxImagesPerIdentity int    `yaml:"maxImagesPerIdentity"` // 0 loads every image
}

type CaptureConfig struct {
	Source   string        `yaml:"source"`   // directory of frames or camera snapshot URL
	Interval time.Duration `yaml:"interval"` // minimum time between snapshots
	Watch    bool          `yaml:"watch"`    // keep waiting for new files in a directory source
}

type LedgerConfig struct {
	OutputDir string `yaml:"outputDir"`
}

type RenderConfig struct {
	AnnotateDir string `yaml:"annotateDir"` // annotated frames are not written when empty
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`          // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"maxOpenConns"` // Maximum open connections (default 25)
	MaxIdleConns int    `yaml:"maxIdleConns"` // Maximum idle connections (default 5)
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

type WebConfig struct {
	Listen string `yaml:"listen"` // status API is disabled when empty
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			URL:          "http://localhost:8000",
			MaxImageSize: constants.MaxImageSize,
		},
		Library: LibraryConfig{
			Dir:                  constants.DefaultReferenceDir,
			MaxImagesPerIdentity: constants.DefaultMaxImagesPerIdentity,
		},
		Capture: CaptureConfig{
			Interval: constants.DefaultSnapshotInterval * time.Millisecond,
		},
		Ledger: LedgerConfig{
			OutputDir: ".",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Embedding.URL = envString("EMBEDDING_URL", c.Embedding.URL)
	c.Embedding.MaxImageSize = envInt("EMBEDDING_MAX_IMAGE_SIZE", c.Embedding.MaxImageSize)

	c.Library.Dir = envString("FACES_DIR", c.Library.Dir)
	c.Library.MaxImagesPerIdentity = envCount("FACES_MAX_IMAGES_PER_IDENTITY", c.Library.MaxImagesPerIdentity)

	c.Capture.Source = envString("CAPTURE_SOURCE", c.Capture.Source)
	c.Capture.Interval = envDuration("CAPTURE_INTERVAL", c.Capture.Interval)
	c.Capture.Watch = envBool("CAPTURE_WATCH", c.Capture.Watch)

	c.Ledger.OutputDir = envString("ATTENDANCE_OUTPUT_DIR", c.Ledger.OutputDir)
	c.Render.AnnotateDir = envString("ANNOTATE_DIR", c.Render.AnnotateDir)

	c.Database.URL = envString("DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Notify.WebhookURL = envString("WEBHOOK_URL", c.Notify.WebhookURL)
	c.Web.Listen = envString("WEB_LISTEN", c.Web.Listen)
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envCount is envInt that also accepts zero.
func envCount(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envDuration parses values like "250ms" or "2s".
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}
