package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/txthistory/pkg/txthistory/export"
	"github.com/cognicore/txthistory/pkg/txthistory/ingest"
	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
)

// EnvPrefix prefixes every environment override, e.g. TXT_HISTORY_NLP_VERSION.
const EnvPrefix = "TXT_HISTORY_"

// MaxVersionLength bounds processing version tags.
const MaxVersionLength = 50

var versionPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Database configures the result store
type Database struct {
	Path string `yaml:"path"`
}

// NLP configures the analysis pipeline
type NLP struct {
	Version                 string   `yaml:"version"`
	BatchSize               int      `yaml:"batch_size"`
	MaxTextLength           int      `yaml:"max_text_length"`
	EnableSentiment         bool     `yaml:"enable_sentiment"`
	EnableNER               bool     `yaml:"enable_ner"`
	EnableLanguageDetection bool     `yaml:"enable_language_detection"`
	EntitySource            string   `yaml:"entity_source"`
	StoplistPath            string   `yaml:"stoplist_path"`
	ExtraStopwords          []string `yaml:"extra_stopwords"`
	LexiconPath             string   `yaml:"lexicon_path"`
	GazetteerPath           string   `yaml:"gazetteer_path"`
}

// Export configures chunked exports
type Export struct {
	DefaultFormat   string `yaml:"default_format"`
	ChunkSize       string `yaml:"chunk_size"` // e.g. "5MiB"; empty disables size chunking
	LinesPerChunk   int    `yaml:"lines_per_chunk"`
	OutputDirectory string `yaml:"output_directory"`
}

// Cache configures the conversation cache
type Cache struct {
	Size int `yaml:"size"`
}

// AppConfig is the complete application configuration
type AppConfig struct {
	Database Database `yaml:"database"`
	NLP      NLP      `yaml:"nlp"`
	Export   Export   `yaml:"export"`
	Cache    Cache    `yaml:"cache"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Database: Database{Path: "txthistory.db"},
		NLP: NLP{
			Version:                 "v1",
			BatchSize:               100,
			MaxTextLength:           10000,
			EnableSentiment:         true,
			EnableNER:               true,
			EnableLanguageDetection: true,
			EntitySource:            "cased",
		},
		Export: Export{
			DefaultFormat:   "txt",
			OutputDirectory: "exports",
		},
		Cache: Cache{Size: 128},
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. A missing file is not an error; a .env file in the
// working directory is loaded first when present.
func Load(path string) (AppConfig, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return AppConfig{}, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables named
// TXT_HISTORY_<SECTION>_<FIELD>.
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a number", internalerr.ErrInvalidConfig, EnvPrefix, name, v)
			}
			*dst = n
		}
		return nil
	}
	flag := func(name string, dst *bool) error {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a boolean", internalerr.ErrInvalidConfig, EnvPrefix, name, v)
			}
			*dst = b
		}
		return nil
	}

	str("DATABASE_PATH", &c.Database.Path)
	str("NLP_VERSION", &c.NLP.Version)
	str("NLP_ENTITY_SOURCE", &c.NLP.EntitySource)
	str("NLP_STOPLIST_PATH", &c.NLP.StoplistPath)
	str("NLP_LEXICON_PATH", &c.NLP.LexiconPath)
	str("NLP_GAZETTEER_PATH", &c.NLP.GazetteerPath)
	str("EXPORT_DEFAULT_FORMAT", &c.Export.DefaultFormat)
	str("EXPORT_CHUNK_SIZE", &c.Export.ChunkSize)
	str("EXPORT_OUTPUT_DIRECTORY", &c.Export.OutputDirectory)

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"NLP_BATCH_SIZE", &c.NLP.BatchSize},
		{"NLP_MAX_TEXT_LENGTH", &c.NLP.MaxTextLength},
		{"EXPORT_LINES_PER_CHUNK", &c.Export.LinesPerChunk},
		{"CACHE_SIZE", &c.Cache.Size},
	} {
		if err := num(f.name, f.dst); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"NLP_ENABLE_SENTIMENT", &c.NLP.EnableSentiment},
		{"NLP_ENABLE_NER", &c.NLP.EnableNER},
		{"NLP_ENABLE_LANGUAGE_DETECTION", &c.NLP.EnableLanguageDetection},
	} {
		if err := flag(f.name, f.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks field ranges and formats.
func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is required", internalerr.ErrInvalidConfig)
	}
	if err := ValidateVersion(c.NLP.Version); err != nil {
		return fmt.Errorf("%w: nlp.version: %v", internalerr.ErrInvalidConfig, err)
	}
	if c.NLP.BatchSize <= 0 {
		return fmt.Errorf("%w: nlp.batch_size must be positive", internalerr.ErrInvalidConfig)
	}
	if c.NLP.MaxTextLength < 0 {
		return fmt.Errorf("%w: nlp.max_text_length must not be negative", internalerr.ErrInvalidConfig)
	}
	if _, err := ingest.ParseEntitySource(c.NLP.EntitySource); err != nil {
		return fmt.Errorf("%w: nlp.entity_source: %v", internalerr.ErrInvalidConfig, err)
	}
	if _, err := export.ParseFormat(c.Export.DefaultFormat); err != nil {
		return fmt.Errorf("%w: export.default_format: %v", internalerr.ErrInvalidConfig, err)
	}
	if _, err := c.Export.ChunkBytes(); err != nil {
		return err
	}
	if c.Export.LinesPerChunk < 0 {
		return fmt.Errorf("%w: export.lines_per_chunk must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Export.ChunkSize != "" && c.Export.LinesPerChunk > 0 {
		return fmt.Errorf("%w: export.chunk_size and export.lines_per_chunk are mutually exclusive", internalerr.ErrInvalidConfig)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("%w: cache.size must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}

// ChunkBytes parses ChunkSize. It returns 0 when size chunking is disabled.
func (e Export) ChunkBytes() (int64, error) {
	if strings.TrimSpace(e.ChunkSize) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(e.ChunkSize)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: export.chunk_size %q is not a positive size", internalerr.ErrInvalidConfig, e.ChunkSize)
	}
	return int64(n), nil
}

// ValidateVersion checks a processing version tag: non-empty, at most
// MaxVersionLength characters of letters, digits, '.', '_' or '-'.
func ValidateVersion(v string) error {
	if v == "" {
		return fmt.Errorf("%w: processing version is empty", internalerr.ErrInvalidInput)
	}
	if len(v) > MaxVersionLength {
		return fmt.Errorf("%w: processing version longer than %d characters", internalerr.ErrInvalidInput, MaxVersionLength)
	}
	if !versionPattern.MatchString(v) {
		return fmt.Errorf("%w: processing version %q has invalid characters", internalerr.ErrInvalidInput, v)
	}
	return nil
}
