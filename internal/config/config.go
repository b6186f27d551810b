// Package config loads guff settings from a YAML file, a .env file and
// GUFF_* environment variables, and validates the result against a CUE
// schema.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/datasync"
	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/speech"
)

// Config holds all settings for the client core, the CLI and the server.
type Config struct {
	BackendURL   string        `yaml:"backend_url" json:"backend_url"`
	Principal    string        `yaml:"principal" json:"principal"`
	DisplayName  string        `yaml:"display_name" json:"display_name"`
	Database     string        `yaml:"database" json:"database"`
	Listen       string        `yaml:"listen" json:"listen"`
	Locale       string        `yaml:"locale" json:"locale"`
	PollVisible  time.Duration `yaml:"poll_visible" json:"poll_visible"`
	PollHidden   time.Duration `yaml:"poll_hidden" json:"poll_hidden"`
	FetchLimit   int           `yaml:"fetch_limit" json:"fetch_limit"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	StopGrace    time.Duration `yaml:"stop_grace" json:"stop_grace"`
	SpeechRate   float64       `yaml:"speech_rate" json:"speech_rate"`
	SpeechPitch  float64       `yaml:"speech_pitch" json:"speech_pitch"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BackendURL:   "http://localhost:8080",
		Database:     "guff.db",
		Listen:       ":8080",
		Locale:       speech.DefaultLang,
		PollVisible:  datasync.DefaultPollVisible,
		PollHidden:   datasync.DefaultPollHidden,
		FetchLimit:   backend.DefaultPageSize,
		FetchTimeout: 30 * time.Second,
		StopGrace:    speech.DefaultStopGrace,
		SpeechRate:   speech.DefaultRate,
		SpeechPitch:  speech.DefaultPitch,
	}
}

// Load reads configuration in increasing precedence: defaults, the YAML file
// at path (skipped when empty), then environment variables. A .env file in
// the working directory, if present, is loaded into the environment first.
func Load(path string) (*Config, error) {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML overlays data onto c. Unknown keys are rejected.
func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from GUFF_* variables.
func (c *Config) applyEnv() error {
	c.BackendURL = getEnv("GUFF_BACKEND_URL", c.BackendURL)
	c.Principal = getEnv("GUFF_PRINCIPAL", c.Principal)
	c.DisplayName = getEnv("GUFF_DISPLAY_NAME", c.DisplayName)
	c.Database = getEnv("GUFF_DATABASE", c.Database)
	c.Listen = getEnv("GUFF_LISTEN", c.Listen)
	c.Locale = getEnv("GUFF_LOCALE", c.Locale)

	var errs []error
	errs = append(errs,
		envDuration("GUFF_POLL_VISIBLE", &c.PollVisible),
		envDuration("GUFF_POLL_HIDDEN", &c.PollHidden),
		envInt("GUFF_FETCH_LIMIT", &c.FetchLimit),
		envDuration("GUFF_FETCH_TIMEOUT", &c.FetchTimeout),
		envDuration("GUFF_STOP_GRACE", &c.StopGrace),
		envFloat("GUFF_SPEECH_RATE", &c.SpeechRate),
		envFloat("GUFF_SPEECH_PITCH", &c.SpeechPitch),
	)
	return errors.Join(errs...)
}

// PrincipalID returns the configured caller identity.
func (c *Config) PrincipalID() model.Principal {
	return model.Principal(c.Principal)
}

// Lang returns the speech locale as a language tag.
func (c *Config) Lang() language.Tag {
	return language.Make(c.Locale)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}
