package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	notefs "github.com/aretw0/notekeep/pkg/adapters/fs"
)

// Environment variables recognised by LoadConfig.
const (
	EnvURL           = "NOTEKEEP_URL"
	EnvAnonKey       = "NOTEKEEP_ANON_KEY"
	EnvSessionFile   = "NOTEKEEP_SESSION_FILE"
	EnvProbeInterval = "NOTEKEEP_PROBE_INTERVAL"
)

// Config is the resolved client configuration.
type Config struct {
	URL           string        `yaml:"url" validate:"required,url"`
	AnonKey       string        `yaml:"anon_key" validate:"required"`
	SessionFile   string        `yaml:"session_file"`
	ProbeInterval time.Duration `yaml:"probe_interval" validate:"gte=0"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" validate:"gte=0"`

	// Source is the config file that was read, if any.
	Source string `yaml:"-"`
}

// DefaultConfig holds the values used when no source sets them.
func DefaultConfig() Config {
	return Config{
		ProbeInterval: 5 * time.Second,
		ProbeTimeout:  3 * time.Second,
	}
}

// LoadOptions select the sources of LoadConfig.
type LoadOptions struct {
	// File is an explicit config path; it must exist. When empty the file is
	// searched upwards from Dir.
	File string
	// Dir is where the search for the config file and .env starts.
	Dir string
	// Getenv reads the environment; defaults to os.Getenv.
	Getenv func(string) string
}

// LoadConfig merges, from lowest to highest precedence: defaults, the YAML
// config file, the .env file next to it (or in Dir) and the environment.
func LoadConfig(lo LoadOptions) (Config, error) {
	cfg := DefaultConfig()
	if lo.Getenv == nil {
		lo.Getenv = os.Getenv
	}
	if lo.Dir == "" {
		lo.Dir = "."
	}

	path := lo.File
	if path == "" {
		if found, err := FindConfig(lo.Dir); err == nil {
			path = found
		}
	}
	if path != "" {
		if err := readConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		cfg.Source = path
	}

	envDir := lo.Dir
	if path != "" {
		envDir = filepath.Dir(path)
	}
	dotenv, err := godotenv.Read(filepath.Join(envDir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	lookup := func(key string) string {
		if v := lo.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if cfg.SessionFile == "" {
		p, err := notefs.DefaultSessionPath()
		if err != nil {
			return Config{}, err
		}
		cfg.SessionFile = p
	} else if !filepath.IsAbs(cfg.SessionFile) && path != "" {
		cfg.SessionFile = filepath.Join(filepath.Dir(path), cfg.SessionFile)
	}
	return cfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) string) error {
	if v := lookup(EnvURL); v != "" {
		cfg.URL = v
	}
	if v := lookup(EnvAnonKey); v != "" {
		cfg.AnonKey = v
	}
	if v := lookup(EnvSessionFile); v != "" {
		cfg.SessionFile = v
	}
	if v := lookup(EnvProbeInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProbeInterval, err)
		}
		cfg.ProbeInterval = d
	}
	return nil
}

var configValidator = validator.New()

// Validate reports missing or malformed settings by their YAML and env names.
func (c Config) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeField(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func describeField(fe validator.FieldError) string {
	names := map[string]string{
		"URL":           "url (" + EnvURL + ")",
		"AnonKey":       "anon_key (" + EnvAnonKey + ")",
		"ProbeInterval": "probe_interval (" + EnvProbeInterval + ")",
		"ProbeTimeout":  "probe_timeout",
	}
	name, ok := names[fe.Field()]
	if !ok {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "url":
		return name + " must be an absolute URL"
	}
	return fmt.Sprintf("%s fails %s", name, fe.Tag())
}
