package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix     = "SAMPLESTORE_"
	ConfigPathEnv = EnvPrefix + "CONFIG"
)

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// legacyEnv maps unprefixed variables that older deployments already set.
var legacyEnv = map[string]string{
	"SQLITE_DB_PATH": "database.path",
}

// sliceKeys are accepted from the environment as comma-separated lists.
var sliceKeys = []string{
	"server.cors_origins",
}

type Config struct {
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Storage  StorageConfig  `koanf:"storage" yaml:"storage"`
	API      APIConfig      `koanf:"api" yaml:"api"`
	Logging  LoggingConfig  `koanf:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host" yaml:"host"`
	Port            int           `koanf:"port" yaml:"port" validate:"min=1,max=65535"`
	Mode            string        `koanf:"mode" yaml:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins" yaml:"cors_origins" validate:"min=1,dive,eq=*|http_url"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" yaml:"path" validate:"required"`
}

type StorageConfig struct {
	UploadDir   string `koanf:"upload_dir" yaml:"upload_dir" validate:"required"`
	DeleteFiles bool   `koanf:"delete_files" yaml:"delete_files"`
}

type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size" yaml:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int `koanf:"max_page_size" yaml:"max_page_size" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller" yaml:"caller"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxUploadBytes:  32 << 20,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "./samplestore.db",
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
		},
		API: APIConfig{
			DefaultPageSize: 10,
			MaxPageSize:     1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load builds the configuration from defaults, then the YAML file at path (or
// the first default path that exists), then SAMPLESTORE_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the explicit path if given; otherwise the path named by
// SAMPLESTORE_CONFIG, otherwise the first default path that exists. An explicit
// path that does not exist is an error; a missing default is not.
func findConfigFile(path string) (string, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}

	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// envKey maps SAMPLESTORE_SECTION_FIELD_NAME to section.field_name. Variables
// that are neither prefixed nor legacy are dropped.
func envKey(key string) string {
	if mapped, ok := legacyEnv[key]; ok {
		return mapped
	}

	rest, ok := strings.CutPrefix(key, EnvPrefix)
	if !ok || rest == "CONFIG" {
		return ""
	}

	section, field, ok := strings.Cut(strings.ToLower(rest), "_")
	if !ok || field == "" {
		return ""
	}
	return section + "." + field
}

func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}

		parts := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
