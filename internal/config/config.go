// Package config loads contactbook settings from an optional YAML file and
// CONTACTBOOK_* environment variables. Command-line flags are applied by the
// caller on top of the returned value.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"contactbook/internal/blob"
	"contactbook/internal/core"
)

// DefaultFile is read when no config path is given and the file exists.
const DefaultFile = "contactbook.yaml"

// Config is the full application configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	Blob    Blob    `yaml:"blob"`
	Metrics Metrics `yaml:"metrics"`
}

// Storage selects the person store.
type Storage struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	InitScript  string `yaml:"init_script"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

// Blob selects where exports are written.
type Blob struct {
	Driver string `yaml:"driver"`
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

// S3 configures the S3 blob driver.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Metrics configures the Prometheus textfile written after each command.
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Storage: Storage{Driver: string(core.StorageSQLite)},
		Log:     Log{Level: "info"},
		Blob:    Blob{Driver: string(blob.DriverFilesystem)},
	}
}

// Load reads path (or DefaultFile when path is empty and the file exists),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, iofs.ErrNotExist):
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode merges YAML from r into cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with any CONTACTBOOK_* variables that are set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
	str("CONTACTBOOK_STORAGE_DRIVER", &c.Storage.Driver)
	str("CONTACTBOOK_SQLITE_PATH", &c.Storage.SQLitePath)
	str("CONTACTBOOK_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("CONTACTBOOK_INIT_SCRIPT", &c.Storage.InitScript)
	str("CONTACTBOOK_LOG_LEVEL", &c.Log.Level)
	boolean("CONTACTBOOK_LOG_JSON", &c.Log.JSON)
	str("CONTACTBOOK_LOG_FILE", &c.Log.File)
	str("CONTACTBOOK_BLOB_DRIVER", &c.Blob.Driver)
	str("CONTACTBOOK_BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("CONTACTBOOK_BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	str("CONTACTBOOK_BLOB_S3_REGION", &c.Blob.S3.Region)
	str("CONTACTBOOK_BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	boolean("CONTACTBOOK_BLOB_S3_PATH_STYLE", &c.Blob.S3.PathStyle)
	str("CONTACTBOOK_BLOB_S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	str("CONTACTBOOK_BLOB_S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)
	str("CONTACTBOOK_METRICS_TEXTFILE", &c.Metrics.Textfile)
	return errors.Join(errs...)
}

// Validate rejects unknown drivers and log levels.
func (c Config) Validate() error {
	var errs []error
	if !core.StorageDriver(c.Storage.Driver).Valid() {
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if !blob.Driver(c.Blob.Driver).Valid() {
		errs = append(errs, fmt.Errorf("blob.driver: unknown driver %q", c.Blob.Driver))
	}
	if blob.Driver(c.Blob.Driver) == blob.DriverS3 && c.Blob.S3.Bucket == "" {
		errs = append(errs, errors.New("blob.s3.bucket: required for the s3 driver"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level; empty means info.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(l.Level) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// StorageConfig converts the storage section for core.OpenPersistentStore.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		InitScript:  c.Storage.InitScript,
	}
}

// BlobConfig converts the blob section for blob.Open.
func (c Config) BlobConfig() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:          c.Blob.S3.Bucket,
			Region:          c.Blob.S3.Region,
			Endpoint:        c.Blob.S3.Endpoint,
			PathStyle:       c.Blob.S3.PathStyle,
			AccessKeyID:     c.Blob.S3.AccessKeyID,
			SecretAccessKey: c.Blob.S3.SecretAccessKey,
		},
	}
}
