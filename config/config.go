// Package config loads the service configuration from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/krisalay/image-cache/eviction"
	"github.com/krisalay/image-cache/evictor"
	"github.com/krisalay/image-cache/expiration"
	"github.com/krisalay/image-cache/mirror"
	"github.com/krisalay/image-cache/origin"
	"github.com/krisalay/image-cache/writeback"
)

// Secrets are never read from the file when these are set.
const (
	EnvOriginToken = "IMAGECACHE_ORIGIN_TOKEN"
	EnvS3AccessKey = "IMAGECACHE_S3_ACCESS_KEY"
	EnvS3SecretKey = "IMAGECACHE_S3_SECRET_KEY"
)

const (
	OriginHTTP = "http"
	OriginS3   = "s3"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Cache     Cache     `yaml:"cache"`
	Coalesce  bool      `yaml:"coalesce"`
	Mirror    Mirror    `yaml:"mirror"`
	Origin    Origin    `yaml:"origin"`
	WriteBack WriteBack `yaml:"writeback"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Cache struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Shards        int           `yaml:"shards"`
	MaxBytes      int64         `yaml:"max_bytes"`
	Eviction      string        `yaml:"eviction"`
}

type Mirror struct {
	Enabled bool   `yaml:"enabled"`
	Root    string `yaml:"root"`
}

type Origin struct {
	Kind     string        `yaml:"kind"`
	BaseURL  string        `yaml:"base_url"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
	S3       S3            `yaml:"s3"`
}

type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

type WriteBack struct {
	Workers int           `yaml:"workers"`
	Buffer  int           `yaml:"buffer"`
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Cache: Cache{
			TTL:           expiration.DefaultTTL,
			SweepInterval: evictor.DefaultInterval,
			Shards:        1,
		},
		Coalesce: true,
		Mirror: Mirror{
			Enabled: true,
			Root:    mirror.DefaultRoot,
		},
		Origin: Origin{
			Kind:     OriginHTTP,
			BaseURL:  origin.DefaultBaseURL,
			Timeout:  origin.DefaultTimeout,
			MaxBytes: origin.DefaultMaxBytes,
			S3:       S3{UseSSL: true},
		},
		WriteBack: WriteBack{
			Workers: writeback.DefaultWorkers,
			Buffer:  writeback.DefaultQueue,
			Timeout: writeback.DefaultTimeout,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

/*
Load reads path on top of the defaults, applies environment overrides and
validates the result. An empty path yields the defaults.
*/
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.WithContext(
				errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config file"),
				"path", path,
			)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, errors.WithContext(err, "path", path)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document leaves the defaults untouched.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse config")
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvOriginToken); ok {
		c.Origin.Token = v
	}
	if v, ok := lookup(EnvS3AccessKey); ok {
		c.Origin.S3.AccessKey = v
	}
	if v, ok := lookup(EnvS3SecretKey); ok {
		c.Origin.S3.SecretKey = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return invalid("server.addr", "must not be empty")
	case c.Cache.TTL <= 0:
		return invalid("cache.ttl", "must be positive")
	case c.Cache.SweepInterval <= 0:
		return invalid("cache.sweep_interval", "must be positive")
	case c.Cache.Shards < 1:
		return invalid("cache.shards", "must be at least 1")
	case c.Cache.MaxBytes < 0:
		return invalid("cache.max_bytes", "must not be negative")
	case c.Mirror.Enabled && c.Mirror.Root == "":
		return invalid("mirror.root", "required when the mirror is enabled")
	case c.WriteBack.Workers < 1:
		return invalid("writeback.workers", "must be at least 1")
	case c.WriteBack.Buffer < 1:
		return invalid("writeback.buffer", "must be at least 1")
	}

	if _, err := eviction.ParsePolicyType(c.Cache.Eviction); err != nil {
		return invalid("cache.eviction", err.Error())
	}

	switch c.Origin.Kind {
	case OriginHTTP:
		if c.Origin.BaseURL == "" {
			return invalid("origin.base_url", "required for the http origin")
		}
	case OriginS3:
		if c.Origin.S3.Endpoint == "" || c.Origin.S3.Bucket == "" {
			return invalid("origin.s3", "endpoint and bucket are required")
		}
	default:
		return invalid("origin.kind", "must be http or s3")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", "must be json or text")
	}
	return nil
}

func invalid(field, msg string) error {
	return errors.WithContext(
		errors.New(errors.CodeInvalidConfig, field+" "+msg),
		"field", field,
	)
}
