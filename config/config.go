// Package config loads eduzap settings from flags, environment variables and
// an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. EDUZAP_SERVER_ADDR.
const EnvPrefix = "EDUZAP"

const (
	DriverMemory     = "memory"
	DriverPostgres   = "postgres"
	DriverRedis      = "redis"
	DriverNone       = "none"
	DriverCloudinary = "cloudinary"
	DriverS3         = "s3"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Search     SearchConfig     `mapstructure:"search"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Events     EventsConfig     `mapstructure:"events"`
	Admin      AdminConfig      `mapstructure:"admin"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Prefix          string        `mapstructure:"prefix"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       string        `mapstructure:"body_limit"`
	TrustProxy      bool          `mapstructure:"trust_proxy"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type CacheConfig struct {
	Driver     string        `mapstructure:"driver"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
	PoolSize  int    `mapstructure:"pool_size"`
}

type BlobConfig struct {
	Driver string `mapstructure:"driver"`
	// MaxImageSize is a human-readable limit such as "5MB".
	MaxImageSize string           `mapstructure:"max_image_size"`
	Cloudinary   CloudinaryConfig `mapstructure:"cloudinary"`
	S3           S3Config         `mapstructure:"s3"`
}

// MaxImageBytes parses MaxImageSize. An empty value means no limit.
func (b BlobConfig) MaxImageBytes() (int64, error) {
	if b.MaxImageSize == "" {
		return 0, nil
	}
	size, err := units.FromHumanSize(b.MaxImageSize)
	if err != nil {
		return 0, fmt.Errorf("blob.max_image_size: %w", err)
	}
	if size < 0 {
		return 0, errors.New("blob.max_image_size must not be negative")
	}
	return size, nil
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type S3Config struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	Prefix        string `mapstructure:"prefix"`
}

type SearchConfig struct {
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
	MaxOrigins     int           `mapstructure:"max_origins"`
}

type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type EventsConfig struct {
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	Buffer    int           `mapstructure:"buffer"`
}

type AdminConfig struct {
	// TokenHash is a bcrypt hash of the dashboard token. Empty disables the
	// admin guard.
	TokenHash string `mapstructure:"token_hash"`
}

// SetDefaults registers every key so environment overrides are picked up by
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.prefix", "/api/v1")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.body_limit", "10M")
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("cache.driver", DriverMemory)
	v.SetDefault("cache.ttl", 60*time.Second)
	v.SetDefault("cache.max_entries", 4096)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.namespace", "eduzap:")
	v.SetDefault("redis.pool_size", 8)

	v.SetDefault("blob.driver", DriverNone)
	v.SetDefault("blob.max_image_size", "5MB")
	v.SetDefault("blob.cloudinary.cloud_name", "")
	v.SetDefault("blob.cloudinary.api_key", "")
	v.SetDefault("blob.cloudinary.api_secret", "")
	v.SetDefault("blob.cloudinary.folder", "eduzap")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.access_key", "")
	v.SetDefault("blob.s3.secret_key", "")
	v.SetDefault("blob.s3.public_base_url", "")
	v.SetDefault("blob.s3.prefix", "eduzap")

	v.SetDefault("search.debounce_window", 300*time.Millisecond)
	v.SetDefault("search.max_origins", 10000)

	v.SetDefault("pagination.default_limit", 5)
	v.SetDefault("pagination.max_limit", 100)

	v.SetDefault("events.heartbeat", 25*time.Second)
	v.SetDefault("events.buffer", 16)

	v.SetDefault("admin.token_hash", "")
}

// Load reads configuration from v. When file is non-empty it is read first;
// environment variables override file values.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.Prefix != "" && !strings.HasPrefix(c.Server.Prefix, "/") {
		errs = append(errs, errors.New("server.prefix must start with /"))
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}

	switch c.Cache.Driver {
	case DriverMemory, DriverNone:
	case DriverRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver %q is not supported", c.Cache.Driver))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	switch c.Blob.Driver {
	case DriverNone:
	case DriverCloudinary:
		cl := c.Blob.Cloudinary
		if cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "" {
			errs = append(errs, errors.New("blob.cloudinary requires cloud_name, api_key and api_secret"))
		}
	case DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q is not supported", c.Blob.Driver))
	}

	if _, err := c.Blob.MaxImageBytes(); err != nil {
		errs = append(errs, err)
	}

	if c.Search.DebounceWindow <= 0 {
		errs = append(errs, errors.New("search.debounce_window must be positive"))
	}
	if c.Pagination.DefaultLimit < 1 || c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		errs = append(errs, errors.New("pagination limits must satisfy 1 <= default_limit <= max_limit"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
