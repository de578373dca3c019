// Package config handles configuration for the server component.
//
// Values are layered, later sources overriding earlier ones: built-in
// defaults, optional .env files, FK_* environment variables, a JSON or YAML
// file given by -c/-config, and finally short command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorageDisk = "disk"
	StorageS3   = "s3"
)

// Config holds runtime settings for the FileKeeper server.
//
// An empty DatabaseDSN selects the in-memory repositories, which keep
// nothing across restarts.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	DatabaseDSN string
	SecretKey   string
	TokenTTL    time.Duration

	StorageBackend string
	StorageDir     string
	FileExt        string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string

	SweepInterval  time.Duration
	Retention      time.Duration
	RequestTimeout time.Duration
	MaxUploadBytes int64
	CORSOrigins    []string

	LogLevel      string
	BcryptCost    int
	AdminLogin    string
	AdminPassword string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.SecretKey = "secretKey"
	c.TokenTTL = 24 * time.Hour
	c.StorageBackend = StorageDisk
	c.StorageDir = "./data/files"
	c.FileExt = ".bin"
	c.S3Region = "us-east-1"
	c.S3Bucket = "filekeeper"
	c.SweepInterval = time.Hour
	c.Retention = time.Hour
	c.RequestTimeout = 30 * time.Second
	c.MaxUploadBytes = 10 << 20
	c.LogLevel = "info"
	c.BcryptCost = bcrypt.DefaultCost
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.GRPCAddr, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.TokenTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.StorageBackend, validation.Required, validation.In(StorageDisk, StorageS3)),
		validation.Field(&c.StorageDir, validation.When(c.StorageBackend == StorageDisk, validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.StorageBackend == StorageS3, validation.Required)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Retention, validation.Min(time.Duration(0))),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.BcryptCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&c.AdminPassword, validation.When(c.AdminLogin != "", validation.Required, validation.Length(6, 72))),
	)
}

// Load builds a Config from defaults, the environment seen through lookup,
// the config file named in args and the flags in args.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, lookup); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads .env files into the process environment and then calls
// Load with os.Args and os.LookupEnv.
func LoadConfig() (*Config, error) {
	loadDotEnv(os.Getenv("FK_ENV"))
	return Load(os.Args[1:], os.LookupEnv)
}
