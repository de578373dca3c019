package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
	"github.com/dmitrijs2005/filekeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// both "1h" style strings and integer nanoseconds. Fields left out of the
// file keep their current value.
type FileConfig struct {
	HTTPAddr       string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr       string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN    string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey      string         `json:"secret_key" yaml:"secret_key"`
	TokenTTL       timex.Duration `json:"token_ttl" yaml:"token_ttl"`
	StorageBackend string         `json:"storage_backend" yaml:"storage_backend"`
	StorageDir     string         `json:"storage_dir" yaml:"storage_dir"`
	FileExt        string         `json:"file_ext" yaml:"file_ext"`
	S3Endpoint     string         `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3Region       string         `json:"s3_region" yaml:"s3_region"`
	S3AccessKey    string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket       string         `json:"s3_bucket" yaml:"s3_bucket"`
	SweepInterval  timex.Duration `json:"sweep_interval" yaml:"sweep_interval"`
	Retention      timex.Duration `json:"retention" yaml:"retention"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	MaxUploadBytes int64          `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	CORSOrigins    []string       `json:"cors_origins" yaml:"cors_origins"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	BcryptCost     int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	AdminLogin     string         `json:"admin_login" yaml:"admin_login"`
	AdminPassword  string         `json:"admin_password" yaml:"admin_password"`
}

// parseFile overlays the file named by -c/-config. Files ending in .yaml or
// .yml are read as YAML, anything else as JSON.
func parseFile(c *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return err
	}

	fc.apply(c)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	str := func(src string, dst *string) {
		if src != "" {
			*dst = src
		}
	}
	dur := func(src timex.Duration, dst *time.Duration) {
		if src.Duration != 0 {
			*dst = src.Duration
		}
	}

	str(fc.HTTPAddr, &c.HTTPAddr)
	str(fc.GRPCAddr, &c.GRPCAddr)
	str(fc.DatabaseDSN, &c.DatabaseDSN)
	str(fc.SecretKey, &c.SecretKey)
	dur(fc.TokenTTL, &c.TokenTTL)
	str(fc.StorageBackend, &c.StorageBackend)
	str(fc.StorageDir, &c.StorageDir)
	str(fc.FileExt, &c.FileExt)
	str(fc.S3Endpoint, &c.S3Endpoint)
	str(fc.S3Region, &c.S3Region)
	str(fc.S3AccessKey, &c.S3AccessKey)
	str(fc.S3SecretKey, &c.S3SecretKey)
	str(fc.S3Bucket, &c.S3Bucket)
	dur(fc.SweepInterval, &c.SweepInterval)
	dur(fc.Retention, &c.Retention)
	dur(fc.RequestTimeout, &c.RequestTimeout)
	str(fc.LogLevel, &c.LogLevel)
	str(fc.AdminLogin, &c.AdminLogin)
	str(fc.AdminPassword, &c.AdminPassword)

	if fc.MaxUploadBytes != 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.BcryptCost != 0 {
		c.BcryptCost = fc.BcryptCost
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
}
