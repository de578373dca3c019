package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv loads ".<env>.env" and then ".env". Variables already present
// in the environment are never overwritten, so the first source wins.
// Missing files are ignored.
func loadDotEnv(env string) {
	if env != "" {
		_ = godotenv.Load("." + env + ".env")
	}
	_ = godotenv.Load()
}

func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("FK_HTTP_ADDR", &c.HTTPAddr)
	str("FK_GRPC_ADDR", &c.GRPCAddr)
	str("FK_DATABASE_DSN", &c.DatabaseDSN)
	str("FK_SECRET_KEY", &c.SecretKey)
	str("FK_STORAGE_BACKEND", &c.StorageBackend)
	str("FK_STORAGE_DIR", &c.StorageDir)
	str("FK_FILE_EXT", &c.FileExt)
	str("FK_S3_ENDPOINT", &c.S3Endpoint)
	str("FK_S3_REGION", &c.S3Region)
	str("FK_S3_ACCESS_KEY", &c.S3AccessKey)
	str("FK_S3_SECRET_KEY", &c.S3SecretKey)
	str("FK_S3_BUCKET", &c.S3Bucket)
	str("FK_LOG_LEVEL", &c.LogLevel)
	str("FK_ADMIN_LOGIN", &c.AdminLogin)
	str("FK_ADMIN_PASSWORD", &c.AdminPassword)

	for key, dst := range map[string]*time.Duration{
		"FK_TOKEN_TTL":       &c.TokenTTL,
		"FK_SWEEP_INTERVAL":  &c.SweepInterval,
		"FK_RETENTION":       &c.Retention,
		"FK_REQUEST_TIMEOUT": &c.RequestTimeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("FK_BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FK_BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}
	if v, ok := lookup("FK_MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FK_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := lookup("FK_CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
