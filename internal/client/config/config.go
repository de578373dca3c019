// Package config handles configuration for the operator CLI: defaults, an
// optional JSON or YAML file given by -c/-config, then command-line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
	"github.com/dmitrijs2005/filekeeper/internal/timex"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerHTTPAddr string
	ServerGRPCAddr string
	RequestTimeout time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerHTTPAddr = "http://127.0.0.1:8080"
	c.ServerGRPCAddr = "127.0.0.1:50051"
	c.RequestTimeout = 30 * time.Second
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerHTTPAddr, validation.Required, is.URL),
		validation.Field(&c.ServerGRPCAddr, validation.Required),
		validation.Field(&c.RequestTimeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

type FileConfig struct {
	ServerHTTPAddr string         `json:"server_http_addr" yaml:"server_http_addr"`
	ServerGRPCAddr string         `json:"server_grpc_addr" yaml:"server_grpc_addr"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

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

func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return err
	}

	if fc.ServerHTTPAddr != "" {
		cfg.ServerHTTPAddr = fc.ServerHTTPAddr
	}
	if fc.ServerGRPCAddr != "" {
		cfg.ServerGRPCAddr = fc.ServerGRPCAddr
	}
	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	return nil
}

// parseFlags applies -a (server HTTP URL), -g (server gRPC address) and
// -t (request timeout).
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-t"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerHTTPAddr, "a", cfg.ServerHTTPAddr, "server HTTP base URL")
	fs.StringVar(&cfg.ServerGRPCAddr, "g", cfg.ServerGRPCAddr, "server gRPC address")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")

	return fs.Parse(args)
}
