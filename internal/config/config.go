// Package config loads the YAML configuration of the tablexport command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aerissecure/tablexport"
)

const (
	DefaultAddr     = ":8080"
	DefaultFilename = "export"
	DefaultLevel    = "info"
)

// Config is the top level configuration file.
type Config struct {
	Format tablexport.Format `yaml:"format"`
	Server Server            `yaml:"server"`
	Log    Log               `yaml:"log"`
	Export Export            `yaml:"export"`
}

type Server struct {
	Addr string `yaml:"addr"`
	// DownloadCookie is set on every workbook response so browsers can detect
	// the end of a download. Unset means the default name, an empty string
	// turns the cookie off.
	DownloadCookie *string `yaml:"downloadCookie"`
}

// Cookie returns the download cookie name, def when none is configured.
func (s Server) Cookie(def string) string {
	if s.DownloadCookie == nil {
		return def
	}
	return *s.DownloadCookie
}

type Log struct {
	Level string `yaml:"level"` // debug|info|warn|error
}

// Export holds request defaults.
type Export struct {
	Filename string `yaml:"filename"`
	Title    string `yaml:"title"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Format: tablexport.DefaultFormat(),
		Server: Server{Addr: DefaultAddr},
		Log:    Log{Level: DefaultLevel},
		Export: Export{Filename: DefaultFilename},
	}
}

// Load reads path on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate normalizes the format and checks the remaining fields.
func (c *Config) Validate() error {
	f, err := c.Format.Normalize()
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	c.Format = f
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	case "":
		c.Log.Level = DefaultLevel
	default:
		return fmt.Errorf("log level %q: %w", c.Log.Level, ErrInvalid)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if strings.TrimSpace(c.Export.Filename) == "" {
		c.Export.Filename = DefaultFilename
	}
	return nil
}

var ErrInvalid = errors.New("invalid config")
