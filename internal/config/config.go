// Package config loads application settings for the CLI and HTTP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/dialect"
)

// EnvPrefix is the prefix of environment overrides, e.g. DMEXPORT_SERVER_PORT.
const EnvPrefix = "DMEXPORT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Export  ExportConfig  `mapstructure:"export"`
	Log     LogConfig     `mapstructure:"log"`
	Profile ProfileConfig `mapstructure:"config"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type ExportConfig struct {
	Dir               string `mapstructure:"dir"`
	BatchSize         int    `mapstructure:"batch_size"`
	TriggerTerminator string `mapstructure:"trigger_terminator"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ProfileConfig locates the saved connection profile file.
type ProfileConfig struct {
	Path string `mapstructure:"path"`
}

// Addr is the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Options control where Load looks for settings.
type Options struct {
	// File is an explicit settings file. When empty, dmexport.yaml or
	// dmexport.toml is searched for in the working directory and ~/.dmexport.
	File string
	// EnvFiles are dotenv files loaded before reading the environment.
	// Missing files are ignored.
	EnvFiles []string
}

// Load reads defaults, the optional settings file, and environment
// overrides, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "SERVER_PORT"); err != nil {
		return nil, fmt.Errorf("%w: bind SERVER_PORT: %w", core.ErrConfig, err)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("dmexport")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dmexport"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: error reading config file: %w", core.ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling config: %w", core.ErrConfig, err)
	}
	cfg.Profile.Path = expandHome(cfg.Profile.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that viper cannot express.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", core.ErrConfig, c.Server.Port)
	}
	if c.Export.BatchSize <= 0 {
		return fmt.Errorf("%w: export.batch_size must be positive", core.ErrConfig)
	}
	if c.Export.BatchSize > core.MaxBatchSize {
		return fmt.Errorf("%w: export.batch_size must not exceed %d", core.ErrConfig, core.MaxBatchSize)
	}
	if strings.TrimSpace(c.Export.Dir) == "" {
		return fmt.Errorf("%w: export.dir is empty", core.ErrConfig)
	}
	if _, err := dialect.ParseTriggerTerminator(c.Export.TriggerTerminator); err != nil {
		return fmt.Errorf("export.trigger_terminator: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")

	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.batch_size", 1000)
	v.SetDefault("export.trigger_terminator", string(dialect.TerminatorStatement))

	v.SetDefault("log.level", "info")

	v.SetDefault("config.path", "~/.dmexport/config.toml")
}

func loadEnvFiles(files []string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// Already-set variables win over the file.
		_ = godotenv.Load(f)
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
