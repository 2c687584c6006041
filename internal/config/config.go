package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"seedling/pkg/models"

	"github.com/spf13/viper"
)

// DefaultEnvironment is used when no environment is configured.
const DefaultEnvironment = "development"

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`
	AppPath     string `mapstructure:"app_path"`
	Seed        Seed   `mapstructure:"seed"`
	Store       struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"store"`
	DB     DB `mapstructure:"db"`
	SQLite struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sqlite"`
	Models []models.ModelDefinition `mapstructure:"models"`
	Log    struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
}

// Seed holds the seeding switches.
type Seed struct {
	Active bool   `mapstructure:"active"`
	Path   string `mapstructure:"path"`
	// ExtraPaths accepts a list or false in the config file.
	ExtraPaths  []string     `mapstructure:"-"`
	Strict      bool         `mapstructure:"strict"`
	Concurrency int          `mapstructure:"concurrency"`
	Remote      []RemoteSeed `mapstructure:"remote"`
}

// RemoteSeed is a seed file fetched from a URL when seeding starts.
type RemoteSeed struct {
	Key string `mapstructure:"key"`
	URL string `mapstructure:"url"`
}

// DB holds the postgres connection settings.
type DB struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString renders the keyword/value connection string accepted by pgx.
func (db DB) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
	)
}

// SeedDir returns <app_path>/<seed.path>.
func (c *Config) SeedDir() string {
	return filepath.Join(c.AppPath, c.Seed.Path)
}

// ExtraDirs returns the extra seed directories resolved against app_path.
func (c *Config) ExtraDirs() []string {
	dirs := make([]string, 0, len(c.Seed.ExtraPaths))
	for _, p := range c.Seed.ExtraPaths {
		dirs = append(dirs, filepath.Join(c.AppPath, p))
	}
	return dirs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", DefaultEnvironment)
	v.SetDefault("app_path", ".")
	v.SetDefault("seed.active", true)
	v.SetDefault("seed.path", "seeds")
	v.SetDefault("seed.extra_paths", false)
	v.SetDefault("seed.strict", false)
	v.SetDefault("seed.concurrency", 0)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("sqlite.dsn", "seedling.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":8080")
}

// LoadConfig loads the configuration from a file and the environment. An empty
// path searches for config.yaml in . and ./config; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("environment", "SEED_ENVIRONMENT", "ENVIRONMENT"); err != nil {
		return nil, fmt.Errorf("bind environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if !extraPathsDisabled(v.Get("seed.extra_paths")) {
		config.Seed.ExtraPaths = v.GetStringSlice("seed.extra_paths")
	}
	config.Environment = strings.TrimSpace(config.Environment)
	if config.Environment == "" {
		config.Environment = DefaultEnvironment
	}
	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))

	return &config, nil
}

// extraPathsDisabled reports whether seed.extra_paths is switched off. The
// environment delivers false as a string.
func extraPathsDisabled(raw interface{}) bool {
	switch t := raw.(type) {
	case nil, bool:
		return true
	case string:
		t = strings.TrimSpace(t)
		return t == "" || strings.EqualFold(t, "false")
	default:
		return false
	}
}
