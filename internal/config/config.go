package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"aat-go/internal/eventlog"
)

var (
	mu        sync.Mutex
	listeners []func(*Config)
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
	UploadLimit   int    `mapstructure:"upload_limit"` // analyze requests per client per minute
}

// DatabaseConfig holds database connection settings. Runs are only stored
// when Enabled is set.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	// RetentionDays removes stored runs older than this many days. Zero keeps
	// them forever.
	RetentionDays int `mapstructure:"retention_days"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory    string `mapstructure:"directory"`
	MaxSize      int    `mapstructure:"max_size"`
	MaxBackups   int    `mapstructure:"max_backups"`
	MaxAge       int    `mapstructure:"max_age"`
	Compress     bool   `mapstructure:"compress"`
	ConsoleLevel string `mapstructure:"console_level"`
}

// AnalysisConfig tunes the log pipeline.
type AnalysisConfig struct {
	MinFields   int      `mapstructure:"min_fields"`
	Encodings   []string `mapstructure:"encodings"`
	Workers     int      `mapstructure:"workers"`
	MaxUploadMB int      `mapstructure:"max_upload_mb"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me")
	v.SetDefault("server.upload_limit", 20)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "aat-db")
	v.SetDefault("database.retention_days", 30)

	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.console_level", "debug")

	v.SetDefault("analysis.min_fields", eventlog.DefaultMinFields)
	v.SetDefault("analysis.encodings", eventlog.DefaultEncodings)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.max_upload_mb", 32)
}

// Load reads the configuration without installing it globally.
func Load(projectRoot string) (*viper.Viper, *Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// e.g. AAT_SERVER_PORT, AAT_ANALYSIS_WORKERS
	v.SetEnvPrefix("AAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return v, &c, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Analysis.MinFields < 1 {
		return fmt.Errorf("analysis.min_fields must be at least 1, got %d", c.Analysis.MinFields)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1, got %d", c.Analysis.Workers)
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must not be negative, got %d", c.Database.RetentionDays)
	}
	if len(c.Analysis.Encodings) == 0 {
		return fmt.Errorf("analysis.encodings must name at least one encoding")
	}
	return nil
}

// OnChange registers fn to receive every configuration that passes
// validation after a reload.
func OnChange(fn func(*Config)) {
	mu.Lock()
	defer mu.Unlock()
	listeners = append(listeners, fn)
}

// Init watches the file a configuration was loaded from and hands validated
// reloads to the OnChange listeners. The logger is built from the loaded
// configuration, hence the split from Load.
func Init(v *viper.Viper, log *zap.Logger) {
	// Set up a watch for configuration changes for hot-reloading
	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
			reload(v, log)
		})
	}

	log.Info("Configuration loaded successfully", zap.String("file", v.ConfigFileUsed()))
}

// reload decodes what v currently holds. An invalid file is logged and the
// running configuration stays in effect.
func reload(v *viper.Viper, log *zap.Logger) bool {
	var next Config
	if err := v.Unmarshal(&next); err != nil {
		log.Error("Error reloading configuration", zap.Error(err))
		return false
	}
	if err := next.Validate(); err != nil {
		log.Error("Rejected reloaded configuration", zap.Error(err))
		return false
	}

	mu.Lock()
	notify := append(([]func(*Config))(nil), listeners...)
	mu.Unlock()
	for _, fn := range notify {
		fn(&next)
	}
	return true
}
