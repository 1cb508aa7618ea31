package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full tool configuration.
type Config struct {
	Host       HostConfig       `mapstructure:"host"`
	Link       LinkConfig       `mapstructure:"link"`
	Review     ReviewConfig     `mapstructure:"review"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Export     ExportConfig     `mapstructure:"export"`
}

// HostConfig selects and configures the host store backend.
type HostConfig struct {
	// Backend picks the host store implementation at startup:
	// "collection" talks to the collection database directly,
	// "ankiconnect" goes through the host's HTTP bridge.
	Backend     string            `mapstructure:"backend" validate:"oneof=collection ankiconnect"`
	Database    DatabaseConfig    `mapstructure:"database"`
	AnkiConnect AnkiConnectConfig `mapstructure:"ankiconnect"`
}

// DatabaseConfig configures the collection backend.
type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=sqlite3 mysql"`
	Path            string            `mapstructure:"path"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

// AnkiConnectConfig configures the HTTP bridge backend.
type AnkiConnectConfig struct {
	URL            string `mapstructure:"url" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts  uint   `mapstructure:"retry_attempts"`
}

// LinkConfig configures the link registry.
type LinkConfig struct {
	// FieldName is the note field holding the serialized link set.
	FieldName string `mapstructure:"field_name" validate:"required"`
	// TitleMaxLength bounds stored link titles, in runes.
	TitleMaxLength int `mapstructure:"title_max_length" validate:"gt=0"`
	// SearchDisplayLength bounds candidate titles shown in search results.
	SearchDisplayLength int `mapstructure:"search_display_length" validate:"gt=0"`
	// SearchLimit bounds how many candidates one search returns.
	SearchLimit int `mapstructure:"search_limit" validate:"gt=0"`
}

// ReviewConfig configures review-time rendering and the day boundary.
type ReviewConfig struct {
	// RolloverHour is the local hour at which "today" starts for the
	// reviewed-today check. -1 defers to the host's own day cutoff when the
	// store exposes one, falling back to local midnight.
	RolloverHour int `mapstructure:"rollover_hour" validate:"gte=-1,lte=23"`
	// BridgeFunction is the JavaScript function rendered link items call to
	// reach the native side.
	BridgeFunction string `mapstructure:"bridge_function" validate:"required"`
	// TemplatePath optionally overrides the embedded linked-cards template.
	TemplatePath string `mapstructure:"template_path"`
}

// NavigationConfig configures click-time navigation.
type NavigationConfig struct {
	// PreviewSettleDelayMS is how long the deferred auto-select waits for
	// the host's preview surface to settle.
	PreviewSettleDelayMS int `mapstructure:"preview_settle_delay_ms" validate:"gte=0"`
	// AutoSelectAttempts bounds the auto-select retries after the delay.
	AutoSelectAttempts uint `mapstructure:"auto_select_attempts" validate:"gt=0"`
}

// ExportConfig configures the link report exporter.
type ExportConfig struct {
	Directory string `mapstructure:"directory"`
}

// ConfigLoader loads and validates a Config from file and environment.
type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

// NewConfigLoader creates a loader. With an empty configFile it searches the
// working directory and $HOME/.config/cardlink.
func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/cardlink")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

// Load reads, defaults and validates the configuration. A missing config
// file is fine: every setting has a default.
func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("host.backend", "collection")
	v.SetDefault("host.database.driver", "sqlite3")
	v.SetDefault("host.database.path", filepath.Join("collection", "collection.db"))
	v.SetDefault("host.database.host", "localhost")
	v.SetDefault("host.database.port", 3306)
	v.SetDefault("host.database.database", "collection")
	v.SetDefault("host.database.username", "user")
	v.SetDefault("host.ankiconnect.url", "http://127.0.0.1:8765")
	v.SetDefault("host.ankiconnect.timeout_seconds", 10)
	v.SetDefault("host.ankiconnect.retry_attempts", 2)
	v.SetDefault("link.field_name", "LinkedCards")
	v.SetDefault("link.title_max_length", 50)
	v.SetDefault("link.search_display_length", 80)
	v.SetDefault("link.search_limit", 30)
	v.SetDefault("review.rollover_hour", -1)
	v.SetDefault("review.bridge_function", "pycmd")
	v.SetDefault("review.template_path", "")
	v.SetDefault("navigation.preview_settle_delay_ms", 1000)
	v.SetDefault("navigation.auto_select_attempts", 3)
	v.SetDefault("export.directory", "exports")

	// The collection password never lives in the config file.
	if err := v.BindEnv("host.database.password", "CARDLINK_DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind CARDLINK_DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("host.ankiconnect.url", "CARDLINK_ANKICONNECT_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind CARDLINK_ANKICONNECT_URL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// Load is a convenience wrapper for the common load path.
func Load(configFile string) (*Config, error) {
	loader, err := NewConfigLoader(configFile)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}
