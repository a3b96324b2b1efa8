package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the formbind configuration. Values come from flags, the config
// file and FORMBIND_* variables; anything left empty takes its default.
type Config struct {
	Addr      string `mapstructure:"addr"`
	Schemas   string `mapstructure:"schemas"`
	OpenAPI   string `mapstructure:"openapi"`
	Content   string `mapstructure:"content"`
	Prefix    string `mapstructure:"prefix"`
	Locale    string `mapstructure:"locale"`
	Catalogs  string `mapstructure:"catalogs"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	// Sessions keeps wizard progress server side instead of in hidden
	// fields.
	Sessions bool `mapstructure:"sessions"`
	Widgets []WidgetConfig `mapstructure:"widgets"`
	Wizards []WizardConfig `mapstructure:"wizards"`
}

// WidgetConfig replaces the widget of one field with a widget registered
// by name, such as TimezoneWidget.
type WidgetConfig struct {
	Schema string `mapstructure:"schema"`
	Field  string `mapstructure:"field"`
	Widget string `mapstructure:"widget"`
}

// WizardConfig splits the edit form of a schema into panes.
type WizardConfig struct {
	Schema string       `mapstructure:"schema"`
	Panes  []PaneConfig `mapstructure:"panes"`
}

// PaneConfig is one wizard pane.
type PaneConfig struct {
	Label  string   `mapstructure:"label"`
	Fields []string `mapstructure:"fields"`
}

func (c Config) wizard(schemaName string) (WizardConfig, bool) {
	for _, w := range c.Wizards {
		if w.Schema == schemaName {
			return w, true
		}
	}
	return WizardConfig{}, false
}

func defaultConfig() Config {
	return Config{
		Addr:      ":8080",
		Prefix:    "field",
		Locale:    "en",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func loadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := mergo.Merge(&cfg, defaultConfig()); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg Config, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("config: unknown log format %q", cfg.LogFormat)
	}
	return logger, nil
}
