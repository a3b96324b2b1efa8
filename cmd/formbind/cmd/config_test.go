package cmd

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFillsDefaults(t *testing.T) {
	v := viper.New()
	v.Set("schemas", "testdata")

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "testdata", cfg.Schemas)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "field", cfg.Prefix)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Sessions)
}

func TestLoadConfigKeepsSetValues(t *testing.T) {
	v := viper.New()
	v.Set("addr", ":9000")
	v.Set("prefix", "form")
	v.Set("sessions", true)
	v.Set("widgets", []any{
		map[string]any{"schema": "Article", "field": "zone", "widget": "TimezoneWidget"},
	})
	v.Set("wizards", []any{
		map[string]any{"schema": "Article", "panes": []any{
			map[string]any{"label": "Basics", "fields": []any{"title"}},
			map[string]any{"label": "More", "fields": []any{"zone", "count"}},
		}},
	})

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "form", cfg.Prefix)
	assert.True(t, cfg.Sessions)
	assert.Equal(t, []WidgetConfig{{Schema: "Article", Field: "zone", Widget: "TimezoneWidget"}}, cfg.Widgets)
	wiz, ok := cfg.wizard("Article")
	require.True(t, ok)
	assert.Equal(t, []PaneConfig{
		{Label: "Basics", Fields: []string{"title"}},
		{Label: "More", Fields: []string{"zone", "count"}},
	}, wiz.Panes)
	_, ok = cfg.wizard("article")
	assert.False(t, ok)
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("FORMBIND_ADDR", ":7000")
	v := viper.New()
	v.SetEnvPrefix("formbind")
	v.AutomaticEnv()
	require.NoError(t, v.BindEnv("addr"))

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := defaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	cfg.LogLevel = "loud"
	_, err = newLogger(cfg, &buf)
	assert.Error(t, err)

	cfg.LogLevel = "info"
	cfg.LogFormat = "xml"
	_, err = newLogger(cfg, &buf)
	assert.Error(t, err)
}
