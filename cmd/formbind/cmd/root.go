package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootOpts struct {
	cfgFile   string
	debug     bool
	logFormat string
}

var rootOpt rootOpts

const longRootCmdDescription = `formbind binds schema fields to HTML form widgets.

It serves edit forms and wizards for schemas declared in YAML documents or
imported from an OpenAPI description, and can fill the same schemas from
terminal prompts.`

var rootCmd = &cobra.Command{
	Use:           "formbind",
	Short:         "Edit schema-described content through HTML forms or terminal prompts",
	Long:          longRootCmdDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.Errorf("formbind: %v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(newServeCmd(), newPromptCmd(), newSchemasCmd())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOpt.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.BoolVarP(&rootOpt.debug, "debug", "d", false, "turn on debug logging")
	flags.StringVar(&rootOpt.logFormat, "log-format", "", "log format: text or json")
	flags.String("schemas", "", "directory of schema documents")
	flags.String("openapi", "", "OpenAPI document path or URL to import schemas from")
	flags.String("content", "", "YAML file with the content to edit, keyed by schema and id")
	flags.String("prefix", "", "widget name prefix")
	flags.String("locale", "", "fallback locale of the message catalogs")
	flags.String("catalogs", "", "directory of <locale>.yaml message catalogs")

	for _, key := range []string{"schemas", "openapi", "content", "prefix", "locale", "catalogs"} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
}

// initConfig reads the config file, when one is given, and FORMBIND_*
// environment variables.
func initConfig() {
	if rootOpt.cfgFile != "" {
		viper.SetConfigFile(rootOpt.cfgFile)
	}
	viper.SetEnvPrefix("formbind")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// setup loads the configuration and the logger every command starts from.
func setup() (Config, *logrus.Logger, error) {
	if rootOpt.cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return Config{}, nil, err
		}
	}
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return Config{}, nil, err
	}
	if rootOpt.debug {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, logger, nil
}
