package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/reviewharvest/internal/model"
)

const version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reviewharvest",
	Short: "reviewharvest - collect and normalize e-commerce reviews",
	Long: `reviewharvest collects customer reviews for an online store (and optionally
its competitors and social channels) and normalizes them into one
foundation report for downstream analysis.

Sources are tried in order: review platform APIs, the store's own pages,
then a headless browser. Every report carries a data-quality assessment
that says how far the collected sample can be trusted.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("reviewharvest " + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.reviewharvest/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.reviewharvest")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// REVIEWHARVEST_LOG_LEVEL overrides log.level, and so on
	viper.SetEnvPrefix("REVIEWHARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	bindEnvKeys(cfg)
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		cfg.Adapters.YouTube.APIKey = key
	}
	return cfg, nil
}

// bindEnvKeys registers the settings most often overridden from the
// environment. AutomaticEnv alone only sees keys viper already knows about.
func bindEnvKeys(cfg *model.Config) {
	viper.SetDefault("collection.tier", string(cfg.Collection.Tier))
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
	viper.SetDefault("output.dir", cfg.Output.Dir)
	viper.SetDefault("output.debug", cfg.Output.Debug)
	viper.SetDefault("llm.enabled", cfg.LLM.Enabled)
	viper.SetDefault("llm.provider", cfg.LLM.Provider)
	viper.SetDefault("llm.model", cfg.LLM.Model)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("adapters.browser.enabled", cfg.Adapters.Browser.Enabled)
}

// initLogger installs the global zap logger from log.level and log.format
func initLogger() error {
	format := viper.GetString("log.format")
	levelName := viper.GetString("log.level")
	if levelName == "" {
		levelName = "info"
	}
	if verbose {
		levelName = "debug"
	}

	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
