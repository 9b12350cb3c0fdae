package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/constrite/internal/config"
	"github.com/bryanwahyu/constrite/internal/logging"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfg    *config.Config
	logger = zap.NewNop()

	configPath string
	envFile    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "constrite",
	Short:         "Construction site safety inspections from site photos.",
	Long:          `ConStrite analyses construction site photos with a vision model, scores safety risk and keeps an inspection history.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
}

// setup loads dotenv, config and the logger, in that order.
func setup() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	path := configPath
	if path == "" {
		path = config.Path()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	l, err := logging.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}
