package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string
var verbose bool

// AppContext carries what every subcommand needs after the root pre-run.
type AppContext struct {
	Logger *zap.SugaredLogger
	Config *CLIConfig
}

var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if globalAppContext == nil {
		return &AppContext{Logger: zap.NewNop().Sugar(), Config: cliConfig}
	}
	return globalAppContext
}

var rootCmd = &cobra.Command{
	Use:   "apiprobe",
	Short: "External security scanner for HTTP JSON APIs (authorized testing only)",
	Long: `apiprobe runs a fixed catalogue of black-box probes against an HTTP API
(authentication, JWT handling, injection, XSS, authorization, rate limiting,
CORS, security headers, webhooks, mass assignment and data exposure), scores
the outcome and writes JSON, Markdown and PDF reports.

Exit codes: 0 ok, 1 low confidence, 2 critical findings, 3 target unreachable,
4 operational error.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		applyConfigDefaults(cmd)

		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		storeAppContext(cmd, &AppContext{Logger: l, Config: cliConfig})
		l.Debugw("configuration loaded",
			"config_file", viper.ConfigFileUsed(),
			"output_dir", cliConfig.Output.Dir,
			"formats", cliConfig.Output.Formats)
		return nil
	},
}

// initConfig reads $HOME/.apiprobe.yaml (or --config) and APIPROBE_* variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".apiprobe")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("APIPROBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Execute runs the root command and exits with the code derived from its outcome.
func Execute() {
	err := rootCmd.Execute()
	code := exitCodeFor(err)
	if err != nil && !isSilent(err) {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorError("Error:"), err)
	}
	if globalAppContext != nil {
		_ = globalAppContext.Logger.Sync()
	}
	os.Exit(code)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.apiprobe.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(probesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}
