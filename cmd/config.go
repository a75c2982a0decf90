package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	consts "github.com/khanhnv2901/apiprobe/internal/shared/constants"
)

const (
	defaultTimeoutSeconds = 15
	defaultBackoffMillis  = 500
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Scan   ScanConfig
	Output OutputConfig
}

// ScanConfig consolidates settings for the scan command.
type ScanConfig struct {
	Target            string
	TimeoutSecs       int
	Retries           int
	BackoffMillis     int
	PoolSize          int
	APIPrefix         string
	UserAgent         string
	RateLimit         float64
	StrictUnreachable bool
	ProgressEnabled   bool
}

// OutputConfig controls where and how reports are written.
type OutputConfig struct {
	Dir              string
	Formats          []string
	TelemetryEnabled bool
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Scan: ScanConfig{
			TimeoutSecs:     defaultTimeoutSeconds,
			Retries:         consts.DefaultRetries,
			BackoffMillis:   defaultBackoffMillis,
			PoolSize:        consts.DefaultPoolSize,
			APIPrefix:       consts.DefaultAPIPrefix,
			UserAgent:       defaultUserAgent(),
			ProgressEnabled: true,
		},
		Output: OutputConfig{
			Dir:     ".",
			Formats: []string{"json", "md"},
		},
	}
}

func defaultUserAgent() string {
	return fmt.Sprintf("apiprobe/%s", Version)
}

// applyConfigDefaults merges config file and environment values into the
// runtime config when the user did not explicitly set the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	flags := cmd.Flags()

	if viper.IsSet("scan.timeout_secs") {
		applyIntDefault(flags, "timeout", viper.GetInt("scan.timeout_secs"), func(v int) { cliConfig.Scan.TimeoutSecs = v })
	}
	if viper.IsSet("scan.retries") {
		applyIntDefault(flags, "retries", viper.GetInt("scan.retries"), func(v int) { cliConfig.Scan.Retries = v })
	}
	if viper.IsSet("scan.backoff_ms") {
		applyIntDefault(flags, "backoff-ms", viper.GetInt("scan.backoff_ms"), func(v int) { cliConfig.Scan.BackoffMillis = v })
	}
	if viper.IsSet("scan.pool_size") {
		applyIntDefault(flags, "pool-size", viper.GetInt("scan.pool_size"), func(v int) { cliConfig.Scan.PoolSize = v })
	}
	if viper.IsSet("scan.api_prefix") {
		applyStringDefault(flags, "api-prefix", viper.GetString("scan.api_prefix"), func(v string) { cliConfig.Scan.APIPrefix = v })
	}
	if viper.IsSet("scan.user_agent") {
		applyStringDefault(flags, "user-agent", viper.GetString("scan.user_agent"), func(v string) { cliConfig.Scan.UserAgent = v })
	}
	if viper.IsSet("scan.rate_limit") {
		applyFloatDefault(flags, "rate-limit", viper.GetFloat64("scan.rate_limit"), func(v float64) { cliConfig.Scan.RateLimit = v })
	}
	if viper.IsSet("scan.strict_unreachable") {
		applyBoolDefault(flags, "strict-unreachable", viper.GetBool("scan.strict_unreachable"), func(v bool) { cliConfig.Scan.StrictUnreachable = v })
	}
	if viper.IsSet("scan.progress") {
		applyBoolDefault(flags, "progress", viper.GetBool("scan.progress"), func(v bool) { cliConfig.Scan.ProgressEnabled = v })
	}
	if viper.IsSet("output.dir") {
		applyStringDefault(flags, "output", viper.GetString("output.dir"), func(v string) { cliConfig.Output.Dir = v })
	}
	if viper.IsSet("output.formats") {
		if formats := viper.GetStringSlice("output.formats"); len(formats) > 0 {
			applyStringSliceDefault(flags, "format", formats, func(v []string) { cliConfig.Output.Formats = v })
		}
	}
	if viper.IsSet("output.telemetry") {
		applyBoolDefault(flags, "telemetry", viper.GetBool("output.telemetry"), func(v bool) { cliConfig.Output.TelemetryEnabled = v })
	}
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if setter == nil || flagChanged(flags, name) {
		return
	}
	setter(value)
}

func applyFloatDefault(flags *pflag.FlagSet, name string, value float64, setter func(float64)) {
	if setter == nil || flagChanged(flags, name) {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if setter == nil || flagChanged(flags, name) {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if setter == nil || flagChanged(flags, name) {
		return
	}
	setter(value)
}

func applyStringSliceDefault(flags *pflag.FlagSet, name string, value []string, setter func([]string)) {
	if setter == nil || flagChanged(flags, name) {
		return
	}
	setter(value)
}
