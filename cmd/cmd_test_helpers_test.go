package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// executeCommand runs the root command with args in a clean environment and
// returns everything written to stdout/stderr.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCLIState(t)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetCLIState(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	originalNoColor := color.NoColor
	color.NoColor = true

	// Flag values outlive a command execution; restore their defaults
	// before resetting the config they are bound to.
	resetFlags := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(defaultSlice(f.DefValue))
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	resetFlags(rootCmd.PersistentFlags())
	resetFlags(scanCmd.Flags())
	resetFlags(reportRenderCmd.Flags())

	viper.Reset()
	*cliConfig = *newCLIConfig()
	cfgFile = ""
	verbose = false
	globalAppContext = nil

	t.Cleanup(func() {
		color.NoColor = originalNoColor
		viper.Reset()
		*cliConfig = *newCLIConfig()
		globalAppContext = nil
	})
}

// defaultSlice parses a slice flag's DefValue such as "[json,md]".
func defaultSlice(def string) []string {
	def = strings.TrimSuffix(strings.TrimPrefix(def, "["), "]")
	if def == "" {
		return []string{}
	}
	return strings.Split(def, ",")
}
