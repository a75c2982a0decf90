package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/apiprobe/internal/probe"
)

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "List the probe groups in execution order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getAppContext(cmd).Config
		registry := probe.NewRegistry(probe.Config{
			Payloads:  probe.DefaultPayloads(),
			APIPrefix: cfg.Scan.APIPrefix,
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tPROBE\tCATEGORY\tBURST")
		for i, p := range registry.Probes() {
			burst := "-"
			if b, ok := p.(probe.Burster); ok {
				burst = fmt.Sprintf("%d", b.MaxConcurrency())
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, p.Name(), p.Category(), burst)
		}
		return w.Flush()
	},
}
