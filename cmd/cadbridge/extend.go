package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cadbridge"
	"cadbridge/librenms"
)

// extendCmd is the snapshot mode: invoked per poll by an snmpd "extend"
// directive, it runs one full cycle and writes the LibreNMS document to
// stdout. Upstream failures exit non-zero with a diagnostic on stderr, which
// snmpd surfaces as an alert condition.
func extendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extend",
		Short: "Poll once and print the LibreNMS docker JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			engine, cleanup, err := newEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := engine.Poll(cmd.Context())
			if err != nil {
				return fmt.Errorf("poll cadvisor: %w", err)
			}

			metrics := make([]cadbridge.DerivedMetric, len(snap.Rows))
			for i, row := range snap.Rows {
				metrics[i] = row.Metric
			}
			return librenms.Write(os.Stdout, metrics)
		},
	}
}
