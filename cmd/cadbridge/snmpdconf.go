package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cadbridge/snmp"
)

// snmpdconfCmd prints the snmpd.conf snippet wiring the bridge in, so the
// packaging glue renders daemon configuration from the same settings the
// bridge itself runs with.
func snmpdconfCmd() *cobra.Command {
	var binary string

	cmd := &cobra.Command{
		Use:   "snmpdconf",
		Short: "Print the snmpd.conf snippet for this bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			if binary == "" {
				if exe, err := os.Executable(); err == nil {
					binary = exe
				} else {
					binary = "cadbridge"
				}
			}

			fmt.Printf("rocommunity %s default\n", cfg.Community)
			fmt.Printf("pass_persist .%s %s persist\n", snmp.Root, binary)
			fmt.Printf("extend docker %s extend\n", binary)
			return nil
		},
	}

	cmd.Flags().StringVar(&binary, "binary", "", "Bridge binary path to embed (defaults to the running executable)")
	return cmd
}
