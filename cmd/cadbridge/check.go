package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/beevik/ntp"
	"github.com/charmbracelet/lipgloss"
	units "github.com/docker/go-units"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"cadbridge"
	"cadbridge/cmd/cadbridge/ui"
)

// clockSkewThreshold is how far the local clock may drift before container
// state detection becomes unreliable: staleness of upstream samples is
// judged against the local clock.
const clockSkewThreshold = 500 * time.Millisecond

// checkCmd is the human diagnostic: poll once, render the containers as a
// table, and verify the local clock. Status lines go to stderr so stdout
// stays pipeable.
func checkCmd() *cobra.Command {
	var ntpPool string
	var skipNTP bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test the cAdvisor connection and show what would be served",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}

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
				fmt.Fprintln(os.Stderr, ui.ErrorMsg("cAdvisor at %s: %v", cfg.CadvisorURL, err))
				return err
			}

			fmt.Fprintln(os.Stderr, ui.SuccessMsg("connected to cAdvisor at %s", cfg.CadvisorURL))
			fmt.Fprintln(os.Stderr, ui.SuccessMsg("found %d containers (%d cores)", len(snap.Rows), snap.Cores))
			fmt.Fprint(os.Stderr, ui.KeyValues("  ",
				ui.KV("community", cfg.Community),
				ui.KV("cache ttl", cfg.CacheTTL.Std().String()),
				ui.KV("index db", orDash(cfg.IndexDB)),
			))

			if !skipNTP {
				checkClock(ntpPool)
			}

			if len(snap.Rows) == 0 {
				fmt.Fprintln(os.Stderr, ui.Muted("nothing to display"))
				return nil
			}

			headers := []string{"Index", "Container", "State", "CPU %", "Memory", "Limit", "PIDs", "Uptime"}
			rows := make([][]string, 0, len(snap.Rows))
			for _, row := range snap.Rows {
				m := row.Metric

				limit := "-"
				if !cadbridge.MemoryUnbounded(m.MemoryLimit) {
					limit = units.BytesSize(float64(m.MemoryLimit))
				}
				uptime := "-"
				if m.HasUptime {
					uptime = units.HumanDuration(m.Uptime)
				}

				rows = append(rows, []string{
					strconv.Itoa(row.Index),
					m.Name,
					m.State.String(),
					fmt.Sprintf("%.2f", m.CPUPercent),
					units.BytesSize(float64(m.MemoryUsed)),
					limit,
					strconv.Itoa(m.Processes),
					uptime,
				})
			}
			fmt.Println(ui.Table(headers, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&ntpPool, "ntp-pool", "pool.ntp.org", "NTP pool for the clock-skew check")
	cmd.Flags().BoolVar(&skipNTP, "skip-ntp", false, "Skip the clock-skew check")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable styled output")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// checkClock warns when the local clock disagrees with NTP; skew breaks the
// stat-freshness state heuristic and uptime figures. Best effort: an
// unreachable pool is reported, never fatal.
func checkClock(pool string) {
	resp, err := ntp.Query(pool)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.WarnMsg("clock check against %s failed: %v", pool, err))
		return
	}

	offset := resp.ClockOffset
	if offset.Abs() > clockSkewThreshold {
		fmt.Fprintln(os.Stderr, ui.WarnMsg("local clock is off by %s; container states may be wrong", offset))
		return
	}
	fmt.Fprintln(os.Stderr, ui.SuccessMsg("clock offset %s", offset))
}
