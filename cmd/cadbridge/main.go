package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cadbridge"
	"cadbridge/bridge"
	"cadbridge/cadvisor"
	"cadbridge/config"
	"cadbridge/infra/sqlite"
	"cadbridge/internal/logging"
	"cadbridge/internal/support/buildinfo"
)

func main() {
	if err := logging.Configure(logging.LevelInfo); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		slog.Error("Command failed.", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:           "cadbridge",
		Short:         "SNMP bridge for cAdvisor container metrics",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("url", "", "cAdvisor base URL (overrides CADVISOR_URL and config file)")
	cmd.PersistentFlags().String("community", "", "SNMP community string")
	cmd.PersistentFlags().Duration("cache-ttl", 0, "Minimum interval between upstream polls")
	cmd.PersistentFlags().Duration("timeout", 0, "Upstream HTTP timeout")
	cmd.PersistentFlags().String("index-db", "", "Path of the persistent index table; empty keeps indices in memory only")

	cmd.AddCommand(extendCmd())
	cmd.AddCommand(persistCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(snmpdconfCmd())
	return cmd
}

// resolveConfig builds the effective configuration: file and environment via
// config.Load, then flag overrides.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	fl := cmd.Flags()
	if fl.Changed("url") {
		cfg.CadvisorURL, _ = fl.GetString("url")
	}
	if fl.Changed("community") {
		cfg.Community, _ = fl.GetString("community")
	}
	if fl.Changed("cache-ttl") {
		d, _ := fl.GetDuration("cache-ttl")
		cfg.CacheTTL = config.Duration(d)
	}
	if fl.Changed("timeout") {
		d, _ := fl.GetDuration("timeout")
		cfg.Timeout = config.Duration(d)
	}
	if fl.Changed("index-db") {
		cfg.IndexDB, _ = fl.GetString("index-db")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newEngine assembles the bridge engine for the effective configuration.
// The returned cleanup closes the index store, if one is open.
func newEngine(cfg config.Config, extra ...bridge.Option) (*bridge.Engine, func(), error) {
	client, err := cadvisor.NewClient(cfg.CadvisorURL, cadvisor.WithTimeout(cfg.Timeout.Std()))
	if err != nil {
		return nil, nil, err
	}

	opts := []bridge.Option{bridge.WithCacheTTL(cfg.CacheTTL.Std())}
	cleanup := func() {}

	if cfg.IndexDB != "" {
		store, err := sqlite.Open(cfg.IndexDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open index store: %w", err)
		}
		seed, err := store.Load()
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("load index table: %w", err)
		}
		opts = append(opts, bridge.WithIndexAllocator(cadbridge.NewIndexAllocator(seed, store)))
		cleanup = func() { _ = store.Close() }
	}

	opts = append(opts, extra...)
	return bridge.New(client, opts...), cleanup, nil
}
