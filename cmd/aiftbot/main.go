package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/m3rciful/aiftbot/core/buildinfo"
	corecmd "github.com/m3rciful/aiftbot/core/cmd"
	coreconfig "github.com/m3rciful/aiftbot/core/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "aiftbot",
	Short:         "Telegram front end for the AI for Thai analysis services",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and serve until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return corecmd.Run(cmd.Context(), corecmd.Options{ConfigPath: configPath})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "aiftbot %s (commit %s", buildinfo.Version, buildinfo.Commit)
		if buildinfo.Date != "" {
			fmt.Fprintf(out, ", built %s", buildinfo.Date)
		}
		fmt.Fprintln(out, ")")
	},
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration file and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := corecmd.ResolveConfigPath(configPath)
		cfg, err := coreconfig.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printSummary(cmd, path, cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.AddCommand(runCmd, versionCmd, checkConfigCmd)
}

func printSummary(cmd *cobra.Command, path string, cfg *coreconfig.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config:    %s\n", path)
	fmt.Fprintf(out, "run_mode:  %s\n", cfg.Telegram.RunMode)
	fmt.Fprintf(out, "commands:  %d\n", len(cfg.Dispatch.Commands))
	fmt.Fprintf(out, "image:     %d options behind %s\n", len(cfg.Dispatch.ImageMenu), cfg.Dispatch.ImageMarker)
	fmt.Fprintf(out, "ttl:       %dm\n", cfg.Dispatch.SessionTTLMinutes)

	names := make([]string, 0, len(cfg.Provider.Services))
	for name := range cfg.Provider.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(out, "services:  %s\n", strings.Join(names, ","))

	var missing []string
	for _, c := range cfg.Dispatch.Commands {
		if _, ok := cfg.Provider.Services[c.Service]; !ok {
			missing = append(missing, c.Service)
		}
	}
	for _, o := range cfg.Dispatch.ImageMenu {
		if _, ok := cfg.Provider.Services[o.Service]; !ok {
			missing = append(missing, o.Service)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(out, "warning:   no provider entry for %s\n", strings.Join(missing, ","))
	}

	journal := "disabled"
	if cfg.Database.Enabled() {
		journal = cfg.Database.Host + ":" + cfg.Database.Port + "/" + cfg.Database.Name
	}
	fmt.Fprintf(out, "journal:   %s\n", journal)
	ops := cfg.Ops.Listen
	if ops == "" {
		ops = "disabled"
	}
	fmt.Fprintf(out, "ops:       %s\n", ops)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
