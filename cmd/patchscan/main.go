package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orafleet/patchscan/internal/collect"
	"github.com/orafleet/patchscan/internal/config"
	"github.com/orafleet/patchscan/internal/credentials"
	"github.com/orafleet/patchscan/internal/hosts"
	"github.com/orafleet/patchscan/internal/logging"
	"github.com/orafleet/patchscan/internal/session"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "patchscan",
	Short: "Oracle patch inventory collector",
	Long:  `patchscan connects to Oracle database servers over SSH, inventories the patch level of every Oracle home with OPatch, and writes a spreadsheet report.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("patchscan %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect [targets]",
	Short: "Collect patch inventory from a fleet of hosts",
	Long: `Collect connects to each target host in order, discovers Oracle homes,
runs OPatch against each, and writes the results to a timestamped
xlsx file. Targets are a comma-separated host list or a path to a
file with one host per line; if omitted, they are prompted for.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if user, _ := cmd.Flags().GetString("user"); user != "" {
			cfg.DefaultUsername = user
		}
		if out, _ := cmd.Flags().GetString("output-dir"); out != "" {
			cfg.OutputDir = out
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.LogLevel = lvl
		}

		var targets string
		if len(args) == 1 {
			targets = args[0]
		}
		return runCollect(cfg, targets)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringP("user", "u", "", "Default SSH username (default \"oracle\")")
	collectCmd.Flags().StringP("output-dir", "o", "", "Directory for the xlsx report")
	collectCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCollect(cfg *config.Config, targets string) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	if targets == "" {
		targets, err = promptTargets()
		if err != nil {
			return err
		}
	}

	hostList, err := hosts.Load(targets)
	if err != nil {
		return fmt.Errorf("failed to load host list: %w", err)
	}

	resolver := credentials.NewTerminalResolver(cfg.DefaultUsername)
	sessions := session.NewManager(cfg, logger, resolver)
	collector := collect.New(cfg, logger, sessions)

	rep := collector.Run(hostList)

	path, err := rep.WriteXLSX(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Printf("Report written to %s (%d records)\n", path, rep.Len())
	return nil
}

func promptTargets() (string, error) {
	fmt.Print("Enter IP addresses/hostnames (comma-separated or from a file path): ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading targets: %w", err)
	}
	return strings.TrimSpace(line), nil
}
