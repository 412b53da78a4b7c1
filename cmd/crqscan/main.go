// Package main provides the entry point for the crqscan CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/crqscan/cmd/crqscan/commands"
	"github.com/Sumatoshi-tech/crqscan/pkg/version"
)

func main() {
	version.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crqscan",
		Short: "Incremental tracking id, URL and term miner for git history",
		Long: `crqscan walks the commits of a git repository that were not scanned before,
extracts CRQ tracking ids, URLs and terms from added and context lines, and merges
them into a deduplicated checkpoint file.

Commands:
  scan      Scan new commits and update the checkpoint
  docs      Show stored articles and entities`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewDocsCommand())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
