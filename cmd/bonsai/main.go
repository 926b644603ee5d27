// Package main provides the bonsai CLI, a thin consumer of the shared
// Bonsai clients for interactive and scripted use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhkc/bonsai-libs/version"
)

var configPath string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "bonsai",
		Short:   "Interact with the Bonsai services using the shared client library",
		Version: version.Version,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config profile (default ~/.bonsai/config.yaml)")

	rootCmd.AddCommand(
		newLoginCmd(),
		newAuditCmd(),
		newNotifyCmd(),
		newSamplesCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
