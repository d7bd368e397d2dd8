package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iho/cfadjust/internal/infrastructure/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(config.Load, os.Stdin, os.Stdout, os.Stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(load func() (*config.Config, error), in io.Reader, out, errOut io.Writer) *cobra.Command {
	var a *app

	rootCmd := &cobra.Command{
		Use:           "cfadjust",
		Short:         "Adjust cash flow entries of the household ledger",
		Long:          `Moves, splits and shares ledger entries by booking them against an adjustment sub-account.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a = newApp(cfg, in, out, errOut)
			return nil
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	current := func() *app { return a }

	rootCmd.AddCommand(
		entryCmd(current),
		accountsCmd(current),
		adjustCmd(current),
		runsCmd(current),
		migrateCmd(current),
	)

	return rootCmd
}
