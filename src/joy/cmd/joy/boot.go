package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"calm/src/happiness"
)

var bootFor time.Duration

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot and run the idle loop",
	Long: `Boot the kernel and stay in the idle loop until interrupted, or for the
given duration.

Examples:
  # Run until ^C
  joy boot

  # Run for five seconds with debug logging
  joy boot --for 5s --log-level debug`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, _, err := bootKernel()
		if err != nil {
			return err
		}
		happiness.New(k, cmd.OutOrStdout()).Banner()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if bootFor > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, bootFor)
			defer cancel()
		}
		k.IdleLoop(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootCmd)
	bootCmd.Flags().DurationVar(&bootFor, "for", 0, "stop after this long (0 runs until interrupted)")
}
