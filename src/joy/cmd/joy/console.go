package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	tty "github.com/mattn/go-tty"
	"github.com/spf13/cobra"

	"calm/src/happiness"
	"calm/src/lib/trust"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Boot and open the kernel console",
	Long: `Boot the kernel and read console commands from the terminal while the
idle loop runs.  Type help for the command list and quit to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, heap, err := bootKernel()
		if err != nil {
			return err
		}
		term, err := tty.Open()
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		defer term.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			k.IdleLoop(ctx)
		}()

		out := term.Output()
		sh := happiness.New(k, out)
		sh.SetStacks(heap)
		sh.Banner()
		for {
			fmt.Fprint(out, "joy> ")
			line, err := term.ReadString()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				trust.Warnf("console: %v", err)
				break
			}
			if !sh.Exec(line) {
				break
			}
		}
		cancel()
		<-done
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
