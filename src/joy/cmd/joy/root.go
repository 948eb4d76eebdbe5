package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"calm/src/hardware/hosted"
	"calm/src/joy"
	"calm/src/lib/trust"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	tick       time.Duration

	cfg joy.Config
)

var rootCmd = &cobra.Command{
	Use:   "joy",
	Short: "Run the joy scheduler core on the host",
	Long: `joy boots the scheduler core as an ordinary process.  Interrupt masking
is a mutex and the idle task sleeps between ticks, so the task lists, the pid
table and the boot sequence behave as they do on the board.

Commands:
  boot      Boot and sit in the idle loop until interrupted
  ps        Boot, start some tasks and print the task table
  console   Boot and open an interactive console on the terminal`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = joy.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logFormat
		}
		trust.SetOutput(os.Stderr, cfg.Log.Format)
		trust.SetLevel(trust.ParseLevel(cfg.Log.Level))
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./joy.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().DurationVar(&tick, "tick", hosted.DefaultTick, "idle tick")
}

// bootKernel boots a hosted kernel from the loaded config, with a first task
// that only logs.  Task stacks made after boot come from the returned heap,
// which gets them back through the idle loop.
func bootKernel() (*joy.Kernel, *hosted.StackHeap, error) {
	first := joy.FirstTaskFromConfig(cfg, func(argv []string) int {
		trust.Infof("%s started", argv[0])
		return 0
	})
	k, err := joy.Boot(cfg, hosted.New(tick), hosted.Subsystems(hosted.NewClock()), first)
	if err != nil {
		return nil, nil, err
	}
	trust.With("boot", k.BootID().String())

	perTask := (max(cfg.FirstTask.StackSize, 2048) + hosted.PageSize - 1) / hosted.PageSize
	heap := hosted.NewStackHeap(uint32(cfg.MaxTasks * perTask))
	k.SetReclaimer(heap.Release)
	return k, heap, nil
}
