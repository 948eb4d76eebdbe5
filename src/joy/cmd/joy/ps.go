package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"calm/src/happiness"
	"calm/src/joy"
)

var psSpawn []string

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Boot, spawn tasks and print the task table",
	Long: `Boot the kernel, create the tasks named with --spawn and print what ps
would show.

Examples:
  joy ps --spawn worker:50 --spawn logger:20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, heap, err := bootKernel()
		if err != nil {
			return err
		}
		for _, spec := range psSpawn {
			name, prio, err := parseSpawn(spec)
			if err != nil {
				return err
			}
			stack, err := heap.Alloc(cfg.FirstTask.StackSize)
			if err != nil {
				return err
			}
			if _, err := k.TaskCreate(name, prio, stack, func([]string) int { return 0 }, nil); err != nil {
				return fmt.Errorf("spawning %s: %w", name, err)
			}
		}
		return happiness.WritePS(cmd.OutOrStdout(), k.Snapshot())
	},
}

// parseSpawn splits name:prio.
func parseSpawn(spec string) (string, joy.Priority, error) {
	name, p, ok := strings.Cut(spec, ":")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("bad task %q, want name:priority", spec)
	}
	n, err := strconv.ParseUint(p, 10, 8)
	if err != nil {
		return "", 0, fmt.Errorf("bad priority in %q: %w", spec, err)
	}
	return name, joy.Priority(n), nil
}

func init() {
	rootCmd.AddCommand(psCmd)
	psCmd.Flags().StringArrayVar(&psSpawn, "spawn", nil, "task to create, as name:priority (repeatable)")
}
