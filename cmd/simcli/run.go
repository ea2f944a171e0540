package main

import (
	"context"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run subcommand.
type RunOptions struct {
	*RootOptions
	Actors int
	Ticks  int
}

// NewRunCommand creates the run command: spawn Actors actors and advance
// the world Ticks frames, printing a snapshot digest.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the demo simulation for a fixed number of frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Actors, "actors", 4, "number of demo actors to spawn")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 10, "number of frames to run")

	return cmd
}

func runDemo(cmd *cobra.Command, opts *RunOptions) error {
	if opts.Actors <= 0 {
		return NewExitError(ExitCommandError, "--actors must be positive")
	}
	if opts.Ticks <= 0 {
		return NewExitError(ExitCommandError, "--ticks must be positive")
	}

	w := NewWorld(opts.Actors)

	completed, err := w.RunTicks(context.Background(), opts.Ticks)
	if err != nil {
		return WrapExitError(ExitFailure, "simulation did not complete", err)
	}

	cmd.Printf("ran %d frames\n%s", completed, w.Digest())
	return nil
}
