package main

import "github.com/spf13/cobra"

// RootOptions holds global flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand builds the simcli root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "simcli",
		Short: "simcli runs a demo tickframe simulation",
		Long:  "simcli spawns a small set of patrolling actors on the tickframe substrate and runs them for a fixed number of frames, printing a snapshot digest.",
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}
