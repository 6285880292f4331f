package main

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

func printConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd)
			if a.json {
				return a.printer.Print(a.cfg)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(a.cfg)
		},
	}
}
