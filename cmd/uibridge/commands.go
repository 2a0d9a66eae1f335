package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/codewiresh/uibridge/internal/command"
)

// ---------------------------------------------------------------------------
// commandsCmd
// ---------------------------------------------------------------------------

func commandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the controller commands a page accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCommands(os.Stdout)
		},
	}
}

func printCommands(w io.Writer) error {
	for _, name := range command.Commands() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}
