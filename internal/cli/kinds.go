package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// kindsCommand creates the "kinds" command, which prints the step catalog.
func (c *CLI) kindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the kinds of steps a flow can contain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderKindTable())
			return nil
		},
	}
}
