// Version command for the gridloom CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridloom/pkg/gridloom"
)

const modulePath = "github.com/mesh-intelligence/gridloom"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gridloom version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "gridloom v%s\nmodule: %s\n", gridloom.Version, modulePath)
		return nil
	},
}
