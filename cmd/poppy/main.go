// Command poppy is the service entry point and operational CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "poppy",
		Short:         "Poppy's Produce ordering backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		queueWorkCmd(),
		scheduleRunCmd(),
		routeListCmd(),
		seedCmd(),
		userRoleCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
