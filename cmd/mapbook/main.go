package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapbook/mapbook/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:           "mapbook",
		Short:         "Extract geo-events from narrative text and map them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newProcessCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("mapbook %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
