package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version, and the server version when reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("gosurreal", version)

		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			// No server around is fine; the client version is out.
			return nil
		}
		defer c.Close()
		if v, err := c.Version(ctx); err == nil {
			fmt.Println("server", v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
