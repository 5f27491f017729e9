package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var liveDiff bool

var liveCmd = &cobra.Command{
	Use:   "live TABLE",
	Short: "Stream live changes of a table until interrupted",
	Long: `live opens a live query on the given table and prints one JSON line
per change notification until the stream ends or the process is
interrupted. With --diff, notifications carry JSON patches instead of
full records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		table := args[0]

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		sub, err := c.Live(ctx, table, liveDiff)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "live query %s on %s (ctrl-c to stop)\n", sub.ID(), table)

		for {
			select {
			case <-ctx.Done():
				// The parent context is gone; kill with a fresh one.
				killCtx, cancel := context.WithTimeout(context.Background(), flagTimeout)
				defer cancel()
				_ = c.Kill(killCtx, sub.ID())
				return nil
			case n, ok := <-sub.Notifications():
				if !ok {
					return nil
				}
				line, err := json.Marshal(map[string]any{
					"action": n.Action,
					"result": n.Result,
				})
				if err != nil {
					return fmt.Errorf("encoding notification: %w", err)
				}
				fmt.Println(string(line))
			}
		}
	},
}

func init() {
	liveCmd.Flags().BoolVar(&liveDiff, "diff", false, "receive JSON patches instead of full records")
	rootCmd.AddCommand(liveCmd)
}
