package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, store, err := newProvider(nil)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if err := c.Load(ctx); err != nil {
			return err
		}

		item, err := findItem(c.Items(), args[0])
		if err != nil {
			return err
		}

		if err := c.Remove(ctx, item.ID); err != nil {
			return err
		}

		fmt.Printf("Removed %s %q\n", item.ID, item.Text)
		return nil
	},
}
