package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var doneUndo bool

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an item as completed",
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

		item.Done = !doneUndo
		item.ChangedAt = time.Now().Truncate(time.Second)

		if err := c.Update(ctx, item); err != nil {
			return err
		}

		if doneUndo {
			fmt.Printf("Reopened %s %q\n", item.ID, item.Text)
		} else {
			fmt.Printf("Done %s %q\n", item.ID, item.Text)
		}
		return nil
	},
}

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "mark the item as pending again")
}
