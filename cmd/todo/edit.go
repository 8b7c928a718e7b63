package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apalyukha/listkit/internal/model"
)

var (
	editText       string
	editImportance string
	editDue        string
	editColor      string
	editClearDue   bool
	editClearColor bool
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an item's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if editText == "" && editImportance == "" && editDue == "" &&
			editColor == "" && !editClearDue && !editClearColor {
			return fmt.Errorf("nothing to change: pass at least one of --text, --importance, --due, --color, --clear-due, --clear-color")
		}

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

		if editText != "" {
			item.Text = editText
		}
		if editImportance != "" {
			importance, err := model.ParseImportance(editImportance)
			if err != nil {
				return err
			}
			item.Importance = importance
		}
		if editClearDue {
			item.Deadline = nil
		} else if editDue != "" {
			deadline, err := parseDue(editDue)
			if err != nil {
				return err
			}
			item.Deadline = deadline
		}
		if editClearColor {
			item.Color = nil
		} else if editColor != "" {
			item.Color = &editColor
		}
		item.ChangedAt = time.Now().Truncate(time.Second)

		if err := c.Update(ctx, item); err != nil {
			return err
		}

		fmt.Printf("Updated %s %q\n", item.ID, item.Text)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editText, "text", "", "new text")
	editCmd.Flags().StringVarP(&editImportance, "importance", "i", "", "low, basic, or important")
	editCmd.Flags().StringVarP(&editDue, "due", "d", "", "new deadline")
	editCmd.Flags().StringVar(&editColor, "color", "", "new hex color tag")
	editCmd.Flags().BoolVar(&editClearDue, "clear-due", false, "remove the deadline")
	editCmd.Flags().BoolVar(&editClearColor, "clear-color", false, "remove the color tag")
}
