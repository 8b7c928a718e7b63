package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/apalyukha/listkit/internal/model"
)

var (
	doneStyle      = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	importantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	lowStyle       = lipgloss.NewStyle().Faint(true)
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle     = lipgloss.NewStyle().Faint(true)
)

var listShowDone bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the todo list",
	Long: `Fetch the current list from the server and print it.

When the server is unreachable the list is read from the local store
instead, so the command works offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, store, err := newProvider(nil)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := c.Load(cmd.Context()); err != nil {
			return err
		}

		items := c.Items()
		if len(items) == 0 {
			fmt.Println(mutedStyle.Render("Nothing to do."))
			return nil
		}

		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}

		pending := 0
		for _, item := range items {
			if item.Done && !listShowDone {
				continue
			}
			if !item.Done {
				pending++
			}

			line := fmt.Sprintf("%s %s %s%s",
				checkbox(item.Done),
				shortID(item.ID),
				importanceMarker(item.Importance),
				item.Text,
			)
			if item.Deadline != nil {
				line += " " + deadlineLabel(*item.Deadline, item.Done)
			}
			if len(line) > width {
				line = line[:width-1] + "…"
			}
			if item.Done {
				line = doneStyle.Render(line)
			}
			fmt.Println(line)
		}

		footer := fmt.Sprintf("%d items, %d pending", len(items), pending)
		if rev, ok := c.Revision(); ok {
			footer += fmt.Sprintf(" (revision %d)", rev)
		} else {
			footer += " (offline copy)"
		}
		fmt.Println(mutedStyle.Render(footer))
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listShowDone, "all", "a", false, "include completed items")
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return mutedStyle.Render(id)
}

func importanceMarker(importance model.Importance) string {
	switch importance {
	case model.ImportanceImportant:
		return importantStyle.Render("!! ")
	case model.ImportanceLow:
		return lowStyle.Render("↓ ")
	default:
		return ""
	}
}

func deadlineLabel(deadline time.Time, done bool) string {
	label := "due " + deadline.Format("Jan 2 15:04")
	if !done && deadline.Before(time.Now()) {
		return overdueStyle.Render(label + " (overdue)")
	}
	return mutedStyle.Render(label)
}
