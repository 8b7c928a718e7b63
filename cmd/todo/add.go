package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/apalyukha/listkit/internal/model"
)

var (
	addImportance string
	addDue        string
	addColor      string
)

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a todo item",
	Long: `Add a new item to the list.

With no text argument an interactive form is shown. The --due flag
accepts natural language ("tomorrow 5pm", "next friday") as well as
dates like 2026-09-01.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if addImportance == "" {
			addImportance = string(model.ImportanceBasic)
		}

		if text == "" {
			if err := addForm(&text); err != nil {
				return err
			}
		}
		if text == "" {
			return fmt.Errorf("item text cannot be empty")
		}

		importance, err := model.ParseImportance(addImportance)
		if err != nil {
			return err
		}
		deadline, err := parseDue(addDue)
		if err != nil {
			return err
		}

		item := model.New(text, cfg.DeviceID)
		item.Importance = importance
		item.Deadline = deadline
		if addColor != "" {
			item.Color = &addColor
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
		if err := c.Add(ctx, item); err != nil {
			return err
		}

		// The server may have rewritten the element; report what the
		// cache actually holds.
		stored, err := findItem(c.Items(), item.ID)
		if err != nil {
			// Adopted under a server-assigned id; fall back to the text.
			fmt.Printf("Added %q\n", text)
			return nil
		}
		fmt.Printf("Added %s %q\n", stored.ID, stored.Text)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addImportance, "importance", "i", "", "low, basic, or important")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", `deadline, e.g. "tomorrow 5pm" or 2026-09-01`)
	addCmd.Flags().StringVar(&addColor, "color", "", "hex color tag, e.g. #FF5533")
}

// addForm collects the item interactively when no text was given.
func addForm(text *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What needs doing?").
				Value(text),
			huh.NewSelect[string]().
				Title("Importance").
				Options(
					huh.NewOption("low", string(model.ImportanceLow)),
					huh.NewOption("basic", string(model.ImportanceBasic)),
					huh.NewOption("important", string(model.ImportanceImportant)),
				).
				Value(&addImportance),
			huh.NewInput().
				Title("Due (optional)").
				Placeholder("tomorrow 5pm").
				Value(&addDue),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("form aborted: %w", err)
	}
	return nil
}

// parseDue turns a human due string into a timestamp. Natural language
// is tried first, then strict layouts.
func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	if r, err := w.Parse(s, time.Now()); err == nil && r != nil {
		t := r.Time
		return &t, nil
	}

	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("could not understand due date %q", s)
}
