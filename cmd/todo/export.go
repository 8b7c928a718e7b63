package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	exportFormat string
	exportOut    string
)

// exportItem is the human-facing export shape: RFC3339 timestamps
// instead of the unix-seconds wire encoding.
type exportItem struct {
	ID            string     `json:"id" yaml:"id"`
	Text          string     `json:"text" yaml:"text"`
	Importance    string     `json:"importance" yaml:"importance"`
	Deadline      *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Done          bool       `json:"done" yaml:"done"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
	ChangedAt     time.Time  `json:"changed_at" yaml:"changed_at"`
	Color         *string    `json:"color,omitempty" yaml:"color,omitempty"`
	LastUpdatedBy string     `json:"last_updated_by" yaml:"last_updated_by"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the list as JSON or YAML",
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
		out := make([]exportItem, 0, len(items))
		for _, item := range items {
			out = append(out, exportItem{
				ID:            item.ID,
				Text:          item.Text,
				Importance:    string(item.Importance),
				Deadline:      item.Deadline,
				Done:          item.Done,
				CreatedAt:     item.CreatedAt,
				ChangedAt:     item.ChangedAt,
				Color:         item.Color,
				LastUpdatedBy: item.LastUpdatedBy,
			})
		}

		var data []byte
		switch exportFormat {
		case "json":
			data, err = json.MarshalIndent(out, "", "  ")
			if err == nil {
				data = append(data, '\n')
			}
		case "yaml":
			data, err = yaml.Marshal(out)
		default:
			return fmt.Errorf("unknown format %q (want json or yaml)", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}

		if exportOut == "" || exportOut == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d items to %s\n", len(out), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "-", "output file (default stdout)")
}
