package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apalyukha/listkit/internal/api"
	"github.com/apalyukha/listkit/internal/cache"
	"github.com/apalyukha/listkit/internal/config"
	"github.com/apalyukha/listkit/internal/model"
	"github.com/apalyukha/listkit/internal/storage"
	"github.com/apalyukha/listkit/internal/storage/records"
	"github.com/apalyukha/listkit/internal/storage/sqlite"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "Local-first todo list with remote sync",
	Long: `todo keeps your task list in sync with a remote backend while
remaining fully usable offline.

Reads and writes go to the server first; when the network is down the
change is applied locally and persisted to the local store, so nothing
is ever lost. The local store is either a directory of JSON records
(default) or a SQLite database, selectable in the config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.listkit/config.yaml)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

// openStore builds the configured storage backend.
func openStore(logger *log.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return sqlite.Open(cfg.Storage.SQLitePath)
	default:
		return records.Open(cfg.Storage.RecordsDir, logger)
	}
}

// newProvider wires the transport, store, and cache together. The
// caller owns the returned store and must Close() it.
func newProvider(logger *log.Logger) (*cache.Cache, storage.Store, error) {
	store, err := openStore(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}
	client := api.NewHTTPClient(cfg.BaseURL, cfg.Token)
	return cache.New(client, store, logger), store, nil
}

// findItem resolves id against the collection, accepting a unique id
// prefix as shorthand.
func findItem(items []model.Item, id string) (model.Item, error) {
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}

	var matches []model.Item
	for _, it := range items {
		if strings.HasPrefix(it.ID, id) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.Item{}, fmt.Errorf("no item with id %q", id)
	default:
		return model.Item{}, fmt.Errorf("id %q is ambiguous (%d matches)", id, len(matches))
	}
}
