package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/apalyukha/listkit/internal/config"
	"github.com/apalyukha/listkit/internal/daemon"
	"github.com/apalyukha/listkit/internal/dashboard"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard and record watcher",
	Long: `Run the long-lived serve process:

  1. Loads the list (remote first, local fallback)
  2. Serves a WebSocket dashboard that broadcasts every change
  3. Watches the record directory so edits made by other processes
     are folded back into the list (records backend only)

Stops cleanly on SIGINT/SIGTERM. With log_file configured, logs are
rotated on disk instead of going to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var out io.Writer = os.Stderr
		if cfg.LogFile != "" {
			out = &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
		}

		c, store, err := newProvider(log.New(out, "[cache] ", log.LstdFlags))
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := c.Load(ctx); err != nil {
			return err
		}

		srv := dashboard.NewServer(&dashboard.Config{
			Port:   cfg.Dashboard.Port,
			Logger: log.New(out, "[dashboard] ", log.LstdFlags),
		})
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Stop()

		// Seed the dashboard with the loaded collection, then keep it
		// fed through the observer path.
		srv.ItemsChanged(c.Items())
		c.AddObserver(srv)
		defer c.RemoveObserver(srv)

		if cfg.Storage.Backend == config.BackendRecords {
			watcher, err := daemon.New(cfg.Storage.RecordsDir, c, &daemon.Config{
				Logger: log.New(out, "[daemon] ", log.LstdFlags),
			})
			if err != nil {
				return err
			}
			return watcher.Run(ctx)
		}

		<-ctx.Done()
		return nil
	},
}
