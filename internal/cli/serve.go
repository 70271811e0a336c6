package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfield/formgate/internal/server"
	"github.com/openfield/formgate/internal/settings"
)

var (
	serveAddr     string
	serveSettings string
	serveDB       string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8990", "Listen address")
	serveCmd.Flags().StringVar(&serveSettings, "settings", "", "Path to settings YAML (optional)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Path to formgate database (optional)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the entry gate over HTTP",
	Long: "Starts a local HTTP server with POST /v1/validate and GET /healthz.\n" +
		"The settings file is hot-reloaded on change.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	dbPath := serveDB
	if dbPath == "" {
		sett, err := settings.Load(serveSettings)
		if err != nil {
			return err
		}
		dbPath = defaultDBPath(sett)
	}

	srv, err := server.New(server.Config{
		Addr:         serveAddr,
		SettingsPath: serveSettings,
		DBPath:       dbPath,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloader, err := server.NewReloader(srv, serveSettings)
	if err != nil {
		return err
	}
	go func() {
		if err := reloader.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "reloader stopped: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "formgate listening on %s\n", serveAddr)
	return srv.Serve()
}
