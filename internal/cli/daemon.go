package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openfield/formgate/internal/daemon"
)

var (
	daemonDir      string
	daemonSettings string
	daemonDB       string
	daemonPoll     bool
)

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().StringVar(&daemonDir, "dir", "", "Base directory for inbox/outbox/state (required)")
	daemonCmd.Flags().StringVar(&daemonSettings, "settings", "", "Path to settings YAML (optional)")
	daemonCmd.Flags().StringVar(&daemonDB, "db", "", "Path to formgate database (optional)")
	daemonCmd.Flags().BoolVar(&daemonPoll, "poll", false, "Poll the inbox instead of using fsnotify")
	daemonCmd.MarkFlagRequired("dir")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Process validation jobs from an inbox directory",
	Long: "Watches <dir>/inbox for JSON job files, runs each locator through the\n" +
		"entry gate sequentially, and writes results to <dir>/outbox.",
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dirs := daemon.DefaultDirConfig(daemonDir)
	if err := daemon.EnsureDirs(dirs); err != nil {
		return err
	}

	env, err := openGate(ctx, daemonSettings, daemonDB)
	if err != nil {
		return err
	}
	defer env.Close()

	processor := daemon.NewProcessor(dirs, env.validator)
	handler := func(path string) {
		if err := processor.Process(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "job %s: %v\n", path, err)
		}
	}

	// Handle jobs that arrived while the daemon was down.
	if err := daemon.ScanExisting(dirs.Inbox, handler); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "formgate daemon watching %s\n", dirs.Inbox)
	if daemonPoll {
		return daemon.NewPollWatcher(dirs.Inbox, handler, 0).Run(ctx)
	}
	return daemon.NewInboxWatcher(dirs.Inbox, handler).Run(ctx)
}
