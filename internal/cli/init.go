package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openfield/formgate/internal/settings"
)

var (
	initPath  string
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPath, "path", "", "Where to write the settings file (default: "+settings.DefaultPath()+")")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing settings file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default settings file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		path = settings.DefaultPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(settings.DefaultYAML()), 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
