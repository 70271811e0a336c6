package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfield/formgate/internal/model"
	"github.com/openfield/formgate/internal/settings"
	"github.com/openfield/formgate/internal/store"
)

var (
	seedSettings string
	seedDB       string
)

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedSettings, "settings", "", "Path to settings YAML (optional)")
	seedCmd.Flags().StringVar(&seedDB, "db", "", "Path to formgate database (optional)")
}

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load projects, forms, and instances from a fixture file",
	Long: "Reads a YAML fixture and inserts its projects, forms, and instances\n" +
		"into the formgate database. Intended for local testing.",
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

// fixture is the seed file shape.
type fixture struct {
	Projects  []fixtureProject  `yaml:"projects"`
	Forms     []fixtureForm     `yaml:"forms"`
	Instances []fixtureInstance `yaml:"instances"`
}

type fixtureProject struct {
	UUID string `yaml:"uuid"`
	Name string `yaml:"name"`
}

type fixtureForm struct {
	FormID  string `yaml:"form_id"`
	Version string `yaml:"version"`
	Path    string `yaml:"path"`
	Deleted bool   `yaml:"deleted"`
}

type fixtureInstance struct {
	FormID              string `yaml:"form_id"`
	FormVersion         string `yaml:"form_version"`
	Path                string `yaml:"path"`
	Status              string `yaml:"status"`
	CanEditWhenComplete bool   `yaml:"can_edit_when_complete"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	sett, err := settings.Load(seedSettings)
	if err != nil {
		return err
	}
	dbPath := seedDB
	if dbPath == "" {
		dbPath = defaultDBPath(sett)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, p := range fx.Projects {
		stored, err := st.Projects.Add(ctx, model.Project{UUID: p.UUID, Name: p.Name})
		if err != nil {
			return err
		}
		fmt.Printf("project %s (%s)\n", stored.UUID, stored.Name)
	}
	for _, f := range fx.Forms {
		stored, err := st.Forms.Add(ctx, model.FormRecord{
			FormID:  f.FormID,
			Version: f.Version,
			Path:    f.Path,
			Deleted: f.Deleted,
		})
		if err != nil {
			return err
		}
		fmt.Printf("form %d (%s v%q)\n", stored.ID, stored.FormID, stored.Version)
	}
	for _, in := range fx.Instances {
		stored, err := st.Instances.Add(ctx, model.InstanceRecord{
			FormID:              in.FormID,
			FormVersion:         in.FormVersion,
			Path:                in.Path,
			Status:              in.Status,
			CanEditWhenComplete: in.CanEditWhenComplete,
		})
		if err != nil {
			return err
		}
		fmt.Printf("instance %d (%s)\n", stored.ID, stored.FormID)
	}

	return nil
}
