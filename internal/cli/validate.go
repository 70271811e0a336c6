package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfield/formgate/internal/gate"
	"github.com/openfield/formgate/internal/model"
)

var (
	validateSettings string
	validateDB       string
	validateAction   string
	validateFormat   string
)

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateSettings, "settings", "", "Path to settings YAML (optional)")
	validateCmd.Flags().StringVar(&validateDB, "db", "", "Path to formgate database (optional)")
	validateCmd.Flags().StringVar(&validateAction, "action", "", "Action to attach to the launch request")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text|json)")
}

var validateCmd = &cobra.Command{
	Use:   "validate <uri>",
	Short: "Run the entry gate against a locator",
	Long: "Parses the locator URI, runs the ordered validation chain, and prints\n" +
		"the outcome. Exit code 0 when the locator may be opened, 1 when a gate\n" +
		"check rejects it.",
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	loc, err := model.ParseLocator(args[0])
	if err != nil {
		return err
	}

	env, err := openGate(ctx, validateSettings, validateDB)
	if err != nil {
		return err
	}
	defer env.Close()

	runner := gate.NewRunner(env.validator, nil)
	outcome := <-runner.Start(ctx, loc, validateAction, nil)

	if outcome.Failure != nil {
		return outcome.Failure
	}

	switch validateFormat {
	case "json":
		out, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		if outcome.Err != nil {
			fmt.Printf("REJECTED  %s\n%s\n", outcome.Err.Kind, outcome.Err.Message)
		} else {
			fmt.Printf("OK  mode=%s\n", outcome.Launch.Mode)
		}
	}

	if outcome.Err != nil {
		os.Exit(1)
	}
	return nil
}
