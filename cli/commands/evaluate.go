package commands

import (
	"github.com/spf13/cobra"

	"github.com/jacerider/neo-alchemist/cli/internal/ui"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <source.json|->",
	Short: "Evaluate a prop source",
	Long: `Evaluate a static, dynamic or adapted prop source and print the
resulting value as JSON. Dynamic sources read from the --host entity.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

var evaluateHost string

func init() {
	evaluateCmd.Flags().StringVar(&evaluateHost, "host", "", "Host entity (<type>:<id>)")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	raw, err := decodeObject(data, "prop source")
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	host, err := loadEntity(ws.loader, evaluateHost)
	if err != nil {
		return err
	}
	value, err := ws.engine.EvaluateSource(raw, host)
	if err != nil {
		return err
	}
	return printJSON(ui.Out, value)
}
