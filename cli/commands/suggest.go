package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacerider/neo-alchemist/cli/internal/ui"
	"github.com/jacerider/neo-alchemist/content"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <component-id>",
	Short: "Suggest content fields and adapters for a component's props",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

var (
	suggestHost string
	suggestJSON bool
)

func init() {
	suggestCmd.Flags().StringVar(&suggestHost, "host", "", "Host entity data type, e.g. entity:node:article")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Print suggestions as JSON")

	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	var host *content.EntityDataDefinition
	if suggestHost != "" {
		def, err := content.ParseEntityDataDefinition(suggestHost)
		if err != nil {
			return err
		}
		host = &def
	}

	ws, err := openWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	suggestions, err := ws.engine.Suggest(args[0], host)
	if err != nil {
		return err
	}
	if suggestJSON {
		return printJSON(ui.Out, suggestions)
	}

	rows := make([][]string, 0, len(suggestions))
	for _, s := range suggestions {
		required := ""
		if s.Required {
			required = "yes"
		}
		fields := make([]string, 0, len(s.Instances))
		for _, inst := range s.Instances {
			fields = append(fields, inst.Label)
		}
		adapters := make([]string, 0, len(s.Adapters))
		for _, a := range s.Adapters {
			adapters = append(adapters, fmt.Sprintf("%s (%s)", a.Label, a.ID))
		}
		rows = append(rows, []string{s.Prop, required, orDash(strings.Join(fields, "\n")), orDash(strings.Join(adapters, "\n"))})
	}
	return ui.PrintTable([]string{"Prop", "Required", "Fields", "Adapters"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
