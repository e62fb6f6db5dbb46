package commands

import (
	"encoding/json"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jacerider/neo-alchemist/cli/internal/ui"
	"github.com/jacerider/neo-alchemist/props/propshape"
)

var shapeCmd = &cobra.Command{
	Use:   "shape [component-id]",
	Short: "Show the normalized shapes and storage plans of component props",
	Long: `Normalize every prop of a component and show the storage recommended
for it: field type, widget and the expression reading the value back.

Use --schema to plan a single JSON schema instead of a component.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShape,
}

var (
	shapeSchema   string
	shapeDump     bool
	shapeDefaults bool
)

func init() {
	shapeCmd.Flags().StringVar(&shapeSchema, "schema", "", "Plan a single JSON schema")
	shapeCmd.Flags().BoolVar(&shapeDump, "dump", false, "Dump the computed storage plans")
	shapeCmd.Flags().BoolVar(&shapeDefaults, "defaults", false, "Print the component's default prop sources as YAML")

	rootCmd.AddCommand(shapeCmd)
}

type plannedProp struct {
	name  string
	shape *propshape.Shape
	plan  *propshape.Storable
}

func runShape(cmd *cobra.Command, args []string) error {
	if shapeSchema == "" && len(args) == 0 {
		return fmt.Errorf("a component ID or --schema is required")
	}
	ws, err := openWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	var planned []plannedProp
	if shapeSchema != "" {
		var schema map[string]any
		if err := json.Unmarshal([]byte(shapeSchema), &schema); err != nil {
			return fmt.Errorf("--schema must be a JSON object: %w", err)
		}
		shape, plan, err := ws.engine.Plan(schema)
		if err != nil {
			return err
		}
		planned = append(planned, plannedProp{name: "(schema)", shape: shape, plan: plan})
	} else {
		shapes, err := ws.engine.PropShapes(args[0])
		if err != nil {
			return err
		}
		for _, ps := range shapes {
			planned = append(planned, plannedProp{name: ps.Expression.String(), shape: ps.Shape, plan: ws.engine.Planner().Storable(ps.Shape)})
		}
	}

	rows := make([][]string, 0, len(planned))
	for _, p := range planned {
		row := []string{p.name, p.shape.Key(), "-", "-", "-"}
		if p.plan != nil {
			row[2], row[3], row[4] = p.plan.FieldType(), p.plan.FieldWidget(), p.plan.FieldTypeProp().String()
		}
		rows = append(rows, row)
	}
	if err := ui.PrintTable([]string{"Prop", "Shape", "Field type", "Widget", "Expression"}, rows); err != nil {
		return err
	}

	if shapeDump {
		for _, p := range planned {
			if p.plan == nil {
				continue
			}
			ui.PrintSection(p.name)
			spew.Fdump(ui.Out, p.plan.Candidate())
		}
	}

	if shapeDefaults && len(args) > 0 {
		defaults, err := ws.engine.Defaults(args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(defaults)
		if err != nil {
			return err
		}
		ui.PrintSection("Defaults")
		fmt.Fprint(ui.Out, string(out))
	}
	return nil
}
