package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacerider/neo-alchemist/cli/internal/ui"
	"github.com/jacerider/neo-alchemist/props/expression"
)

var exprCmd = &cobra.Command{
	Use:   "expr <expression>",
	Short: "Parse, explain or evaluate a structured data expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpr,
}

var (
	exprExplain bool
	exprEntity  string
)

func init() {
	exprCmd.Flags().BoolVar(&exprExplain, "explain", false, "Describe the expression in prose")
	exprCmd.Flags().StringVar(&exprEntity, "entity", "", "Evaluate against an entity (<type>:<id>)")

	rootCmd.AddCommand(exprCmd)
}

func runExpr(cmd *cobra.Command, args []string) error {
	expr, err := expression.Parse(args[0])
	if err != nil {
		return err
	}

	ui.PrintCodeBlock(expr.String(), kindOf(expr))

	if exprExplain {
		if err := ui.PrintMarkdown(explain(expr)); err != nil {
			return err
		}
	}

	if exprEntity == "" {
		return nil
	}
	ws, err := openWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	entity, err := loadEntity(ws.loader, exprEntity)
	if err != nil {
		return err
	}
	value, err := ws.engine.Evaluate(entity, expr.String())
	if err != nil {
		return err
	}
	return printJSON(ui.Out, value)
}

func kindOf(expr expression.Expression) string {
	switch expr.(type) {
	case expression.FieldTypeProp:
		return "field type property"
	case expression.ReferenceFieldTypeProp:
		return "field type reference"
	case expression.FieldTypeObjectProps:
		return "field type object"
	case expression.FieldProp:
		return "field property"
	case expression.ReferenceFieldProp:
		return "field reference"
	case expression.FieldObjectProps:
		return "field object"
	case expression.ComponentProp:
		return "component prop"
	}
	return "unknown"
}

func explain(expr expression.Expression) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", kindOf(expr))
	switch e := expr.(type) {
	case expression.FieldTypeProp:
		fmt.Fprintf(&b, "Reads property `%s` of any `%s` field item.\n", e.Prop, e.Type)
	case expression.ReferenceFieldTypeProp:
		fmt.Fprintf(&b, "Follows `%s` on a `%s` field item, then evaluates:\n\n%s",
			e.Referencer.Prop, e.Referencer.Type, quote(explain(e.Referenced)))
	case expression.FieldTypeObjectProps:
		fmt.Fprintf(&b, "Builds an object from a `%s` field item:\n\n", e.Type)
		for _, p := range e.Props {
			fmt.Fprintf(&b, "- `%s`: `%s`\n", p.Name, p.Expr)
		}
	case expression.FieldProp:
		fmt.Fprintf(&b, "Reads property `%s` of field `%s` on `%s`", e.Prop, e.Field, e.EntityType)
		if e.Delta != nil {
			fmt.Fprintf(&b, ", item %d", *e.Delta)
		}
		b.WriteString(".\n")
	case expression.ReferenceFieldProp:
		fmt.Fprintf(&b, "Follows `%s` of field `%s` on `%s`, then evaluates:\n\n%s",
			e.Referencer.Prop, e.Referencer.Field, e.Referencer.EntityType, quote(explain(e.Referenced)))
	case expression.FieldObjectProps:
		fmt.Fprintf(&b, "Builds an object from fields on `%s`:\n\n", e.EntityType)
		for _, p := range e.Props {
			fmt.Fprintf(&b, "- `%s`: `%s`\n", p.Name, p.Expr)
		}
	case expression.ComponentProp:
		fmt.Fprintf(&b, "Prop `%s` of component `%s`. Component prop expressions are keys and cannot be evaluated.\n", e.Prop, e.ComponentID)
	}
	return b.String()
}

func quote(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
