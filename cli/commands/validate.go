package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jacerider/neo-alchemist/cli/internal/ui"
	"github.com/jacerider/neo-alchemist/cli/internal/watch"
	"github.com/jacerider/neo-alchemist/props/diagnostics"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a component tree or a component tree item",
	Long: `Validate a component tree structure, or a full item holding both the
tree and its prop sources ("tree" and "props" keys).

Items are validated against the component definitions and, when --host is
given, evaluated against that entity.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var (
	validateHost  string
	validateWatch bool
)

func init() {
	validateCmd.Flags().StringVar(&validateHost, "host", "", "Host entity for item validation (<type>:<id>)")
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "Revalidate when the file or components change")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	file := args[0]
	ws, err := openWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	if !validateWatch {
		return validateFile(ws, file)
	}

	paths := []string{file}
	if dir := ws.components.Dir(); dir != "" {
		paths = append(paths, dir)
	}
	w, err := watch.New(paths, func() error {
		if err := ws.components.Reload(); err != nil {
			ui.PrintError("%v", err)
			return nil
		}
		if err := validateFile(ws, file); err != nil {
			ui.PrintError("%v", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	ui.PrintInfo("Watching %s for changes, press Ctrl+C to stop", filepath.Base(file))
	<-cmd.Context().Done()
	return nil
}

func validateFile(ws *workspace, file string) error {
	data, err := readInput(file)
	if err != nil {
		return err
	}
	raw, err := decodeObject(data, file)
	if err != nil {
		return err
	}

	var violations *diagnostics.Violations
	if isItem(raw) {
		host, err := loadEntity(ws.loader, validateHost)
		if err != nil {
			return err
		}
		violations, err = ws.engine.ValidateItem(raw, host)
		if err != nil {
			return err
		}
	} else {
		violations = ws.engine.ValidateTree(data).Violations
	}

	if err := violations.PrettyPrint(ui.Err, file); err != nil {
		return err
	}
	if violations.HasViolations() {
		return fmt.Errorf("%s: %d violation(s)", file, violations.Len())
	}
	ui.PrintSuccess("%s is valid", file)
	return nil
}

// isItem reports whether raw is a full item rather than a bare tree.
func isItem(raw map[string]any) bool {
	_, hasTree := raw["tree"]
	_, hasProps := raw["props"]
	return hasTree && hasProps
}
