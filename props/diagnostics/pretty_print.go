package diagnostics

import (
	"bytes"
	"io"
	"os"

	"github.com/fatih/color"
)

// ToPrettyString formats every violation and warning with colors. fileName
// names the validated document.
func (v *Violations) ToPrettyString(fileName string) string {
	var buf bytes.Buffer
	_ = v.PrettyPrint(&buf, fileName)
	return buf.String()
}

// PrettyPrint writes every violation followed by every warning.
func (v *Violations) PrettyPrint(w io.Writer, fileName string) error {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	errorTitle := color.New(color.FgRed, color.Bold)
	warningTitle := color.New(color.FgYellow, color.Bold)

	for _, violation := range v.violations {
		if err := writeEntry(w, errorTitle, "error", fileName, violation.Path, violation.Message); err != nil {
			return err
		}
	}
	for _, warning := range v.warnings {
		if err := writeEntry(w, warningTitle, "warning", fileName, warning.Path, warning.Message); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(w io.Writer, title *color.Color, kind, fileName, path, message string) error {
	desc := color.New(color.Bold)
	arrowColor := color.New(color.FgCyan, color.Bold)
	filePathColor := color.New(color.Underline)

	if _, err := title.Fprint(w, kind); err != nil {
		return err
	}
	io.WriteString(w, ": ")
	desc.Fprintf(w, "%s\n", message)

	arrowColor.Fprint(w, "  --> ")
	if path == "" {
		path = "(document)"
	}
	filePathColor.Fprintf(w, "%s %s\n", fileName, path)
	return nil
}
