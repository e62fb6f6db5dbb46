package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacerider/neo-alchemist/cli/internal/ui"
	"github.com/jacerider/neo-alchemist/cli/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		fmt.Fprintln(ui.Out, info.FullString())

		if versionLatest == "" {
			return nil
		}
		outdated, err := info.Outdated(versionLatest)
		if err != nil {
			return err
		}
		if outdated {
			ui.PrintWarning("A newer release is available: %s", versionLatest)
			ui.PrintInfo("Download: %s", version.DownloadURL(versionLatest))
		} else {
			ui.PrintSuccess("You are running the latest release")
		}
		return nil
	},
}

var versionLatest string

func init() {
	versionCmd.Flags().StringVar(&versionLatest, "latest", "", "Compare against this release")

	rootCmd.AddCommand(versionCmd)
}
