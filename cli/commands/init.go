package commands

import (
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacerider/neo-alchemist/cli/internal/config"
	"github.com/jacerider/neo-alchemist/cli/internal/ui"
	"github.com/jacerider/neo-alchemist/props/component"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file and an example component",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var initYes bool

func init() {
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept the defaults without prompting")

	rootCmd.AddCommand(initCmd)
}

const exampleComponent = `name: Teaser
props:
  type: object
  required:
    - heading
  properties:
    heading:
      type: string
      title: Heading
      examples:
        - Hello, world!
    summary:
      type: string
      title: Summary
      contentMediaType: text/html
    link:
      type: string
      title: Link
      format: uri-reference
slots:
  content:
    title: Content
`

func runInit(cmd *cobra.Command, args []string) error {
	ui.PrintHeader("neo-alchemist", "Component prop storage planning")

	answers := *cfg
	if !initYes {
		if err := askInit(&answers); err != nil {
			return err
		}
	}

	path, err := config.SaveConfig(viper.New(), &answers, config.FileName+".yaml")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ui.PrintSuccess("Created %s", path)

	if err := config.AppFs.MkdirAll(answers.ComponentsDir, 0755); err != nil {
		return fmt.Errorf("failed to create components directory: %w", err)
	}
	example := filepath.Join(answers.ComponentsDir, "teaser"+component.FileSuffix)
	if ok, _ := afero.Exists(config.AppFs, example); ok {
		ui.PrintWarning("%s already exists, skipping", example)
	} else {
		if err := afero.WriteFile(config.AppFs, example, []byte(exampleComponent), 0644); err != nil {
			return fmt.Errorf("failed to write example component: %w", err)
		}
		ui.PrintSuccess("Created %s", example)
	}

	ui.PrintSection("Next steps")
	ui.PrintList([]string{
		"neo-alchemist shape teaser",
		"neo-alchemist suggest teaser --host entity:node:article",
	})
	return nil
}

func askInit(answers *config.Config) error {
	questions := []*survey.Question{
		{
			Name:     "components",
			Prompt:   &survey.Input{Message: "Components directory:", Default: answers.ComponentsDir},
			Validate: survey.Required,
		},
		{
			Name: "provider",
			Prompt: &survey.Select{
				Message: "Content provider:",
				Options: []string{"memory", "sqlite", "postgres", "mysql"},
				Default: answers.ContentProvider,
			},
		},
	}
	result := struct {
		Components string
		Provider   string
	}{}
	if err := survey.Ask(questions, &result); err != nil {
		return err
	}
	answers.ComponentsDir = result.Components
	answers.ContentProvider = result.Provider

	if answers.ContentProvider != "memory" {
		if err := survey.AskOne(&survey.Input{
			Message: "Connection string:",
			Default: answers.ContentDSN,
		}, &answers.ContentDSN, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}
	return survey.AskOne(&survey.Input{
		Message: "Content fixture (optional):",
		Default: answers.ContentFixture,
	}, &answers.ContentFixture)
}
