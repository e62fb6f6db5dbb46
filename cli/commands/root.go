package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacerider/neo-alchemist/cli/internal/config"
	"github.com/jacerider/neo-alchemist/cli/internal/version"
	"github.com/jacerider/neo-alchemist/internal/debug"
)

var (
	v       = viper.New()
	cfg     *config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "neo-alchemist",
	Short: "Plan, validate and evaluate component props",
	Long: `neo-alchemist maps component prop schemas to content storage.

It normalizes prop shapes and recommends field storage for them, parses and
evaluates structured data expressions, validates component trees and suggests
which content fields can feed a component's props.`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		debug.Init(cfg.Debug)
		debug.Debug("config loaded", "file", v.ConfigFileUsed(), "components", cfg.ComponentsDir, "provider", cfg.ContentProvider)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default .neo-alchemist.yaml)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.StringP("components", "c", "", "Directory holding *.component.yml definitions")
	flags.String("definitions", "", "Directory holding *.definitions.json schema definitions")
	flags.String("provider", "", "Content provider: memory, sqlite, postgres or mysql")
	flags.String("dsn", "", "Content database connection string")
	flags.String("fixture", "", "YAML content fixture to seed the content store with")

	for key, flag := range map[string]string{
		"debug":            "debug",
		"components_dir":   "components",
		"definitions_dir":  "definitions",
		"content_provider": "provider",
		"content_dsn":      "dsn",
		"content_fixture":  "fixture",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

// Execute is the main entry point for the CLI. Interrupts cancel the
// command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
