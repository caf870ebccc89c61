// Package cli provides the command-line interface for dartfront.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dartfront/dartfront/internal/cli/commands"
	"github.com/dartfront/dartfront/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dartfront",
		Short: "dartfront - library outline front end",
		Long: `dartfront builds library-level symbol tables from outline files.

It loads a program starting at an entry library, merges part files,
resolves imports and exports with combinators and conditional URIs,
resolves type references, and reports every problem found on the way.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(ctx)

			if cfg.Verbose && cfg.FileUsed != "" {
				fmt.Fprintf(os.Stderr, "Using config file: %s\n", cfg.FileUsed)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Library outline front end
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dartfront.yaml)")
	rootCmd.PersistentFlags().String("core-library", "", "Core library URI implicitly imported everywhere")
	rootCmd.PersistentFlags().Bool("strong-mode", true, "Treat type argument count mismatches as errors")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewCheckCommand(GetConfig))
	rootCmd.AddCommand(commands.NewDumpCommand(GetConfig))
	rootCmd.AddCommand(commands.NewGraphCommand(GetConfig))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		SDK:    config.SDKConfig{CoreLibrary: config.DefaultCoreLibrary, StrongMode: true},
		Format: config.DefaultFormat,
	}
}
