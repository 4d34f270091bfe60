// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/config"
)

var (
	// Global flags
	configFlag  string
	contextFlag string

	// Resolved values
	cfg                *config.Config
	resolvedConfigPath string
	resolvedContextDir string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio - a BibTeX bibliography companion",
	Long: `Folio keeps your BibTeX bibliographies at your fingertips: fuzzy-pick
entries, jump to the PDF, the note, or the DOI page, and keep per-project
reading lists layered over a global library.

Point it at one or more .bib files and a context directory; folio discovers
local bibliographies, renders searchable candidate lines, and resolves each
citation key to its openable resources.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config resolution for commands that don't need it
		switch cmd.Name() {
		case "config", "version", "docs", "completion", "help":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}
		// config init/path must work with a broken or absent config file.
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" && cmd.Name() != "show" {
			return nil
		}

		var err error
		resolvedContextDir = contextFlag
		if resolvedContextDir == "" {
			resolvedContextDir, err = os.Getwd()
			if err != nil {
				return handleError(ErrCodeInternal, err, "")
			}
		}
		if _, err := os.Stat(resolvedContextDir); os.IsNotExist(err) {
			return handleErrorMsg(ErrCodeInvalidInput,
				fmt.Sprintf("context directory not found: %s", resolvedContextDir), "")
		}

		// A missing config file is fine; everything has a default. A broken
		// one is not.
		resolvedConfigPath = config.ResolvePath(configFlag)
		if _, err := os.Stat(resolvedConfigPath); os.IsNotExist(err) {
			cfg = &config.Config{}
			return nil
		}
		cfg, err = config.LoadFrom(resolvedConfigPath)
		if err != nil {
			return handleError(ErrCodeConfig, err,
				fmt.Sprintf("Check %s, or run 'folio config init' to start fresh", resolvedConfigPath))
		}

		return nil
	},
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&contextFlag, "context", "C", "", "Context directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	return cfg
}

// getConfigPath returns the resolved config file path.
func getConfigPath() string {
	return resolvedConfigPath
}

// getContextDir returns the resolved context directory.
func getContextDir() string {
	return resolvedContextDir
}
