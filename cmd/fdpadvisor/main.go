// fdpadvisor recommends faculty development programmes from a teacher's
// training-needs self-assessment.
//
// Usage:
//
//	fdpadvisor serve [--addr :8080]
//	fdpadvisor evaluate -f scores.yaml [--format text|json] [--top N]
//	fdpadvisor batch -f scores.csv [-o results.jsonl] [--parallel N]
//	fdpadvisor taxonomy [--format text|yaml]
//	fdpadvisor importances
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/straja-ai/fdpadvisor/internal/config"
	"github.com/straja-ai/fdpadvisor/internal/logging"
	"github.com/straja-ai/fdpadvisor/internal/redact"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	envFile    string
}

// cfg is loaded once per invocation by the root pre-run hook.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fdpadvisor",
	Short: "Faculty development programme recommendations from TNA scores",
	Long: "fdpadvisor scores a 43-item training-needs self-assessment, predicts\n" +
		"whether the teacher has a high FDP need, ranks focus areas and applies\n" +
		"rule-based FDP recommendations.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: loadRuntime,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "fdpadvisor.yaml", "Path to config file (missing file uses defaults)")
	pf.StringVar(&rootFlags.envFile, "env-file", ".env", "Environment file loaded before config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(taxonomyCmd)
	rootCmd.AddCommand(importancesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version
}

func loadRuntime(cmd *cobra.Command, _ []string) error {
	if rootFlags.envFile != "" {
		if err := godotenv.Load(rootFlags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rootFlags.envFile, err)
		}
	}
	c, err := config.Load(rootFlags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("invalid config %s: %w", rootFlags.configPath, err)
	}
	if _, err := logging.Init(c.Logging); err != nil {
		return err
	}
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, redact.String(err.Error()))
		os.Exit(1)
	}
}
