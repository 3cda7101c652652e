package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
)

var taxonomyFlags struct {
	format string
}

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the subdomain table",
	RunE:  runTaxonomy,
}

var importancesCmd = &cobra.Command{
	Use:   "importances",
	Short: "Print the model's feature importances, ascending",
	RunE:  runImportances,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	taxonomyCmd.Flags().StringVar(&taxonomyFlags.format, "format", formatText, "Output format: text or yaml")
}

func runTaxonomy(cmd *cobra.Command, _ []string) error {
	table, err := advisor.LoadTable(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch taxonomyFlags.format {
	case formatText:
		renderTaxonomyText(out, table.Entries())
		return nil
	case formatYAML:
		// Same shape taxonomy.Load reads back.
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(map[string]any{"entries": table.Entries()})
	default:
		return fmt.Errorf("unknown format %q", taxonomyFlags.format)
	}
}

func runImportances(cmd *cobra.Command, _ []string) error {
	eval, err := buildEvaluator(cfg)
	if err != nil {
		return err
	}
	defer eval.Adapter().Close()

	imps, ok := eval.Adapter().Importances()
	if !ok {
		return errors.New("this model does not provide feature importances")
	}
	renderImportances(cmd.OutOrStdout(), imps)
	return nil
}
