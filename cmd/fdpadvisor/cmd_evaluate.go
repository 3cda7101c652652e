package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/straja-ai/fdpadvisor/internal/scorefile"
)

var evaluateFlags struct {
	file   string
	format string
	top    int
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one score set from a JSON or YAML file",
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVarP(&evaluateFlags.file, "file", "f", "", "Score file (.json, .yaml, .yml) (required)")
	f.StringVar(&evaluateFlags.format, "format", formatText, "Output format: text or json")
	f.IntVar(&evaluateFlags.top, "top", 0, "Number of focus areas (default from config)")

	_ = evaluateCmd.MarkFlagRequired("file")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	if evaluateFlags.format != formatText && evaluateFlags.format != formatJSON {
		return fmt.Errorf("unknown format %q", evaluateFlags.format)
	}
	scores, err := scorefile.ReadScores(evaluateFlags.file)
	if err != nil {
		return err
	}
	eval, err := buildEvaluator(cfg)
	if err != nil {
		return err
	}
	defer eval.Adapter().Close()

	resp, err := eval.EvaluateScores(cmd.Context(), scores, evaluateFlags.top)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", evaluateFlags.file, err)
	}

	out := cmd.OutOrStdout()
	if evaluateFlags.format == formatJSON {
		return writeJSON(out, resp)
	}
	renderText(out, resp)
	return nil
}
