package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/straja-ai/fdpadvisor/internal/scorefile"
)

var batchFlags struct {
	file     string
	output   string
	parallel int
	top      int
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate many score sets from a CSV or JSONL file",
	Long: "Reads score sets from a CSV (header of codes, optional id column) or JSONL\n" +
		"file and writes one JSON result per line, in input order.",
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchFlags.file, "file", "f", "", "Batch file (.csv, .jsonl) (required)")
	f.StringVarP(&batchFlags.output, "output", "o", "", "Output JSONL path (default stdout)")
	f.IntVar(&batchFlags.parallel, "parallel", 0, "Concurrent evaluations (default from config)")
	f.IntVar(&batchFlags.top, "top", 0, "Number of focus areas (default from config)")

	_ = batchCmd.MarkFlagRequired("file")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	items, err := scorefile.ReadBatch(batchFlags.file)
	if err != nil {
		return err
	}
	if limit := cfg.Batch.MaxItems; limit > 0 && len(items) > limit {
		return fmt.Errorf("batch has %d items; at most %d are allowed (batch.max_items)", len(items), limit)
	}

	eval, err := buildEvaluator(cfg)
	if err != nil {
		return err
	}
	defer eval.Adapter().Close()

	parallel := batchFlags.parallel
	if parallel <= 0 {
		parallel = cfg.Batch.Parallelism
	}
	results, err := eval.EvaluateBatch(cmd.Context(), items, batchFlags.top, parallel)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if batchFlags.output != "" {
		f, err := os.Create(batchFlags.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write result %s: %w", r.ID, err)
		}
	}
	log.Info().Int("items", len(results)).Int("failed", failed).Msg("batch complete")
	return nil
}
