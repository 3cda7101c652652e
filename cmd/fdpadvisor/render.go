package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/classifier"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// renderText writes the response the way the assessment report reads:
// prediction, focus areas with topics, then rule recommendations.
func renderText(w io.Writer, resp advisor.Response) {
	fmt.Fprintln(w, "Prediction Results")
	switch {
	case resp.Prediction == nil:
		fmt.Fprintf(w, "High FDP Need: unavailable (%s)\n", resp.PredictionError)
	case resp.Prediction.HighNeed:
		fmt.Fprintf(w, "High FDP Need: YES (probability: %.2f%%)\n", resp.Prediction.Probability*100)
	default:
		fmt.Fprintf(w, "High FDP Need: NO (probability: %.2f%%)\n", resp.Prediction.Probability*100)
	}

	fmt.Fprintf(w, "\nTop %d Focus Areas with Suggested FDP Topics\n", len(resp.FocusAreas))
	for _, a := range resp.FocusAreas {
		fmt.Fprintf(w, "\n%d. %s %s (Score: %g)\n", a.Rank, a.Code, a.Label, a.Score)
		fmt.Fprintln(w, "   Recommended FDP Topics:")
		for _, t := range a.Topics {
			fmt.Fprintf(w, "   - %s\n", t)
		}
	}

	fmt.Fprintln(w, "\nRule-based FDP Recommendations")
	if len(resp.Recommendations) == 0 {
		fmt.Fprintln(w, "No special rules triggered.")
		return
	}
	for _, h := range resp.Recommendations {
		fmt.Fprintf(w, "* %s (triggered by: %s)\n", h.Recommendation, h.Trigger)
	}
}

func renderTaxonomyText(w io.Writer, entries []taxonomy.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s\n", e.Code, e.Label)
		fmt.Fprintf(w, "     %s\n", strings.Join(e.Topics, "; "))
	}
}

// renderImportances prints one bar per code, ascending by importance. Bars
// are scaled by the largest magnitude; negative importances draw with '-'.
func renderImportances(w io.Writer, imps []classifier.Importance) {
	sorted := classifier.SortedAscending(imps)
	maxAbs := 0.0
	for _, i := range sorted {
		maxAbs = math.Max(maxAbs, math.Abs(i.Importance))
	}
	for _, i := range sorted {
		bar := ""
		if maxAbs > 0 {
			n := int(math.Abs(i.Importance) / maxAbs * 40)
			mark := "#"
			if i.Importance < 0 {
				mark = "-"
			}
			bar = strings.Repeat(mark, n)
		}
		fmt.Fprintf(w, "%-4s %-48.48s %8.4f %s\n", i.Code, i.Label, i.Importance, bar)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
