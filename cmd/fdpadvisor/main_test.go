package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/classifier"
	"github.com/straja-ai/fdpadvisor/internal/ranking"
	"github.com/straja-ai/fdpadvisor/internal/rules"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// setupConfig writes a config with a linear model (0.1 per item, intercept
// -20) and returns its path.
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	var m strings.Builder
	m.WriteString("coefficients:\n")
	for range taxonomy.Default().Codes() {
		m.WriteString("  - 0.1\n")
	}
	m.WriteString("intercept: -20\n")
	modelPath := writeFile(t, dir, "model.yaml", m.String())

	return writeFile(t, dir, "fdpadvisor.yaml", "model:\n  kind: linear\n  path: "+modelPath+"\nlogging:\n  level: error\n")
}

func scoresYAML(base string, overrides map[string]string) string {
	var b strings.Builder
	b.WriteString("scores:\n")
	for _, c := range taxonomy.Default().Codes() {
		v := base
		if o, ok := overrides[string(c)]; ok {
			v = o
		}
		b.WriteString("  " + string(c) + ": " + v + "\n")
	}
	return b.String()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEvaluateCommandText(t *testing.T) {
	cfgPath := setupConfig(t)
	scores := writeFile(t, t.TempDir(), "scores.yaml", scoresYAML("5", map[string]string{"A11": "9", "A21": "8"}))

	out, err := execute(t, "--config", cfgPath, "--env-file", "", "evaluate", "-f", scores, "--format", "text", "--top", "3")
	if err != nil {
		t.Fatalf("evaluate: %v\n%s", err, out)
	}
	for _, want := range []string{
		"High FDP Need: YES (probability: 90.02%)",
		"1. A11 ",
		"2. A21 ",
		"3. A12 ",
		"(triggered by: A11 > 8 & A21 > 7)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluateCommandJSON(t *testing.T) {
	cfgPath := setupConfig(t)
	scores := writeFile(t, t.TempDir(), "scores.yaml", scoresYAML("5", nil))

	out, err := execute(t, "--config", cfgPath, "--env-file", "", "evaluate", "-f", scores, "--format", "json", "--top", "0")
	if err != nil {
		t.Fatalf("evaluate: %v\n%s", err, out)
	}
	var resp advisor.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	// z = 43*5*0.1 - 20 = 1.5
	if resp.Prediction == nil || !resp.Prediction.HighNeed || math.Abs(resp.Prediction.Probability-0.8176) > 1e-4 {
		t.Fatalf("expected high need with p=0.8176, got %+v", resp.Prediction)
	}
	if len(resp.FocusAreas) != 3 || len(resp.Recommendations) != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestEvaluateCommandRejectsBadScores(t *testing.T) {
	cfgPath := setupConfig(t)
	scores := writeFile(t, t.TempDir(), "scores.yaml", scoresYAML("5", map[string]string{"C11": "0"}))

	if _, err := execute(t, "--config", cfgPath, "--env-file", "", "evaluate", "-f", scores, "--format", "text", "--top", "0"); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestBatchCommandWritesJSONL(t *testing.T) {
	cfgPath := setupConfig(t)
	dir := t.TempDir()

	codes := taxonomy.Default().Codes()
	header := []string{"id"}
	row1 := []string{"t-1"}
	row2 := []string{"t-2"}
	for _, c := range codes {
		header = append(header, string(c))
		row1 = append(row1, "5")
		row2 = append(row2, "5")
	}
	row2[1] = "15"
	csvPath := writeFile(t, dir, "scores.csv", strings.Join([]string{
		strings.Join(header, ","),
		strings.Join(row1, ","),
		strings.Join(row2, ","),
	}, "\n")+"\n")
	outPath := filepath.Join(dir, "out.jsonl")

	if out, err := execute(t, "--config", cfgPath, "--env-file", "", "batch", "-f", csvPath, "-o", outPath, "--parallel", "2", "--top", "0"); err != nil {
		t.Fatalf("batch: %v\n%s", err, out)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	var results []advisor.BatchResult
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r advisor.BatchResult
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		results = append(results, r)
	}
	if len(results) != 2 || results[0].ID != "t-1" || results[0].Response == nil || results[1].ID != "t-2" || results[1].Error == "" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestTaxonomyCommandYAMLRoundTrips(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--env-file", "", "taxonomy", "--format", "yaml")
	if err != nil {
		t.Fatalf("taxonomy: %v", err)
	}
	path := writeFile(t, t.TempDir(), "taxonomy.yaml", out)
	tab, err := taxonomy.Load(path)
	if err != nil {
		t.Fatalf("reload taxonomy: %v", err)
	}
	if !tab.SameOrder(taxonomy.Default().Codes()) {
		t.Fatalf("taxonomy order changed on round trip")
	}
}

func TestImportancesCommandWithoutModel(t *testing.T) {
	if _, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--env-file", "", "importances"); err == nil {
		t.Fatalf("expected error without a model")
	}
}

func TestRenderTextWithoutPredictionOrRules(t *testing.T) {
	resp := advisor.Compose(nil, classifier.ErrNotConfigured, []ranking.FocusArea{
		{Rank: 1, Code: "B14", Label: "Classroom Management", Score: 7, Topics: []string{"Managing large classes"}},
	}, []rules.Hit{})

	var b bytes.Buffer
	renderText(&b, resp)
	out := b.String()
	for _, want := range []string{
		"High FDP Need: unavailable",
		"Top 1 Focus Areas",
		"1. B14 Classroom Management (Score: 7)",
		"   - Managing large classes",
		"No special rules triggered.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderImportancesAscending(t *testing.T) {
	var b bytes.Buffer
	renderImportances(&b, []classifier.Importance{
		{Code: "A11", Label: "Subject knowledge", Importance: 0.3},
		{Code: "A12", Label: "Curriculum", Importance: 0.1},
	})
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "A12") || !strings.HasPrefix(lines[1], "A11") {
		t.Fatalf("unexpected order:\n%s", b.String())
	}
}

func TestRenderImportancesMixedSigns(t *testing.T) {
	var b bytes.Buffer
	renderImportances(&b, []classifier.Importance{
		{Code: "A11", Label: "Subject knowledge", Importance: 0.5},
		{Code: "A12", Label: "Curriculum", Importance: -0.2},
		{Code: "A13", Label: "Assessment", Importance: 0},
	})
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines:\n%s", b.String())
	}
	if !strings.HasPrefix(lines[0], "A12") || !strings.HasSuffix(lines[0], strings.Repeat("-", 16)) {
		t.Fatalf("negative importance bar = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "A11") || !strings.HasSuffix(lines[2], strings.Repeat("#", 40)) {
		t.Fatalf("largest importance bar = %q", lines[2])
	}
}
