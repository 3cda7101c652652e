package scorefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadScoresFormats(t *testing.T) {
	want := map[string]float64{"A11": 9, "A21": 8}
	cases := map[string]string{
		"flat.json":    `{"A11": 9, "A21": 8}`,
		"wrapped.json": `{"scores": {"A11": 9, "A21": 8}}`,
		"flat.yaml":    "A11: 9\nA21: 8\n",
		"wrapped.yml":  "scores:\n  A11: 9\n  A21: 8\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ReadScores(write(t, name, body))
			if err != nil {
				t.Fatalf("ReadScores: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("scores (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadScoresRejects(t *testing.T) {
	if _, err := ReadScores(write(t, "s.txt", "A11=9")); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, err := ReadScores(write(t, "s.json", `{}`)); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := ReadScores(write(t, "s.json", `{"A11": "high"}`)); err == nil {
		t.Fatalf("expected error for non-numeric score")
	}
}

func TestReadCSV(t *testing.T) {
	in := "id, A11, A21\nf-1, 9, 8\n,5,5.5\n"
	items, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []advisor.BatchItem{
		{ID: "f-1", Scores: map[string]float64{"A11": 9, "A21": 8}},
		{ID: "row-2", Scores: map[string]float64{"A11": 5, "A21": 5.5}},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items (-want +got):\n%s", diff)
	}

	if _, err := ReadCSV(strings.NewReader("A11\nnine\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestReadJSONL(t *testing.T) {
	in := `{"id":"a","scores":{"A11":9}}

{"scores":{"A11":2}}
`
	items, err := ReadJSONL(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "line-3" || items[1].Scores["A11"] != 2 {
		t.Fatalf("unexpected items %+v", items)
	}

	if _, err := ReadJSONL(strings.NewReader("{bad\n")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestReadBatchByExtension(t *testing.T) {
	items, err := ReadBatch(write(t, "b.csv", "A11\n3\n4\n"))
	if err != nil || len(items) != 2 {
		t.Fatalf("csv: %v %d", err, len(items))
	}
	if _, err := ReadBatch(write(t, "b.xlsx", "")); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
