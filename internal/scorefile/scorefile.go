// Package scorefile reads score sets from files for the CLI.
package scorefile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
)

// ErrFormat means the file extension is not supported for the operation.
var ErrFormat = errors.New("unsupported score file format")

type scoresDoc struct {
	Scores map[string]float64 `json:"scores" yaml:"scores"`
}

// ReadScores loads one score set from a .json, .yaml or .yml file. Both a
// flat code map and a {"scores": {...}} document are accepted.
func ReadScores(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeScores(data, json.Unmarshal)
	case ".yaml", ".yml":
		return decodeScores(data, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

func decodeScores(data []byte, unmarshal func([]byte, any) error) (map[string]float64, error) {
	var doc scoresDoc
	if err := unmarshal(data, &doc); err == nil && len(doc.Scores) > 0 {
		return doc.Scores, nil
	}
	var flat map[string]float64
	if err := unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	if len(flat) == 0 {
		return nil, errors.New("decode scores: no scores found")
	}
	return flat, nil
}

// ReadBatch loads many score sets from a .csv or .jsonl file.
func ReadBatch(path string) ([]advisor.BatchItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

// ReadCSV reads a header row of codes, optionally with an "id" column,
// followed by one score set per row. Rows without an id are numbered.
func ReadCSV(r io.Reader) ([]advisor.BatchItem, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idCol := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if strings.EqualFold(header[i], "id") {
			idCol = i
		}
	}

	var items []advisor.BatchItem
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		item := advisor.BatchItem{ID: fmt.Sprintf("row-%d", row), Scores: make(map[string]float64, len(rec))}
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if i == idCol {
				if cell != "" {
					item.ID = cell
				}
				continue
			}
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("csv row %d column %s: %w", row, header[i], err)
			}
			item.Scores[header[i]] = v
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadJSONL reads one {"id": ..., "scores": {...}} object per line. Blank
// lines are skipped.
func ReadJSONL(r io.Reader) ([]advisor.BatchItem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var items []advisor.BatchItem
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var item advisor.BatchItem
		if err := json.Unmarshal(b, &item); err != nil {
			return nil, fmt.Errorf("jsonl line %d: %w", line, err)
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("line-%d", line)
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return items, nil
}
