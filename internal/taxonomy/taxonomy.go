package taxonomy

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration is the root of every deployment/configuration defect:
// score vectors, classifiers and rules that disagree with the table.
var ErrConfiguration = errors.New("configuration error")

// Code identifies one subdomain, e.g. "A11".
type Code string

// Entry is one subdomain with its display label and suggested FDP topics.
type Entry struct {
	Code   Code     `yaml:"code" json:"code"`
	Label  string   `yaml:"label" json:"label"`
	Topics []string `yaml:"topics" json:"topics"`
}

// Table is the immutable, ordered subdomain table. The declared order of
// Codes is the single feature order shared with the classifier.
type Table struct {
	codes   []Code
	entries map[Code]Entry
	index   map[Code]int
}

var codePattern = regexp.MustCompile(`^[A-Z][0-9]{2}$`)

// IsCode reports whether s has the shape of a subdomain code.
func IsCode(s string) bool { return codePattern.MatchString(s) }

// New builds a Table from entries in declaration order.
func New(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: taxonomy has no entries", ErrConfiguration)
	}

	t := &Table{
		codes:   make([]Code, 0, len(entries)),
		entries: make(map[Code]Entry, len(entries)),
		index:   make(map[Code]int, len(entries)),
	}
	for i, e := range entries {
		code := Code(strings.TrimSpace(string(e.Code)))
		if !codePattern.MatchString(string(code)) {
			return nil, fmt.Errorf("%w: entry %d has invalid code %q", ErrConfiguration, i, e.Code)
		}
		if _, dup := t.index[code]; dup {
			return nil, fmt.Errorf("%w: duplicate code %s", ErrConfiguration, code)
		}
		if strings.TrimSpace(e.Label) == "" {
			return nil, fmt.Errorf("%w: code %s has empty label", ErrConfiguration, code)
		}
		if len(e.Topics) == 0 {
			return nil, fmt.Errorf("%w: code %s has no topics", ErrConfiguration, code)
		}

		topics := make([]string, len(e.Topics))
		copy(topics, e.Topics)
		t.index[code] = i
		t.codes = append(t.codes, code)
		t.entries[code] = Entry{Code: code, Label: e.Label, Topics: topics}
	}
	return t, nil
}

// Load reads a taxonomy YAML file of the form:
//
//	entries:
//	  - code: A11
//	    label: Subject Knowledge
//	    topics: [...]
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}

	var doc struct {
		Entries []Entry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode taxonomy %s: %w", path, err)
	}
	return New(doc.Entries)
}

// Len returns the number of subdomains.
func (t *Table) Len() int { return len(t.codes) }

// Codes returns a copy of the declared code order.
func (t *Table) Codes() []Code {
	out := make([]Code, len(t.codes))
	copy(out, t.codes)
	return out
}

// CodeAt returns the code declared at position i.
func (t *Table) CodeAt(i int) Code { return t.codes[i] }

// Index returns the declared position of code.
func (t *Table) Index(code Code) (int, bool) {
	i, ok := t.index[code]
	return i, ok
}

// Entry returns the entry for code. Topics are copied so callers cannot
// mutate the shared table.
func (t *Table) Entry(code Code) (Entry, bool) {
	e, ok := t.entries[code]
	if !ok {
		return Entry{}, false
	}
	topics := make([]string, len(e.Topics))
	copy(topics, e.Topics)
	e.Topics = topics
	return e, true
}

// Entries returns all entries in declared order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.codes))
	for _, c := range t.codes {
		e, _ := t.Entry(c)
		out = append(out, e)
	}
	return out
}

// SameOrder reports whether codes matches the table's declared order exactly.
func (t *Table) SameOrder(codes []Code) bool {
	if len(codes) != len(t.codes) {
		return false
	}
	for i, c := range codes {
		if t.codes[i] != c {
			return false
		}
	}
	return true
}
