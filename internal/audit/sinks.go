package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/straja-ai/fdpadvisor/internal/config"
)

// BuildSinks opens every configured sink. On error, sinks opened so far are
// closed.
func BuildSinks(cfgs []config.AuditSinkConfig) ([]Sink, error) {
	var sinks []Sink
	fail := func(err error) ([]Sink, error) {
		for _, s := range sinks {
			_ = s.Close(context.Background())
		}
		return nil, err
	}

	for i, c := range cfgs {
		var (
			s   Sink
			err error
		)
		switch strings.ToLower(strings.TrimSpace(c.Type)) {
		case "file_jsonl":
			s, err = NewFileSink(c.Path, c.MaxBytes)
		case "webhook":
			s, err = NewWebhookSink(c.URL, c.Headers, c.Timeout)
		case "sqlite":
			s, err = NewSQLiteSink(c.Path)
		default:
			err = fmt.Errorf("unknown type %q", c.Type)
		}
		if err != nil {
			return fail(fmt.Errorf("audit sink %d: %w", i, err))
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}
