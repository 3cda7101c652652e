package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// flushEvery bounds how many ok events may sit in the write buffer.
const flushEvery = 32

// FileSink appends events to a JSONL file. Events whose outcome is not ok
// are flushed at once; ok events are flushed in groups of flushEvery and on
// Close. With maxBytes set, a file that would grow past it is renamed to
// path.1 (replacing any earlier one) and a fresh file is started.
type FileSink struct {
	path     string
	maxBytes int64

	mu      sync.Mutex
	f       *os.File
	w       *bufio.Writer
	size    int64
	pending int
}

// NewFileSink opens path for appending. maxBytes <= 0 disables rotation.
func NewFileSink(path string, maxBytes int64) (*FileSink, error) {
	if path == "" {
		return nil, errors.New("file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	s := &FileSink{path: path, maxBytes: maxBytes}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSink) open() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	s.f, s.w, s.size = f, bufio.NewWriter(f), st.Size()
	return nil
}

func (s *FileSink) Name() string { return "file_jsonl:" + s.path }

func (s *FileSink) Deliver(_ context.Context, ev *Event) error {
	if ev == nil {
		return nil
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New("file sink closed")
	}
	if s.maxBytes > 0 && s.size > 0 && s.size+int64(len(line)) > s.maxBytes {
		if err := s.rotate(); err != nil {
			return err
		}
	}
	n, err := s.w.Write(line)
	s.size += int64(n)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.pending++
	if ev.Outcome != OutcomeOK || s.pending >= flushEvery {
		return s.flush()
	}
	return nil
}

func (s *FileSink) flush() error {
	s.pending = 0
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (s *FileSink) rotate() error {
	if err := s.flush(); err != nil {
		return err
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close for rotation: %w", err)
	}
	s.f = nil
	rerr := os.Rename(s.path, s.path+".1")
	if err := s.open(); err != nil {
		return errors.Join(rerr, err)
	}
	if rerr != nil {
		return fmt.Errorf("rotate: %w", rerr)
	}
	return nil
}

func (s *FileSink) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	ferr := s.flush()
	err := s.f.Close()
	s.f = nil
	return errors.Join(ferr, err)
}
