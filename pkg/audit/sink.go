package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Sink receives one record per allocation cycle.
type Sink interface {
	Write(ctx context.Context, r *Record) error
	Close() error
}

// Reader is implemented by sinks that can replay their newest records.
type Reader interface {
	Recent(ctx context.Context, n int) ([]Record, error)
}

// ErrNoHistory is returned when no configured sink keeps readable history.
var ErrNoHistory = errors.New("audit: no sink keeps history")

// FileSink appends records to a text file in the Format layout.
// The file is opened for every write so a rotated or deleted log is recreated.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink returns a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the log file path.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", s.path, err)
	}
	if err := Format(f, r); err != nil {
		f.Close()
		return fmt.Errorf("audit: write %s: %w", s.path, err)
	}
	return f.Close()
}

func (s *FileSink) Close() error { return nil }

// MultiSink fans a record out to every sink. A failing sink does not stop
// the others; all failures are joined.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, r *Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recent reads from the first member that keeps history.
func (m MultiSink) Recent(ctx context.Context, n int) ([]Record, error) {
	for _, s := range m {
		if r, ok := s.(Reader); ok {
			return r.Recent(ctx, n)
		}
	}
	return nil, ErrNoHistory
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every record.
type Discard struct{}

func (Discard) Write(context.Context, *Record) error { return nil }
func (Discard) Close() error                         { return nil }
