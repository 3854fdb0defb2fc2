package capture

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/atomic"
)

// Mode selects line-oriented or raw capture
type Mode int

const (
	ModeText Mode = iota
	ModeBinary
)

func (m Mode) String() string {
	if m == ModeBinary {
		return "binary"
	}
	return "text"
}

// ParseMode accepts "text" or "binary"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "line", "lines":
		return ModeText, nil
	case "binary", "raw", "bin":
		return ModeBinary, nil
	default:
		return ModeText, fmt.Errorf("invalid capture mode %q: want text or binary", s)
	}
}

// Record is one unit of captured output: a decoded line in text mode or a raw chunk.
type Record struct {
	Time   time.Time
	Text   string
	Data   []byte
	Binary bool
}

// Bytes returns the payload as written to a byte sink
func (r Record) Bytes() []byte {
	if r.Binary {
		return r.Data
	}
	return []byte(r.Text)
}

// Sink consumes records as they are captured
type Sink interface {
	Write(rec Record) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Record) error

func (f SinkFunc) Write(rec Record) error { return f(rec) }

// Summary describes a finished capture
type Summary struct {
	Records      int
	Bytes        int64
	DecodeErrors int
	Elapsed      time.Duration
	Truncated    bool
	Interrupted  bool
	ReadErr      *ReadError
}

func (s Summary) String() string {
	return fmt.Sprintf("Capture complete: %d records, %d bytes in %v",
		s.Records, s.Bytes, s.Elapsed.Round(time.Millisecond))
}

func (s *Summary) add(o Summary) {
	s.Records += o.Records
	s.Bytes += o.Bytes
	s.DecodeErrors += o.DecodeErrors
	s.Elapsed += o.Elapsed
	s.Truncated = s.Truncated || o.Truncated
	s.Interrupted = s.Interrupted || o.Interrupted
	if s.ReadErr == nil {
		s.ReadErr = o.ReadErr
	}
}

// Stats are live counters shared with observers such as the TUI status bar.
// Stats is itself a Sink so it can sit in a fan-out next to the real outputs.
type Stats struct {
	Records *atomic.Int64
	Bytes   *atomic.Int64
	Last    *atomic.Time
}

func NewStats() *Stats {
	return &Stats{
		Records: atomic.NewInt64(0),
		Bytes:   atomic.NewInt64(0),
		Last:    atomic.NewTime(time.Time{}),
	}
}

func (s *Stats) Write(rec Record) error {
	s.Records.Inc()
	s.Bytes.Add(int64(len(rec.Bytes())))
	s.Last.Store(rec.Time)
	return nil
}
