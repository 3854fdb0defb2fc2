// Package sink holds the outputs a capture writes records to.
package sink

import (
	"errors"
	"io"

	"github.com/allbin/serialcap/internal/capture"
)

// Console writes records to w: text lines newline-terminated, binary chunks as-is.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Write(rec capture.Record) error {
	_, err := c.w.Write(encode(rec))
	return err
}

// Multi fans a record out to every sink. All sinks see the record even when
// an earlier one fails; the failures are joined.
type Multi []capture.Sink

func (m Multi) Write(rec capture.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// encode renders a record the way it is persisted: one line per text record,
// raw bytes for binary records.
func encode(rec capture.Record) []byte {
	if rec.Binary {
		return rec.Data
	}
	line := make([]byte, 0, len(rec.Text)+1)
	line = append(line, rec.Text...)
	return append(line, '\n')
}
