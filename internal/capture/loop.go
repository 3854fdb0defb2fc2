package capture

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// ChunkSize is the most bytes requested by a single read
const ChunkSize = 1024

// idlePause keeps a zero read timeout from spinning the loop
const idlePause = 20 * time.Millisecond

// Reader is the part of a port the capture loop uses. Read must return
// 0, nil when its timeout expires without data.
type Reader interface {
	Read(buf []byte) (int, error)
}

// Loop reads from r until the window closes, ctx is cancelled, or a read fails.
// Read failures end the capture early and are reported in the summary; the only
// error returned is a sink failure.
func Loop(ctx context.Context, r Reader, window Window, mode Mode, sink Sink, clock Clock) (Summary, error) {
	log := zerolog.Ctx(ctx)
	l := &loop{
		clock:   clock,
		mode:    mode,
		sink:    sink,
		log:     log,
		decoder: unicode.UTF8.NewDecoder(),
	}

	buf := make([]byte, ChunkSize)
	for window.Open(clock.Now()) {
		if ctx.Err() != nil {
			l.summary.Interrupted = true
			l.summary.Truncated = true
			break
		}

		n, err := r.Read(buf)
		if n < 0 {
			n = 0
		}
		if n > 0 {
			l.summary.Bytes += int64(n)
			if err := l.consume(buf[:n]); err != nil {
				return l.finish(window), err
			}
		}

		if err != nil {
			l.summary.ReadErr = &ReadError{Err: err}
			l.summary.Truncated = true
			log.Warn().Err(err).Msg("read failed, ending capture")
			break
		}

		if n == 0 {
			// A read timeout ends any partial line, like readline with a timeout
			if err := l.flushPending(); err != nil {
				return l.finish(window), err
			}
			if pause := min(idlePause, window.Remaining(clock.Now())); pause > 0 {
				clock.Sleep(pause)
			}
		}
	}

	if err := l.flushPending(); err != nil {
		return l.finish(window), err
	}
	return l.finish(window), nil
}

type loop struct {
	clock   Clock
	mode    Mode
	sink    Sink
	log     *zerolog.Logger
	decoder *encoding.Decoder
	pending []byte
	summary Summary
}

func (l *loop) consume(chunk []byte) error {
	if l.mode == ModeBinary {
		data := make([]byte, len(chunk))
		copy(data, chunk)
		return l.emit(Record{Time: l.clock.Now(), Data: data, Binary: true})
	}

	l.pending = append(l.pending, chunk...)
	for {
		i := bytes.IndexByte(l.pending, '\n')
		if i < 0 {
			return nil
		}
		line := l.pending[:i]
		l.pending = l.pending[i+1:]
		if err := l.emitLine(line); err != nil {
			return err
		}
	}
}

func (l *loop) flushPending() error {
	if len(l.pending) == 0 {
		return nil
	}
	line := l.pending
	l.pending = nil
	return l.emitLine(line)
}

func (l *loop) emitLine(line []byte) error {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil
	}

	if !utf8.Valid(line) {
		l.summary.DecodeErrors++
		l.log.Debug().Hex("raw", line).Msg("invalid UTF-8 replaced")
	}
	decoded, err := l.decoder.Bytes(line)
	if err != nil {
		// The UTF-8 decoder replaces rather than fails; keep the raw text if it ever does
		decoded = line
	}

	return l.emit(Record{Time: l.clock.Now(), Text: string(decoded)})
}

func (l *loop) emit(rec Record) error {
	if err := l.sink.Write(rec); err != nil {
		return fmt.Errorf("output failed: %w", err)
	}
	l.summary.Records++
	return nil
}

func (l *loop) finish(window Window) Summary {
	l.summary.Elapsed = l.clock.Now().Sub(window.Start)
	return l.summary
}
