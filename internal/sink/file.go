package sink

import (
	"fmt"
	"os"

	"github.com/allbin/serialcap/internal/capture"
)

// File is a log file that is truncated on open. Each record goes straight to
// the kernel with one unbuffered write; the data is synced to disk on Close.
type File struct {
	f     *os.File
	bytes int64
}

// syncFile flushes to stable storage; tests count the calls
var syncFile = (*os.File).Sync

// CreateFile creates or truncates path
func CreateFile(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &File{f: f}, nil
}

func (f *File) Write(rec capture.Record) error {
	n, err := f.f.Write(encode(rec))
	f.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// Name is the path the file was created with
func (f *File) Name() string { return f.f.Name() }

// Written is the number of bytes written so far
func (f *File) Written() int64 { return f.bytes }

func (f *File) Close() error {
	syncErr := syncFile(f.f)
	if err := f.f.Close(); err != nil {
		return err
	}
	return syncErr
}
