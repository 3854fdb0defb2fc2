package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	serial "github.com/allbin/serialcap"
)

// recorder keeps the ordered list of port and clock events
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// fakeClock only moves when slept on or advanced by a mock read
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	rec *recorder
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.rec.add("sleep %v", d)
	c.advance(d)
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// readResult is one scripted Read outcome
type readResult struct {
	data []byte
	err  error
}

// mockPort implements serial.Port. Reads follow the script and then time out;
// every read that returns no data costs readTimeout on the fake clock.
type mockPort struct {
	clock       *fakeClock
	rec         *recorder
	readTimeout time.Duration
	script      []readResult
	reads       int
	writes      [][]byte
	closes      int
	rtsErr      error
	dtrErr      error
	rts, dtr    bool
}

var _ serial.Port = (*mockPort)(nil)

func newMockPort(clock *fakeClock, script ...readResult) *mockPort {
	return &mockPort{clock: clock, rec: clock.rec, readTimeout: 500 * time.Millisecond, script: script}
}

func (p *mockPort) Read(buf []byte) (int, error) {
	p.reads++
	if len(p.script) > 0 {
		r := p.script[0]
		p.script = p.script[1:]
		if r.err != nil {
			return 0, r.err
		}
		if len(r.data) > 0 {
			p.clock.advance(time.Millisecond)
			return copy(buf, r.data), nil
		}
	}
	p.clock.advance(p.readTimeout)
	return 0, nil
}

func (p *mockPort) Write(data []byte) (int, error) {
	p.writes = append(p.writes, append([]byte(nil), data...))
	p.rec.add("write %q", data)
	return len(data), nil
}

func (p *mockPort) Close() error {
	p.closes++
	p.rec.add("close")
	return nil
}

func (p *mockPort) Drain() error       { p.rec.add("drain"); return nil }
func (p *mockPort) FlushInput() error  { p.rec.add("flush input"); return nil }
func (p *mockPort) FlushOutput() error { p.rec.add("flush output"); return nil }

func (p *mockPort) GetModemSignals() (serial.ModemSignals, error) {
	return serial.ModemSignals{RTS: p.rts, DTR: p.dtr}, nil
}

func (p *mockPort) SetRTS(state bool) error {
	if p.rtsErr != nil {
		return p.rtsErr
	}
	p.rts = state
	p.rec.add("rts=%v", state)
	return nil
}

func (p *mockPort) GetRTS() (bool, error) { return p.rts, nil }

func (p *mockPort) SetDTR(state bool) error {
	if p.dtrErr != nil {
		return p.dtrErr
	}
	p.dtr = state
	p.rec.add("dtr=%v", state)
	return nil
}

func (p *mockPort) GetDTR() (bool, error) { return p.dtr, nil }

// mockDriver hands out a prepared port and counts Open calls
type mockDriver struct {
	port    *mockPort
	ports   []string
	openErr error
	opens   int
}

var _ serial.Driver = (*mockDriver)(nil)

func (d *mockDriver) Name() string { return "mock" }

func (d *mockDriver) ListPorts() ([]string, error) { return d.ports, nil }

func (d *mockDriver) Open(device string, opts ...serial.Option) (serial.Port, error) {
	d.opens++
	config := serial.DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.port, nil
}

// collectSink keeps every record written to it
type collectSink struct {
	records []Record
	err     error
}

func (s *collectSink) Write(rec Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *collectSink) texts() []string {
	var out []string
	for _, r := range s.records {
		out = append(out, r.Text)
	}
	return out
}

var errIO = errors.New("input/output error")
