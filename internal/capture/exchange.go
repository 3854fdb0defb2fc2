package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	serial "github.com/allbin/serialcap"
)

// Defaults for the command/response variant
const (
	DefaultExchangeWindow = 2 * time.Second
	DefaultExchangeSettle = 500 * time.Millisecond
)

// DefaultCommands is the fixed command sequence sent by RunExchange
var DefaultCommands = []string{"help", "status"}

// ExchangePort is the part of a port used to send a command and read the reply
type ExchangePort interface {
	Reader
	Write(data []byte) (int, error)
	Drain() error
	FlushInput() error
	FlushOutput() error
}

// Exchange clears both buffers, writes cmd with a trailing newline in one
// write, waits for it to drain and collects response lines for window.
func Exchange(ctx context.Context, port ExchangePort, cmd string, window time.Duration, sink Sink, clock Clock) (Summary, error) {
	log := zerolog.Ctx(ctx)

	if err := port.FlushInput(); err != nil {
		log.Debug().Err(err).Msg("flush input failed")
	}
	if err := port.FlushOutput(); err != nil {
		log.Debug().Err(err).Msg("flush output failed")
	}

	line := []byte(cmd + "\n")
	n, err := port.Write(line)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to send %q: %w", cmd, err)
	}
	if n != len(line) {
		return Summary{}, fmt.Errorf("failed to send %q: short write (%d of %d bytes)", cmd, n, len(line))
	}
	if err := port.Drain(); err != nil {
		log.Debug().Err(err).Msg("drain failed")
	}

	return Loop(ctx, port, NewWindow(clock, window), ModeText, sink, clock)
}

// ExchangeOptions configure RunExchange
type ExchangeOptions struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
	Commands    []string
	Window      time.Duration
	Settle      time.Duration
	// BeforeCommand is called before each command is sent
	BeforeCommand func(cmd string)
}

// RunExchange opens the port, lets the device settle and runs each command in
// turn. Responses are attributed to a command only by the window they arrive in.
func RunExchange(ctx context.Context, driver serial.Driver, opts ExchangeOptions, sink Sink, clock Clock) (Summary, error) {
	if opts.BaudRate == 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.Window == 0 {
		opts.Window = DefaultExchangeWindow
	}
	if opts.Commands == nil {
		opts.Commands = DefaultCommands
	}
	log := zerolog.Ctx(ctx).With().Str("port", opts.Port).Logger()

	port, err := OpenPort(driver, opts.Port, opts.BaudRate, opts.ReadTimeout)
	if err != nil {
		return Summary{}, err
	}
	defer closePort(port, log)

	if opts.Settle > 0 {
		clock.Sleep(opts.Settle)
	}

	var total Summary
	for _, cmd := range opts.Commands {
		if ctx.Err() != nil {
			total.Interrupted = true
			break
		}
		if opts.BeforeCommand != nil {
			opts.BeforeCommand(cmd)
		}
		log.Debug().Str("command", cmd).Msg("sending")

		s, err := Exchange(log.WithContext(ctx), port, cmd, opts.Window, sink, clock)
		total.add(s)
		if err != nil {
			return total, err
		}
		if s.ReadErr != nil {
			break
		}
	}
	return total, nil
}
