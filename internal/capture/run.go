package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	serial "github.com/allbin/serialcap"
)

// Defaults for a capture run
const (
	DefaultBaudRate     = 115200
	DefaultReadTimeout  = 500 * time.Millisecond
	DefaultDuration     = 12 * time.Second
	DefaultWaitInterval = serial.DefaultWaitInterval
)

// resetUSB is the USB-level reset used before opening; tests replace it
var resetUSB = serial.ResetUSBDevice

// Options configure one ResetAndCapture run
type Options struct {
	Port         string
	BaudRate     int
	ReadTimeout  time.Duration
	Duration     time.Duration
	Wait         time.Duration // discovery wait; zero skips it
	WaitInterval time.Duration
	Mode         Mode
	Profile      *Profile // applied after open when set
	USBReset     bool
	// OnCapture is called with the capture window just before reading starts
	OnCapture func(Window)
}

func (o *Options) applyDefaults() {
	if o.BaudRate == 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}
	if o.WaitInterval == 0 {
		o.WaitInterval = DefaultWaitInterval
	}
}

// Run performs the reset-and-capture sequence: optional USB reset, optional
// discovery wait, open, optional reset profile, bounded capture, close.
// A truncated capture is still a success; see Summary.ReadErr.
func Run(ctx context.Context, driver serial.Driver, opts Options, sink Sink, clock Clock) (Summary, error) {
	opts.applyDefaults()
	log := zerolog.Ctx(ctx).With().Str("port", opts.Port).Logger()

	if opts.USBReset {
		log.Info().Msg("resetting USB device")
		if err := resetUSB(opts.Port); err != nil {
			if errors.Is(err, serial.ErrUSBResetNotAvailable) {
				return Summary{}, fmt.Errorf("%w: usbreset utility not installed (apt-get install usbutils)", ErrDependencyMissing)
			}
			log.Warn().Err(err).Msg("USB reset failed, continuing")
		}
	}

	if opts.Wait > 0 {
		log.Info().Dur("timeout", opts.Wait).Msg("waiting for port")
		found, err := serial.WaitForPort(ctx, driver, opts.Port, opts.Wait, opts.WaitInterval)
		if err != nil {
			if ctx.Err() != nil {
				// interrupted before the port showed up; nothing was captured
				log.Info().Msg("interrupted while waiting for port")
				return Summary{Truncated: true, Interrupted: true}, nil
			}
			return Summary{}, err
		}
		if !found {
			return Summary{}, fmt.Errorf("%s did not appear within %v: %w", opts.Port, opts.Wait, ErrPortNotFound)
		}
	}

	port, err := OpenPort(driver, opts.Port, opts.BaudRate, opts.ReadTimeout)
	if err != nil {
		return Summary{}, err
	}
	defer closePort(port, log)

	log.Info().Int("baud", opts.BaudRate).Dur("duration", opts.Duration).Str("mode", opts.Mode.String()).Msg("port open")

	if opts.Profile != nil {
		log.Info().Str("profile", opts.Profile.Name).Msg("applying reset profile")
		if err := ApplyProfile(port, *opts.Profile, clock); err != nil {
			// Some boards do not wire these lines; capture anyway
			log.Warn().Err(err).Msg("reset profile failed, capturing anyway")
		}
	}

	window := NewWindow(clock, opts.Duration)
	if opts.OnCapture != nil {
		opts.OnCapture(window)
	}
	summary, err := Loop(log.WithContext(ctx), port, window, opts.Mode, sink, clock)
	if err != nil {
		return summary, err
	}

	log.Info().Int("records", summary.Records).Int64("bytes", summary.Bytes).Bool("truncated", summary.Truncated).Msg("capture finished")
	return summary, nil
}

// OpenPort opens path through driver. Invalid settings are reported as plain
// errors; everything else becomes an *OpenError.
func OpenPort(driver serial.Driver, path string, baud int, readTimeout time.Duration) (serial.Port, error) {
	port, err := driver.Open(path,
		serial.WithBaudRate(baud),
		serial.WithReadTimeout(readTimeout),
	)
	if err == nil {
		return port, nil
	}

	switch {
	case errors.Is(err, serial.ErrInvalidBaudRate), errors.Is(err, serial.ErrInvalidConfig):
		return nil, fmt.Errorf("invalid port settings: %w", err)
	case errors.Is(err, serial.ErrDriverUnavailable):
		return nil, fmt.Errorf("%w: %v", ErrDependencyMissing, err)
	default:
		return nil, &OpenError{Port: path, Err: err}
	}
}

func closePort(port serial.Port, log zerolog.Logger) {
	if err := port.Close(); err != nil {
		log.Debug().Err(err).Msg("close failed")
	}
}
