package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serial "github.com/allbin/serialcap"
)

func stubUSBReset(t *testing.T, fn func(string) error) {
	t.Helper()
	orig := resetUSB
	resetUSB = fn
	t.Cleanup(func() { resetUSB = orig })
}

func TestRunClosesPortOnce(t *testing.T) {
	tests := []struct {
		name   string
		script []readResult
	}{
		{"normal completion", []readResult{data("boot\n")}},
		{"read error", []readResult{data("boot\n"), {err: errIO}}},
		{"decode error", []readResult{{data: []byte{0xc3, 0x28, '\n'}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			port := newMockPort(clock, tt.script...)
			driver := &mockDriver{port: port}

			_, err := Run(context.Background(), driver, Options{Port: "/dev/ttyUSB0", Duration: 2 * time.Second}, &collectSink{}, clock)
			require.NoError(t, err)

			assert.Equal(t, 1, driver.opens)
			assert.Equal(t, 1, port.closes)
		})
	}
}

func TestRunReadErrorIsSuccess(t *testing.T) {
	clock := newFakeClock()
	port := newMockPort(clock, data("ets Jun  8 2016 00:22:57\n"), readResult{err: errIO})
	driver := &mockDriver{port: port}
	sink := &collectSink{}

	summary, err := Run(context.Background(), driver, Options{Port: "/dev/ttyUSB0"}, sink, clock)
	require.NoError(t, err)

	assert.Equal(t, ExitOK, ExitCode(err))
	assert.Equal(t, 2, port.reads)
	assert.Equal(t, 1, port.closes)
	assert.True(t, summary.Truncated)
	assert.Equal(t, []string{"ets Jun  8 2016 00:22:57"}, sink.texts())
}

func TestRunPortNeverAppears(t *testing.T) {
	clock := newFakeClock()
	driver := &mockDriver{port: newMockPort(clock), ports: []string{"/dev/ttyS0"}}

	_, err := Run(context.Background(), driver, Options{
		Port:         "/dev/ttyUSB0",
		Wait:         40 * time.Millisecond,
		WaitInterval: 5 * time.Millisecond,
	}, &collectSink{}, clock)

	assert.ErrorIs(t, err, ErrPortNotFound)
	assert.Equal(t, ExitPortNotFound, ExitCode(err))
	assert.Zero(t, driver.opens, "Open must not be attempted")
}

func TestRunInterruptedWhileWaiting(t *testing.T) {
	clock := newFakeClock()
	driver := &mockDriver{port: newMockPort(clock), ports: []string{"/dev/ttyS0"}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	summary, err := Run(ctx, driver, Options{
		Port:         "/dev/ttyUSB0",
		Wait:         5 * time.Second,
		WaitInterval: 5 * time.Millisecond,
	}, &collectSink{}, clock)

	require.NoError(t, err)
	assert.Equal(t, ExitOK, ExitCode(err))
	assert.True(t, summary.Interrupted)
	assert.True(t, summary.Truncated)
	assert.Zero(t, summary.Records)
	assert.Zero(t, driver.opens, "Open must not be attempted")
}

func TestRunWaitsForPort(t *testing.T) {
	clock := newFakeClock()
	port := newMockPort(clock, data("ready\n"))
	driver := &mockDriver{port: port, ports: []string{"/dev/ttyS0", "/dev/ttyACM0"}}
	sink := &collectSink{}

	_, err := Run(context.Background(), driver, Options{
		Port:     "/dev/ttyACM0",
		Wait:     time.Second,
		Duration: time.Second,
	}, sink, clock)
	require.NoError(t, err)
	assert.Equal(t, []string{"ready"}, sink.texts())
}

func TestRunOpenError(t *testing.T) {
	clock := newFakeClock()
	driver := &mockDriver{openErr: fmt.Errorf("failed to open /dev/ttyUSB0: %w", serial.ErrPermissionDenied)}

	_, err := Run(context.Background(), driver, Options{Port: "/dev/ttyUSB0"}, &collectSink{}, clock)

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "/dev/ttyUSB0", openErr.Port)
	assert.ErrorIs(t, err, serial.ErrPermissionDenied)
	assert.Equal(t, ExitOpenError, ExitCode(err))
}

func TestRunInvalidSettings(t *testing.T) {
	clock := newFakeClock()
	driver := &mockDriver{port: newMockPort(clock)}

	_, err := Run(context.Background(), driver, Options{Port: "/dev/ttyUSB0", BaudRate: 12345}, &collectSink{}, clock)

	assert.ErrorIs(t, err, serial.ErrInvalidBaudRate)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestRunAppliesProfileBeforeCapture(t *testing.T) {
	rec := &recorder{}
	clock := newFakeClock()
	clock.rec = rec
	port := newMockPort(clock, data("boot\n"))
	driver := &mockDriver{port: port}

	profile, err := LookupProfile(ProfileDTRToggle, nil)
	require.NoError(t, err)

	var window Window
	before := clock.Now()
	_, err = Run(context.Background(), driver, Options{
		Port:      "/dev/ttyUSB0",
		Duration:  time.Second,
		Profile:   &profile,
		OnCapture: func(w Window) { window = w },
	}, &collectSink{}, clock)
	require.NoError(t, err)

	// The window opens after the profile's holds have elapsed
	assert.Equal(t, before.Add(profile.Duration()), window.Start)
	assert.Equal(t, time.Second, window.Deadline.Sub(window.Start))

	events := rec.list()
	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, []string{"dtr=false", "sleep 100ms", "dtr=true", "sleep 200ms"}, events[:4])
	assert.Equal(t, "close", events[len(events)-1])
}

func TestRunControlLineFailureIsNotFatal(t *testing.T) {
	clock := newFakeClock()
	port := newMockPort(clock, data("still captured\n"))
	port.dtrErr = errors.New("inappropriate ioctl for device")
	driver := &mockDriver{port: port}
	sink := &collectSink{}

	profile, err := LookupProfile(ProfileResetPulse, nil)
	require.NoError(t, err)

	_, err = Run(context.Background(), driver, Options{Port: "/dev/ttyUSB0", Duration: time.Second, Profile: &profile}, sink, clock)
	require.NoError(t, err)

	assert.Equal(t, []string{"still captured"}, sink.texts())
	assert.Equal(t, 1, port.closes)
}

func TestRunUSBReset(t *testing.T) {
	t.Run("usbreset missing", func(t *testing.T) {
		stubUSBReset(t, func(string) error { return serial.ErrUSBResetNotAvailable })
		clock := newFakeClock()
		driver := &mockDriver{port: newMockPort(clock)}

		_, err := Run(context.Background(), driver, Options{Port: "/dev/ttyUSB0", USBReset: true}, &collectSink{}, clock)

		assert.ErrorIs(t, err, ErrDependencyMissing)
		assert.Equal(t, ExitDependencyMissing, ExitCode(err))
		assert.Zero(t, driver.opens)
	})

	t.Run("reset failure continues", func(t *testing.T) {
		var resetPath string
		stubUSBReset(t, func(path string) error {
			resetPath = path
			return serial.ErrUSBInfoNotAvailable
		})
		clock := newFakeClock()
		port := newMockPort(clock)
		driver := &mockDriver{port: port}

		_, err := Run(context.Background(), driver, Options{Port: "/dev/ttyACM0", USBReset: true, Duration: time.Second}, &collectSink{}, clock)

		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyACM0", resetPath)
		assert.Equal(t, 1, port.closes)
	})
}

func TestRunSinkFailureStillCloses(t *testing.T) {
	clock := newFakeClock()
	port := newMockPort(clock, data("x\n"))
	driver := &mockDriver{port: port}

	_, err := Run(context.Background(), driver, Options{Port: "/dev/ttyUSB0"}, &collectSink{err: errors.New("disk full")}, clock)

	assert.Error(t, err)
	assert.Equal(t, 1, port.closes)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"port not found", fmt.Errorf("wrapped: %w", ErrPortNotFound), ExitPortNotFound},
		{"open error", &OpenError{Port: "/dev/ttyUSB0", Err: serial.ErrDeviceInUse}, ExitOpenError},
		{"dependency missing", ErrDependencyMissing, ExitDependencyMissing},
		{"driver unavailable", fmt.Errorf("native: %w", serial.ErrDriverUnavailable), ExitDependencyMissing},
		{"usbreset missing", serial.ErrUSBResetNotAvailable, ExitDependencyMissing},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
