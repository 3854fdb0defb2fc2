package serial

import (
	"fmt"
	"runtime"
	"strings"
)

// Driver opens ports and enumerates the ports it can see.
type Driver interface {
	Name() string
	ListPorts() ([]string, error)
	Open(device string, opts ...Option) (Port, error)
}

// Driver names accepted by DriverByName
const (
	DriverNative   = "native"
	DriverPortable = "portable"
)

// NativeDriver uses the Linux tty layer directly
type NativeDriver struct{}

var _ Driver = NativeDriver{}

func (NativeDriver) Name() string { return DriverNative }

// ListPorts scans /dev for serial devices
func (NativeDriver) ListPorts() ([]string, error) {
	return ListPorts()
}

// Open opens device with the native termios implementation
func (NativeDriver) Open(device string, opts ...Option) (Port, error) {
	config, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return openNative(device, config)
}

// DefaultDriverName returns the driver used when none is configured
func DefaultDriverName() string {
	if runtime.GOOS == "linux" {
		return DriverNative
	}
	return DriverPortable
}

// DriverByName resolves a driver name. An empty name selects the platform default.
func DriverByName(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DriverByName(DefaultDriverName())
	case DriverNative:
		if runtime.GOOS != "linux" {
			return nil, fmt.Errorf("%s: %w", name, ErrDriverUnavailable)
		}
		return NativeDriver{}, nil
	case DriverPortable:
		return PortableDriver{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownDriver)
	}
}
