//go:build !linux

package serial

import "fmt"

// openNative is only implemented on Linux; use PortableDriver elsewhere.
func openNative(device string, config Config) (Port, error) {
	return nil, fmt.Errorf("native driver cannot open %s: %w", device, ErrDriverUnavailable)
}
