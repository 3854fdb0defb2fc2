package serial

import (
	"fmt"
	"os/exec"
	"time"
)

// usbReenumerateDelay is how long ResetUSBDevice waits for the device to come back
var usbReenumerateDelay = 2 * time.Second

// runUSBReset executes usbreset; tests replace it
var runUSBReset = func(usbPath string) ([]byte, error) {
	return exec.Command("usbreset", usbPath).CombinedOutput()
}

// ResetUSBDevice performs a USB-level reset of the device
// This can recover hardware that is in a hung/unresponsive state
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
//
// Returns:
// - nil if reset successful
// - ErrUSBResetNotAvailable if usbreset utility not found
// - ErrUSBInfoNotAvailable if device is not USB or metadata unavailable
// - error if reset fails
func ResetUSBDevice(portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	if output, err := runUSBReset(usbDevicePath(info.BusNumber, info.DeviceNumber)); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	// USB devices typically take 1-2 seconds to become available again
	time.Sleep(usbReenumerateDelay)

	return nil
}

// ResetUSBDeviceBySerial resets a USB device by its serial number
// Useful when device paths change after reboot or when multiple devices are connected
func ResetUSBDeviceBySerial(serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}

		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// usbDevicePath builds the BBB/DDD path usbreset expects
func usbDevicePath(bus, device string) string {
	var b, d int
	fmt.Sscanf(bus, "%d", &b)
	fmt.Sscanf(device, "%d", &d)
	return fmt.Sprintf("%03d/%03d", b, d)
}

// lookPath is exec.LookPath, overridable by tests
var lookPath = exec.LookPath

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := lookPath("usbreset")
	return err == nil
}
