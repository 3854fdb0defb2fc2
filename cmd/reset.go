/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	serial "github.com/allbin/serialcap"
	"github.com/allbin/serialcap/internal/capture"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <port>",
	Short: "Reset a board through its control lines or USB",
	Long: `Reset the device behind a serial port.

By default the port is opened and a reset profile drives DTR/RTS the way
auto-reset circuits on development boards expect. With --usb the whole USB
device is reset instead, which can recover adapters that are hung.

A USB reset makes the device re-enumerate, so the port path may change.
Use --serial to pick the device by its USB serial number.

Requirements for --usb:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  serialcap reset /dev/ttyUSB0                       # boot-strap profile
  serialcap reset /dev/ttyUSB0 --profile reset-pulse
  sudo serialcap reset /dev/ttyUSB0 --usb            # USB-level reset
  sudo serialcap reset --usb --serial NC7ILXW1       # by serial number`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		if serialFlag != "" {
			if len(args) > 0 {
				return errors.New("cannot specify both port path and --serial flag")
			}
			return nil
		}
		if len(args) != 1 {
			return errors.New("requires either a port path argument or --serial flag")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		usb, _ := cmd.Flags().GetBool("usb")
		serialFlag, _ := cmd.Flags().GetString("serial")
		if usb || serialFlag != "" {
			return resetUSB(args, serialFlag)
		}

		name, _ := cmd.Flags().GetString("profile")
		custom, err := cfg.CustomProfiles()
		if err != nil {
			return err
		}
		profile, err := capture.LookupProfile(name, custom)
		if err != nil {
			return err
		}

		portPath := args[0]
		port, err := openPort(portPath)
		if err != nil {
			return err
		}
		defer port.Close()

		status("Applying %s to %s (%v)", profile.Name, portPath, profile.Duration())
		if err := capture.ApplyProfile(port, profile, capture.SystemClock{}); err != nil {
			return err
		}
		success("Reset sequence complete")
		return nil
	},
}

func resetUSB(args []string, serialNumber string) error {
	if !serial.IsUSBResetAvailable() {
		return fmt.Errorf("%w: usbreset utility not available", capture.ErrDependencyMissing)
	}

	var err error
	if serialNumber != "" {
		status("Resetting USB device with serial: %s", serialNumber)
		err = serial.ResetUSBDeviceBySerial(serialNumber)
	} else {
		status("Resetting USB device: %s", args[0])
		err = serial.ResetUSBDevice(args[0])
	}
	if err != nil {
		if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
			fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
		}
		return err
	}

	success("USB device reset successfully")
	fmt.Println("Device will re-enumerate (port path may change)")
	fmt.Println("\nUse 'serialcap list --table' to see updated device list")
	return nil
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("profile", "p", capture.ProfileBootStrap, "Reset profile (see 'serialcap profiles')")
	resetCmd.Flags().Bool("usb", false, "USB-level reset with usbreset instead of a line profile")
	resetCmd.Flags().StringP("serial", "s", "", "With --usb, pick the device by serial number")
	resetCmd.Flags().IntP("baud", "b", capture.DefaultBaudRate, "Baud rate used while the port is open")
}
