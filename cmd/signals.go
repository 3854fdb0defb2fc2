/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/serialcap/internal/capture"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals <port>",
	Short: "Display current modem signal states",
	Long: `Display the current state of all modem control signals.

Shows the state of CTS, DSR, RI, DCD, RTS, and DTR signals for the specified port.

Examples:
  serialcap signals /dev/ttyUSB0
  serialcap signals /dev/ttyACM0

Signal meanings:
  CTS - Clear To Send (input)
  DSR - Data Set Ready (input)
  RI  - Ring Indicator (input)
  DCD - Data Carrier Detect (input)
  RTS - Request To Send (output)
  DTR - Data Terminal Ready (output)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath := args[0]

		port, err := openPort(portPath)
		if err != nil {
			return err
		}
		defer port.Close()

		signals, err := port.GetModemSignals()
		if err != nil {
			return fmt.Errorf("failed to read modem signals: %w", err)
		}

		fmt.Printf("Modem Signals for %s:\n\n", portPath)
		fmt.Printf("  CTS (Clear To Send):       %s\n", formatSignalState(signals.CTS))
		fmt.Printf("  DSR (Data Set Ready):      %s\n", formatSignalState(signals.DSR))
		fmt.Printf("  RI  (Ring Indicator):      %s\n", formatSignalState(signals.RI))
		fmt.Printf("  DCD (Data Carrier Detect): %s\n", formatSignalState(signals.DCD))
		fmt.Printf("  RTS (Request To Send):     %s\n", formatSignalState(signals.RTS))
		fmt.Printf("  DTR (Data Terminal Ready): %s\n", formatSignalState(signals.DTR))
		return nil
	},
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

// setControlLine sets one output line and reads it back
func setControlLine(portPath string, sig capture.Signal, stateArg string) error {
	level, err := capture.ParseLevel(stateArg)
	if err != nil {
		return err
	}

	port, err := openPort(portPath)
	if err != nil {
		return err
	}
	defer port.Close()

	set, get := port.SetDTR, port.GetDTR
	if sig == capture.SignalRTS {
		set, get = port.SetRTS, port.GetRTS
	}

	name := strings.ToUpper(sig.String())
	if err := set(bool(level)); err != nil {
		return &capture.ControlLineError{Step: capture.Step{Signal: sig, Level: level}, Err: err}
	}

	// Verify the state was set
	current, err := get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not verify %s state: %v\n", name, err)
		current = bool(level)
	}

	fmt.Printf("%s set to %s on %s\n", name, formatSignalState(current), portPath)
	return nil
}
