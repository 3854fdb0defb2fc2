/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allbin/serialcap/internal/capture"
)

// dtrCmd represents the dtr command
var dtrCmd = &cobra.Command{
	Use:   "dtr <port> <state>",
	Short: "Control DTR (Data Terminal Ready) signal",
	Long: `Manually set the DTR (Data Terminal Ready) signal state.

On most development boards DTR drives the EN/reset pin through the
auto-reset circuit.

Examples:
  serialcap dtr /dev/ttyUSB0 high
  serialcap dtr /dev/ttyUSB0 low
  serialcap dtr /dev/ttyUSB0 on
  serialcap dtr /dev/ttyUSB0 off

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setControlLine(args[0], capture.SignalDTR, args[1])
	},
}

func init() {
	rootCmd.AddCommand(dtrCmd)
}
