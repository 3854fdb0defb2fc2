/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allbin/serialcap/internal/capture"
)

// rtsCmd represents the rts command
var rtsCmd = &cobra.Command{
	Use:   "rts <port> <state>",
	Short: "Control RTS (Request To Send) signal",
	Long: `Manually set the RTS (Request To Send) signal state.

On most development boards RTS selects the bootloader (IO0) through the
auto-reset circuit.

Examples:
  serialcap rts /dev/ttyUSB0 high
  serialcap rts /dev/ttyUSB0 low
  serialcap rts /dev/ttyUSB0 on
  serialcap rts /dev/ttyUSB0 off

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setControlLine(args[0], capture.SignalRTS, args[1])
	},
}

func init() {
	rootCmd.AddCommand(rtsCmd)
}
