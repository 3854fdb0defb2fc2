/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	serial "github.com/allbin/serialcap"
	"github.com/allbin/serialcap/internal/capture"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait <port>",
	Short: "Wait for a serial port to appear",
	Long: `Poll the port list until the given port shows up, for example while a board
re-enumerates after flashing or a USB reset.

Exits with status 2 when the port does not appear in time.

Examples:
  serialcap wait /dev/ttyUSB0
  serialcap wait /dev/ttyACM0 --timeout 10s --interval 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath := args[0]
		timeout, _ := cmd.Flags().GetDuration("timeout")

		d, err := driver()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		status("Waiting for %s (timeout %v)...", portPath, timeout)
		start := time.Now()
		found, err := serial.WaitForPort(ctx, d, portPath, timeout, cfg.WaitInterval)
		if err != nil {
			if ctx.Err() != nil {
				// a script must not read an interrupted wait as success
				return fmt.Errorf("interrupted before %s appeared: %w", portPath, capture.ErrPortNotFound)
			}
			return err
		}
		if !found {
			return fmt.Errorf("%s did not appear within %v: %w", portPath, timeout, capture.ErrPortNotFound)
		}

		success("%s is available (after %v)", portPath, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().Duration("timeout", 30*time.Second, "How long to wait")
	waitCmd.Flags().Duration("interval", serial.DefaultWaitInterval, "Poll interval")
}
