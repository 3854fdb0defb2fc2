/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/allbin/serialcap/internal/capture"
	"github.com/allbin/serialcap/internal/sink"
	"github.com/allbin/serialcap/internal/tui/styles"
)

// exchangeCmd represents the exchange command
var exchangeCmd = &cobra.Command{
	Use:   "exchange [port] [baud]",
	Short: "Send fixed commands and capture the responses",
	Long: `Open a port, let the device settle, then send each command followed by a
newline and record whatever arrives during its response window.

Responses are matched to commands only by the window they arrive in.

Examples:
  serialcap exchange
  serialcap exchange /dev/ttyUSB0 115200
  serialcap exchange /dev/ttyACM0 --command version --command "wifi status" --window 3s`,
	Args: cobra.MaximumNArgs(2),
	RunE: runExchange,
}

func init() {
	rootCmd.AddCommand(exchangeCmd)

	exchangeCmd.Flags().IntP("baud", "b", capture.DefaultBaudRate, "Baud rate")
	exchangeCmd.Flags().Duration("read-timeout", capture.DefaultReadTimeout, "Per-read timeout (multiple of 100ms)")
	exchangeCmd.Flags().StringArray("command", capture.DefaultCommands, "Command to send (repeatable)")
	exchangeCmd.Flags().Duration("window", capture.DefaultExchangeWindow, "Response window per command")
	exchangeCmd.Flags().Duration("settle", capture.DefaultExchangeSettle, "Delay after open before the first command")
	exchangeCmd.Flags().StringP("output", "o", "", "Also write responses to this file")
}

func runExchange(cmd *cobra.Command, args []string) error {
	if err := applyArgs(cfg, args); err != nil {
		return err
	}
	d, err := driver()
	if err != nil {
		return err
	}

	sinks := sink.Multi{sink.NewConsole(os.Stdout)}
	// the capture default output is not reused here
	if cmd.Flags().Changed("output") {
		out, err := sink.CreateFile(cfg.Output)
		if err != nil {
			return err
		}
		defer out.Close()
		sinks = append(sinks, out)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := capture.ExchangeOptions{
		Port:        cfg.Port,
		BaudRate:    cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
		Commands:    cfg.Exchange.Commands,
		Window:      cfg.Exchange.Window,
		Settle:      cfg.Exchange.Settle,
		BeforeCommand: func(c string) {
			os.Stdout.WriteString(styles.TitleStyle.Render(">>> SEND: "+c) + "\n")
		},
	}

	status("Testing %s at %d baud", opts.Port, opts.BaudRate)
	summary, err := capture.RunExchange(logger.WithContext(ctx), d, opts, sinks, capture.SystemClock{})
	if err != nil {
		return err
	}

	success("%s", summary)
	if summary.ReadErr != nil {
		warn("Exchange truncated: %v", summary.ReadErr)
	}
	return nil
}
