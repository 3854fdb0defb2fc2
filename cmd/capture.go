/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	serial "github.com/allbin/serialcap"
	"github.com/allbin/serialcap/internal/capture"
	"github.com/allbin/serialcap/internal/config"
	"github.com/allbin/serialcap/internal/logging"
	"github.com/allbin/serialcap/internal/sink"
	"github.com/allbin/serialcap/internal/tui"
	"github.com/allbin/serialcap/internal/tui/components"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture [port] [baud] [duration]",
	Short: "Reset a board and capture what it prints",
	Long: `Open a serial port, optionally pulse DTR/RTS to reset the board, and record
everything it prints for a fixed time window.

Text mode writes one line per record; binary mode writes the raw byte stream.
The output file is truncated at the start of every run. A read error ends the
capture early but still counts as success.

Duration accepts Go durations (12s, 1m) or plain seconds (12, 0.5).

Examples:
  serialcap capture
  serialcap capture /dev/ttyUSB0 115200 12 --reset boot-strap
  serialcap capture /dev/ttyACM0 9600 60s --mode binary --wait 30s -o bootlog.txt
  serialcap capture /dev/ttyUSB0 --reset reset-pulse --tui
  serialcap capture /dev/ttyUSB0 --mqtt-broker tcp://localhost:1883`,
	Args: cobra.MaximumNArgs(3),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntP("baud", "b", capture.DefaultBaudRate, "Baud rate")
	captureCmd.Flags().DurationP("duration", "d", capture.DefaultDuration, "Capture window")
	captureCmd.Flags().Duration("read-timeout", capture.DefaultReadTimeout, "Per-read timeout (multiple of 100ms)")
	captureCmd.Flags().StringP("reset", "r", "", "Reset profile applied after open (see 'serialcap profiles')")
	captureCmd.Flags().DurationP("wait", "w", 0, "Wait up to this long for the port to appear")
	captureCmd.Flags().Duration("interval", capture.DefaultWaitInterval, "Poll interval while waiting for the port")
	captureCmd.Flags().StringP("mode", "m", capture.ModeText.String(), "Capture mode: text, binary")
	captureCmd.Flags().StringP("output", "o", "serial_log.txt", "Output file (truncated each run)")
	captureCmd.Flags().BoolP("console", "c", true, "Echo records to stdout while capturing")
	captureCmd.Flags().Bool("tui", false, "Show a live capture view")
	captureCmd.Flags().Bool("usb-reset", false, "USB-level reset before opening (needs usbreset)")
	captureCmd.Flags().String("mqtt-broker", "", "Also publish records to this MQTT broker")
	captureCmd.Flags().String("mqtt-topic", "serialcap/capture", "MQTT topic for published records")
}

func runCapture(cmd *cobra.Command, args []string) error {
	if err := applyArgs(cfg, args); err != nil {
		return err
	}
	profile, err := cfg.ResetProfile()
	if err != nil {
		return err
	}
	d, err := driver()
	if err != nil {
		return err
	}
	usbReset, _ := cmd.Flags().GetBool("usb-reset")
	useTUI, _ := cmd.Flags().GetBool("tui")

	out, err := sink.CreateFile(cfg.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	stats := capture.NewStats()
	sinks := sink.Multi{out, stats}

	if cfg.MQTT.Broker != "" {
		m, err := sink.DialMQTT(mqttConfig(cfg))
		if err != nil {
			return err
		}
		defer m.Close()
		sinks = append(sinks, m)
	}

	// Setup signal handling for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	opts := capture.Options{
		Port:         cfg.Port,
		BaudRate:     cfg.BaudRate,
		ReadTimeout:  cfg.ReadTimeout,
		Duration:     cfg.Duration,
		Wait:         cfg.Wait,
		WaitInterval: cfg.WaitInterval,
		Mode:         cfg.CaptureMode(),
		Profile:      profile,
		USBReset:     usbReset,
	}

	var summary capture.Summary
	if useTUI {
		summary, err = runCaptureView(ctx, cancel, d, opts, sinks, stats)
	} else {
		if cfg.Console {
			sinks = append(sinks, sink.NewConsole(os.Stdout))
		}
		opts.OnCapture = func(w capture.Window) {
			status("Capturing %s at %d baud for %v (Ctrl+C to stop)", opts.Port, opts.BaudRate, opts.Duration)
		}
		summary, err = capture.Run(logger.WithContext(ctx), d, opts, sinks, capture.SystemClock{})
	}
	if err != nil {
		return err
	}

	printSummary(summary, out.Name())
	return nil
}

// runCaptureView runs the capture behind the live view. Log output is
// redirected into the view while it owns the terminal.
func runCaptureView(ctx context.Context, cancel context.CancelFunc, d serial.Driver, opts capture.Options, sinks sink.Multi, stats *capture.Stats) (capture.Summary, error) {
	profileName := "none"
	if opts.Profile != nil {
		profileName = opts.Profile.Name
	}
	p := tui.New(components.CaptureInfo{
		Port:     opts.Port,
		BaudRate: opts.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   serial.ParityNone,
		Mode:     opts.Mode.String(),
		Duration: opts.Duration,
		Output:   cfg.Output,
		Profile:  profileName,
	}, stats, cancel)

	viewLog, err := logging.NewPlain(p.LogWriter(), cfg.Log.Level)
	if err != nil {
		return capture.Summary{}, err
	}
	opts.OnCapture = p.Started
	sinks = append(sinks, p.Sink())

	return p.Run(func() (capture.Summary, error) {
		return capture.Run(viewLog.WithContext(ctx), d, opts, sinks, capture.SystemClock{})
	})
}

func printSummary(summary capture.Summary, output string) {
	fmt.Fprintln(os.Stderr)
	success("%s", summary)
	if summary.DecodeErrors > 0 {
		warn("%d undecodable sequences replaced", summary.DecodeErrors)
	}
	switch {
	case summary.ReadErr != nil:
		warn("Capture truncated: %v", summary.ReadErr)
	case summary.Interrupted:
		warn("Capture interrupted")
	}
	status("Log saved to %s", output)
}

func mqttConfig(c *config.Config) sink.MQTTConfig {
	return sink.MQTTConfig{
		Broker:   c.MQTT.Broker,
		Topic:    c.MQTT.Topic,
		ClientID: c.MQTT.ClientID,
		Username: c.MQTT.Username,
		Password: c.MQTT.Password,
		QoS:      byte(c.MQTT.QoS),
		Logger:   logger.With().Str("component", "mqtt").Logger(),
	}
}

// applyArgs overrides the configured port, baud rate and duration with
// whichever positional arguments were given
func applyArgs(c *config.Config, args []string) error {
	if len(args) > 0 {
		c.Port = args[0]
	}
	if len(args) > 1 {
		baud, err := strconv.Atoi(args[1])
		if err != nil || baud <= 0 {
			return fmt.Errorf("invalid baud rate %q", args[1])
		}
		c.BaudRate = baud
	}
	if len(args) > 2 {
		d, err := parseDuration(args[2])
		if err != nil {
			return err
		}
		c.Duration = d
	}
	return nil
}

// parseDuration accepts a Go duration or a plain number of seconds
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var d time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
