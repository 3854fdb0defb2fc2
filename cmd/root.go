/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	serial "github.com/allbin/serialcap"
	"github.com/allbin/serialcap/internal/capture"
	"github.com/allbin/serialcap/internal/config"
	"github.com/allbin/serialcap/internal/logging"
	"github.com/allbin/serialcap/internal/tui/styles"
)

var (
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  = zerolog.Nop()
)

// flagKeys maps command-line flag names onto configuration keys
var flagKeys = map[string]string{
	"driver":       config.KeyDriver,
	"log-level":    config.KeyLogLevel,
	"log-json":     config.KeyLogJSON,
	"baud":         config.KeyBaud,
	"read-timeout": config.KeyReadTimeout,
	"duration":     config.KeyDuration,
	"wait":         config.KeyWait,
	"interval":     config.KeyWaitInterval,
	"mode":         config.KeyMode,
	"output":       config.KeyOutput,
	"console":      config.KeyConsole,
	"reset":        config.KeyReset,
	"command":      config.KeyCommands,
	"window":       config.KeyExchangeWindow,
	"settle":       config.KeyExchangeSettle,
	"mqtt-broker":  config.KeyMQTTBroker,
	"mqtt-topic":   config.KeyMQTTTopic,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialcap",
	Short: "Capture boot logs and drive reset lines on serial-attached boards",
	Long: `serialcap opens a USB-serial port, optionally toggles DTR/RTS to force a
microcontroller reset, and records everything the board prints for a bounded
time window.

Settings come from flags, SERIALCAP_* environment variables and an optional
config file ($HOME/.serialcap.yaml), in that order of precedence.

Exit codes:
  0  success (including captures cut short by a read error)
  1  usage or other error
  2  port did not appear in time
  3  port could not be opened
  4  required dependency missing (usbreset, driver)`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialcap.yaml)")
	rootCmd.PersistentFlags().String("driver", serial.DefaultDriverName(), "Serial driver: native, portable")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON instead of console text")
}

// initConfig loads configuration for the command about to run and binds
// the flags it defines.
func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	v, err = config.New(cfgFile)
	if err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	logger, err = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}
	if used := config.ConfigFileUsed(v); used != "" {
		logger.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

// driver resolves the configured serial driver
func driver() (serial.Driver, error) {
	return serial.DriverByName(cfg.Driver)
}

// openPort opens path with the configured driver and line settings
func openPort(path string) (serial.Port, error) {
	d, err := driver()
	if err != nil {
		return nil, err
	}
	return capture.OpenPort(d, path, cfg.BaudRate, cfg.ReadTimeout)
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("Error: "+err.Error()))

	var hint string
	switch {
	case errors.Is(err, capture.ErrPortNotFound):
		hint = "Connect or reset the board and try again; 'serialcap list' shows visible ports"
	case errors.Is(err, serial.ErrPermissionDenied):
		hint = "Add your user to the dialout group or run with sudo"
	case errors.Is(err, serial.ErrDeviceInUse):
		hint = "Another program holds the port open"
	case errors.Is(err, serial.ErrUSBResetNotAvailable), errors.Is(err, capture.ErrDependencyMissing):
		hint = "Install with: sudo apt-get install usbutils"
	case errors.Is(err, serial.ErrDriverUnavailable):
		hint = "Use --driver portable on this platform"
	}
	if hint != "" {
		fmt.Fprintln(os.Stderr, styles.HintStyle.Render(hint))
	}
}

func status(format string, a ...any) {
	fmt.Fprintln(os.Stderr, styles.InfoStyle.Render(fmt.Sprintf(format, a...)))
}

func warn(format string, a ...any) {
	fmt.Fprintln(os.Stderr, styles.WarningStyle.Render(fmt.Sprintf(format, a...)))
}

func success(format string, a ...any) {
	fmt.Fprintln(os.Stderr, styles.SuccessStyle.Render(fmt.Sprintf(format, a...)))
}
