// Package config loads serialcap settings from flags, SERIALCAP_* environment
// variables and an optional YAML file on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	serial "github.com/allbin/serialcap"
	"github.com/allbin/serialcap/internal/capture"
)

// EnvPrefix prefixes every environment override, e.g. SERIALCAP_MQTT_BROKER
const EnvPrefix = "SERIALCAP"

// DefaultConfigName is looked up in $HOME when no --config is given
const DefaultConfigName = ".serialcap"

// Keys shared with flag bindings
const (
	KeyPort           = "port"
	KeyBaud           = "baud"
	KeyReadTimeout    = "read_timeout"
	KeyDuration       = "duration"
	KeyWait           = "wait"
	KeyWaitInterval   = "wait_interval"
	KeyMode           = "mode"
	KeyOutput         = "output"
	KeyConsole        = "console"
	KeyReset          = "reset"
	KeyDriver         = "driver"
	KeyCommands       = "exchange.commands"
	KeyExchangeWindow = "exchange.window"
	KeyExchangeSettle = "exchange.settle"
	KeyLogLevel       = "log.level"
	KeyLogJSON        = "log.json"
	KeyMQTTBroker     = "mqtt.broker"
	KeyMQTTTopic      = "mqtt.topic"
	KeyMQTTClientID   = "mqtt.client_id"
	KeyMQTTUsername   = "mqtt.username"
	KeyMQTTPassword   = "mqtt.password"
	KeyMQTTQoS        = "mqtt.qos"
	KeyProfiles       = "profiles"
)

// Config is every setting with its resolved value
type Config struct {
	Port         string         `mapstructure:"port"`
	BaudRate     int            `mapstructure:"baud"`
	ReadTimeout  time.Duration  `mapstructure:"read_timeout"`
	Duration     time.Duration  `mapstructure:"duration"`
	Wait         time.Duration  `mapstructure:"wait"`
	WaitInterval time.Duration  `mapstructure:"wait_interval"`
	Mode         string         `mapstructure:"mode"`
	Output       string         `mapstructure:"output"`
	Console      bool           `mapstructure:"console"`
	Reset        string         `mapstructure:"reset"`
	Driver       string         `mapstructure:"driver"`
	Exchange     ExchangeConfig `mapstructure:"exchange"`
	Log          LogConfig      `mapstructure:"log"`
	MQTT         MQTTConfig     `mapstructure:"mqtt"`

	// Profiles maps a custom reset profile name to its step strings
	Profiles map[string][]string `mapstructure:"profiles"`
}

type ExchangeConfig struct {
	Commands []string      `mapstructure:"commands"`
	Window   time.Duration `mapstructure:"window"`
	Settle   time.Duration `mapstructure:"settle"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      int    `mapstructure:"qos"`
}

// SetDefaults registers the built-in defaults on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "/dev/ttyUSB0")
	v.SetDefault(KeyBaud, capture.DefaultBaudRate)
	v.SetDefault(KeyReadTimeout, capture.DefaultReadTimeout)
	v.SetDefault(KeyDuration, capture.DefaultDuration)
	v.SetDefault(KeyWait, time.Duration(0))
	v.SetDefault(KeyWaitInterval, capture.DefaultWaitInterval)
	v.SetDefault(KeyMode, capture.ModeText.String())
	v.SetDefault(KeyOutput, "serial_log.txt")
	v.SetDefault(KeyConsole, true)
	v.SetDefault(KeyReset, "")
	v.SetDefault(KeyDriver, serial.DefaultDriverName())
	v.SetDefault(KeyCommands, capture.DefaultCommands)
	v.SetDefault(KeyExchangeWindow, capture.DefaultExchangeWindow)
	v.SetDefault(KeyExchangeSettle, capture.DefaultExchangeSettle)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyMQTTBroker, "")
	v.SetDefault(KeyMQTTTopic, "serialcap/capture")
	v.SetDefault(KeyMQTTClientID, "")
	v.SetDefault(KeyMQTTUsername, "")
	v.SetDefault(KeyMQTTPassword, "")
	v.SetDefault(KeyMQTTQoS, 0)
	v.SetDefault(KeyProfiles, map[string][]string{})
}

// New returns a viper instance with defaults, environment overrides and the
// config file loaded. An explicit configFile must exist; the default
// $HOME/.serialcap.yaml is optional.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return v, nil
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(DefaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

// Load decodes v into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if _, err := capture.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.Duration < 0 || c.Wait < 0 {
		return errors.New("duration and wait must not be negative")
	}
	if c.ReadTimeout%(100*time.Millisecond) != 0 || c.ReadTimeout > serial.MaxReadTimeout {
		return fmt.Errorf("read timeout %v must be a multiple of 100ms up to %v", c.ReadTimeout, serial.MaxReadTimeout)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos %d out of range 0-2", c.MQTT.QoS)
	}
	if _, err := c.CustomProfiles(); err != nil {
		return err
	}
	return nil
}

// CaptureMode is the parsed capture mode
func (c *Config) CaptureMode() capture.Mode {
	m, _ := capture.ParseMode(c.Mode)
	return m
}

// CustomProfiles parses the configured reset profiles
func (c *Config) CustomProfiles() (map[string]capture.Profile, error) {
	profiles := make(map[string]capture.Profile, len(c.Profiles))
	for name, steps := range c.Profiles {
		p, err := capture.ParseProfile(name, steps)
		if err != nil {
			return nil, err
		}
		profiles[p.Name] = p
	}
	return profiles, nil
}

// ResetProfile resolves the configured reset profile, nil when none is set
func (c *Config) ResetProfile() (*capture.Profile, error) {
	name := strings.TrimSpace(c.Reset)
	if name == "" || name == "none" {
		return nil, nil
	}
	custom, err := c.CustomProfiles()
	if err != nil {
		return nil, err
	}
	p, err := capture.LookupProfile(name, custom)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AllProfiles lists the built-in profiles followed by custom ones, by name
func (c *Config) AllProfiles() ([]capture.Profile, error) {
	custom, err := c.CustomProfiles()
	if err != nil {
		return nil, err
	}
	profiles := capture.BuiltinProfiles()
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		profiles = append(profiles, custom[name])
	}
	return profiles, nil
}

// ConfigFileUsed is the absolute config path, or "" when none was read
func ConfigFileUsed(v *viper.Viper) string {
	f := v.ConfigFileUsed()
	if f == "" {
		return ""
	}
	if abs, err := filepath.Abs(f); err == nil {
		return abs
	}
	return f
}
