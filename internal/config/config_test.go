package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serialcap/internal/capture"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "serialcap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 12*time.Second, cfg.Duration)
	assert.Zero(t, cfg.Wait)
	assert.Equal(t, 200*time.Millisecond, cfg.WaitInterval)
	assert.Equal(t, capture.ModeText, cfg.CaptureMode())
	assert.Equal(t, "serial_log.txt", cfg.Output)
	assert.True(t, cfg.Console)
	assert.Equal(t, []string{"help", "status"}, cfg.Exchange.Commands)
	assert.Equal(t, 2*time.Second, cfg.Exchange.Window)
	assert.Equal(t, 500*time.Millisecond, cfg.Exchange.Settle)
	assert.Equal(t, "info", cfg.Log.Level)

	p, err := cfg.ResetProfile()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewReadsFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
port: /dev/ttyACM0
baud: 9600
duration: 60s
mode: binary
reset: slow-boot
exchange:
  commands: [version, uptime]
  window: 1s
mqtt:
  broker: tcp://localhost:1883
profiles:
  slow-boot:
    - rts:low:100ms
    - dtr:low:100ms
    - dtr:high:500ms
`)
	t.Setenv("SERIALCAP_BAUD", "57600")
	t.Setenv("SERIALCAP_MQTT_TOPIC", "lab/board1")

	v, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, ConfigFileUsed(v))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Port)
	assert.Equal(t, 57600, cfg.BaudRate, "environment beats the file")
	assert.Equal(t, time.Minute, cfg.Duration)
	assert.Equal(t, capture.ModeBinary, cfg.CaptureMode())
	assert.Equal(t, []string{"version", "uptime"}, cfg.Exchange.Commands)
	assert.Equal(t, time.Second, cfg.Exchange.Window)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "lab/board1", cfg.MQTT.Topic)

	p, err := cfg.ResetProfile()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "slow-boot", p.Name)
	assert.Equal(t, 700*time.Millisecond, p.Duration())

	all, err := cfg.AllProfiles()
	require.NoError(t, err)
	assert.Len(t, all, len(capture.BuiltinProfiles())+1)
	assert.Equal(t, "slow-boot", all[len(all)-1].Name)
}

func TestNewMissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewWithoutDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	assert.Empty(t, ConfigFileUsed(v))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "hex" }},
		{"negative duration", func(c *Config) { c.Duration = -time.Second }},
		{"odd read timeout", func(c *Config) { c.ReadTimeout = 250 * time.Millisecond }},
		{"qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"broken profile", func(c *Config) { c.Profiles = map[string][]string{"x": {"cts:high"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			cfg, err := Load(v)
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResetProfileUnknown(t *testing.T) {
	cfg := &Config{Reset: "warp-speed"}
	_, err := cfg.ResetProfile()
	assert.Error(t, err)

	cfg.Reset = "none"
	p, err := cfg.ResetProfile()
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg.Reset = capture.ProfileBootStrap
	p, err = cfg.ResetProfile()
	require.NoError(t, err)
	assert.Equal(t, capture.ProfileBootStrap, p.Name)
}
