package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordingPort() (*mockPort, *fakeClock, *recorder) {
	rec := &recorder{}
	clock := newFakeClock()
	clock.rec = rec
	return newMockPort(clock), clock, rec
}

func TestApplyProfileOrder(t *testing.T) {
	tests := []struct {
		profile string
		want    []string
	}{
		{
			profile: ProfileBootStrap,
			want: []string{
				"rts=false", "sleep 50ms",
				"dtr=false", "sleep 50ms",
				"dtr=true", "sleep 50ms",
			},
		},
		{
			profile: ProfileResetPulse,
			want: []string{
				"dtr=true", "rts=true", "sleep 50ms",
				"dtr=false", "rts=false", "sleep 50ms",
			},
		},
		{
			profile: ProfileDTRToggle,
			want: []string{
				"dtr=false", "sleep 100ms",
				"dtr=true", "sleep 200ms",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			port, clock, rec := newRecordingPort()
			profile, err := LookupProfile(tt.profile, nil)
			require.NoError(t, err)

			start := clock.Now()
			require.NoError(t, ApplyProfile(port, profile, clock))

			assert.Equal(t, tt.want, rec.list())
			assert.Equal(t, profile.Duration(), clock.Now().Sub(start))
		})
	}
}

func TestApplyProfileStopsAtFirstFailure(t *testing.T) {
	port, clock, rec := newRecordingPort()
	port.rtsErr = errors.New("operation not supported")

	profile, err := LookupProfile(ProfileBootStrap, nil)
	require.NoError(t, err)

	err = ApplyProfile(port, profile, clock)

	var lineErr *ControlLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, SignalRTS, lineErr.Step.Signal)
	assert.Equal(t, Deassert, lineErr.Step.Level)
	assert.ErrorIs(t, err, port.rtsErr)
	assert.Empty(t, rec.list(), "no further steps after the failing one")
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		in      string
		want    Step
		wantErr bool
	}{
		{"rts:low:50ms", Step{SignalRTS, Deassert, 50 * time.Millisecond}, false},
		{"dtr:assert:0", Step{SignalDTR, Assert, 0}, false},
		{"DTR:High", Step{SignalDTR, Assert, 0}, false},
		{" a:off:1s ", Step{SignalRTS, Deassert, time.Second}, false},
		{"b:1:200ms", Step{SignalDTR, Assert, 200 * time.Millisecond}, false},
		{"cts:high", Step{}, true},
		{"rts:maybe", Step{}, true},
		{"rts", Step{}, true},
		{"rts:low:soon", Step{}, true},
		{"rts:low:-5ms", Step{}, true},
		{"rts:low:5ms:extra", Step{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStep(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("Slow-Boot", []string{"rts:low:100ms", "dtr:low:100ms", "dtr:high:500ms"})
	require.NoError(t, err)
	assert.Equal(t, "slow-boot", p.Name)
	assert.Len(t, p.Steps, 3)
	assert.Equal(t, 700*time.Millisecond, p.Duration())

	_, err = ParseProfile("empty", nil)
	assert.Error(t, err)

	_, err = ParseProfile("broken", []string{"rts:low", "nope"})
	assert.ErrorContains(t, err, "broken")
}

func TestLookupProfile(t *testing.T) {
	custom := map[string]Profile{
		ProfileBootStrap: {Name: ProfileBootStrap, Steps: []Step{{SignalDTR, Assert, 0}}},
	}

	p, err := LookupProfile("Boot-Strap", custom)
	require.NoError(t, err)
	assert.Len(t, p.Steps, 1, "custom profiles shadow built-ins")

	p, err = LookupProfile(ProfileResetPulse, custom)
	require.NoError(t, err)
	assert.Len(t, p.Steps, 4)

	_, err = LookupProfile("missing", custom)
	assert.Error(t, err)
}

func TestBuiltinProfilesSorted(t *testing.T) {
	var names []string
	for _, p := range BuiltinProfiles() {
		names = append(names, p.Name)
		assert.NotEmpty(t, p.Description)
	}
	assert.Equal(t, []string{ProfileBootStrap, ProfileDTRToggle, ProfileResetPulse}, names)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "rts:deassert:50ms", Step{SignalRTS, Deassert, 50 * time.Millisecond}.String())
	assert.Equal(t, "dtr:assert:0s", Step{SignalDTR, Assert, 0}.String())
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"high", "ON", "true", "1", "assert"} {
		l, err := ParseLevel(s)
		require.NoError(t, err, s)
		assert.Equal(t, Assert, l, s)
	}
	for _, s := range []string{"low", "Off", "false", "0", "deassert"} {
		l, err := ParseLevel(s)
		require.NoError(t, err, s)
		assert.Equal(t, Deassert, l, s)
	}
	_, err := ParseLevel("floating")
	assert.ErrorContains(t, err, "valid: high, low")
}
