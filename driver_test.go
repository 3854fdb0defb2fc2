package serial

import (
	"errors"
	"runtime"
	"testing"
)

func TestDriverByName(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  error
	}{
		{"portable", DriverPortable, nil},
		{" Portable ", DriverPortable, nil},
		{"", DefaultDriverName(), nil},
		{"bogus", "", ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, err := DriverByName(tt.name)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DriverByName(%q) error = %v, want %v", tt.name, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DriverByName(%q) returned error: %v", tt.name, err)
			}
			if driver.Name() != tt.wantName {
				t.Errorf("DriverByName(%q).Name() = %q, want %q", tt.name, driver.Name(), tt.wantName)
			}
		})
	}
}

func TestNativeDriverAvailability(t *testing.T) {
	_, err := DriverByName(DriverNative)
	if runtime.GOOS == "linux" {
		if err != nil {
			t.Errorf("native driver should be available on linux, got %v", err)
		}
		return
	}
	if !errors.Is(err, ErrDriverUnavailable) {
		t.Errorf("Expected ErrDriverUnavailable off linux, got %v", err)
	}
}

func TestDriverOpenRejectsBadOptions(t *testing.T) {
	for _, driver := range []Driver{NativeDriver{}, PortableDriver{}} {
		_, err := driver.Open("/dev/ttyUSB0", WithBaudRate(123))
		if err != ErrInvalidBaudRate {
			t.Errorf("%s: Open with bad baud error = %v, want %v", driver.Name(), err, ErrInvalidBaudRate)
		}
	}
}
