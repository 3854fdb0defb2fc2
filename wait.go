package serial

import (
	"context"
	"path/filepath"
	"time"
)

// PortLister enumerates the ports currently visible to a driver
type PortLister interface {
	ListPorts() ([]string, error)
}

// DefaultWaitInterval is how often WaitForPort re-enumerates
const DefaultWaitInterval = 200 * time.Millisecond

// WaitForPort polls lister until device shows up or timeout elapses. device
// may be a stable alias such as /dev/serial/by-id/...; it matches the listed
// node it links to. Enumeration errors count as "not there yet". It returns false, nil on
// timeout and false, ctx.Err() when ctx is cancelled first.
func WaitForPort(ctx context.Context, lister PortLister, device string, timeout, interval time.Duration) (bool, error) {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if portListed(lister, device) {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			// One last look so a port appearing right at the deadline still counts
			return portListed(lister, device), nil
		case <-ticker.C:
		}
	}
}

func portListed(lister PortLister, device string) bool {
	ports, err := lister.ListPorts()
	if err != nil {
		return false
	}
	want := resolvePath(device)
	for _, p := range ports {
		if p == device || resolvePath(p) == want {
			return true
		}
	}
	return false
}

// resolvePath follows symlinks, returning path unchanged when it cannot
func resolvePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
