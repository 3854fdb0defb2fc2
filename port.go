package serial

// Port represents a serial port connection interface
type Port interface {
	Close() error
	// Read waits at most the configured read timeout and returns 0, nil
	// when no data arrived in that window.
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	Drain() error
	FlushInput() error
	FlushOutput() error

	// Modem signal control
	GetModemSignals() (ModemSignals, error)
	SetRTS(state bool) error
	GetRTS() (bool, error)
	SetDTR(state bool) error
	GetDTR() (bool, error)
}

// ModemSignals represents modem control signal states
type ModemSignals struct {
	CTS bool // Clear To Send
	DSR bool // Data Set Ready
	RI  bool // Ring Indicator
	DCD bool // Data Carrier Detect
	RTS bool // Request To Send
	DTR bool // Data Terminal Ready
}

// Open opens a serial port with the native driver
func Open(device string, opts ...Option) (Port, error) {
	return NativeDriver{}.Open(device, opts...)
}
