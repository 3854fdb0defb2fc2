package serial

import (
	"errors"
	"fmt"
	"sync"

	bugst "go.bug.st/serial"
)

// allow tests to override the go.bug.st entry points
var (
	bugstOpen         = func(name string, mode *bugst.Mode) (bugst.Port, error) { return bugst.Open(name, mode) }
	bugstGetPortsList = bugst.GetPortsList
)

// PortableDriver wraps go.bug.st/serial
type PortableDriver struct{}

var _ Driver = PortableDriver{}

func (PortableDriver) Name() string { return DriverPortable }

// ListPorts returns the ports go.bug.st/serial enumerates
func (PortableDriver) ListPorts() ([]string, error) {
	return bugstGetPortsList()
}

// Open opens device through go.bug.st/serial
func (PortableDriver) Open(device string, opts ...Option) (Port, error) {
	config, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	mode := &bugst.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		Parity:   toBugstParity(config.Parity),
		StopBits: bugst.OneStopBit,
	}
	if config.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}

	p := &portablePort{}
	if config.InitialRTS != nil || config.InitialDTR != nil {
		bits := &bugst.ModemOutputBits{RTS: true, DTR: true}
		if config.InitialRTS != nil {
			bits.RTS = *config.InitialRTS
		}
		if config.InitialDTR != nil {
			bits.DTR = *config.InitialDTR
		}
		mode.InitialStatusBits = bits
		p.rts, p.dtr = bits.RTS, bits.DTR
	} else {
		p.rts, p.dtr = true, true
	}

	bp, err := bugstOpen(device, mode)
	if err != nil {
		return nil, classifyBugstError(device, err)
	}

	if err := bp.SetReadTimeout(config.ReadTimeout); err != nil {
		bp.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	p.port = bp
	return p, nil
}

func toBugstParity(p Parity) bugst.Parity {
	switch p {
	case ParityOdd:
		return bugst.OddParity
	case ParityEven:
		return bugst.EvenParity
	default:
		return bugst.NoParity
	}
}

func classifyBugstError(device string, err error) error {
	var portErr *bugst.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case bugst.PortNotFound:
			return fmt.Errorf("failed to open %s: %w", device, ErrDeviceNotFound)
		case bugst.PermissionDenied:
			return fmt.Errorf("failed to open %s: %w", device, ErrPermissionDenied)
		case bugst.PortBusy:
			return fmt.Errorf("failed to open %s: %w", device, ErrDeviceInUse)
		case bugst.InvalidSpeed:
			return fmt.Errorf("failed to open %s: %w", device, ErrInvalidBaudRate)
		}
	}
	return fmt.Errorf("failed to open %s: %w", device, err)
}

// portablePort adapts bugst.Port to Port. go.bug.st cannot read back the
// output lines, so the last levels written are remembered here.
type portablePort struct {
	mu     sync.Mutex
	port   bugst.Port
	rts    bool
	dtr    bool
	closed bool
}

func (p *portablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return p.port.Close()
}

func (p *portablePort) Read(buf []byte) (int, error) {
	return p.port.Read(buf)
}

func (p *portablePort) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

func (p *portablePort) Drain() error {
	return p.port.Drain()
}

func (p *portablePort) FlushInput() error {
	return p.port.ResetInputBuffer()
}

func (p *portablePort) FlushOutput() error {
	return p.port.ResetOutputBuffer()
}

func (p *portablePort) GetModemSignals() (ModemSignals, error) {
	bits, err := p.port.GetModemStatusBits()
	if err != nil {
		return ModemSignals{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return ModemSignals{
		CTS: bits.CTS,
		DSR: bits.DSR,
		RI:  bits.RI,
		DCD: bits.DCD,
		RTS: p.rts,
		DTR: p.dtr,
	}, nil
}

func (p *portablePort) SetRTS(state bool) error {
	if err := p.port.SetRTS(state); err != nil {
		return err
	}
	p.mu.Lock()
	p.rts = state
	p.mu.Unlock()
	return nil
}

func (p *portablePort) GetRTS() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rts, nil
}

func (p *portablePort) SetDTR(state bool) error {
	if err := p.port.SetDTR(state); err != nil {
		return err
	}
	p.mu.Lock()
	p.dtr = state
	p.mu.Unlock()
	return nil
}

func (p *portablePort) GetDTR() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dtr, nil
}
