// Package serial is the port access layer used by serialcap to capture boot logs
// from microcontroller boards.
//
// It exposes a small Port interface covering what a capture session needs: bounded
// reads, writes, buffer flushing and DTR/RTS control. Two drivers implement it:
//
//   - NativeDriver talks to the Linux tty layer directly (termios + TIOCM ioctls).
//   - PortableDriver wraps go.bug.st/serial and works on every platform it supports.
//
// # Basic Usage
//
// Open a port with default configuration (115200 8N1, 500ms read timeout):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	buf := make([]byte, 1024)
//	n, err := port.Read(buf) // returns 0, nil when the read timeout elapses
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithReadTimeout(500*time.Millisecond),
//	    serial.WithInitialDTR(true),
//	)
//
// # Control Lines
//
// Many boards wire DTR to the reset (EN) pin and RTS to the bootloader-select pin:
//
//	err = port.SetRTS(false)
//	err = port.SetDTR(false)
//	time.Sleep(50 * time.Millisecond)
//	err = port.SetDTR(true)
//
// # Port Discovery
//
// List ports, inspect USB metadata, or wait for a board to enumerate:
//
//	ports, err := serial.ListPorts()
//	info, err := serial.GetPortInfo("/dev/ttyACM0")
//	found, err := serial.WaitForPort(ctx, serial.NativeDriver{}, "/dev/ttyACM0", 30*time.Second, 200*time.Millisecond)
//
// # USB Device Management (Linux)
//
//	err := serial.ResetUSBDevice("/dev/ttyUSB0")
//
// Requires the usbreset utility from the usbutils package and root permissions.
//
// # Default Configuration
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 500ms
package serial
