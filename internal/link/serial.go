// internal/link/serial.go
package link

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialConfig is the minimal port config. Framing is fixed at 8N1.
type SerialConfig struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// Serial is a Link over a local serial port.
type Serial struct {
	port serial.Port
	dev  string
}

// OpenSerial opens the port and applies the read timeout.
func OpenSerial(c SerialConfig) (*Serial, error) {
	if c.Device == "" {
		return nil, errors.New("link serial: device required")
	}
	if c.ReadTimeout <= 0 {
		return nil, errors.New("link serial: read timeout must be > 0")
	}

	p, err := serial.Open(c.Device, &serial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("link serial: open %s: %w", c.Device, err)
	}

	if err := p.SetReadTimeout(c.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("link serial: set read timeout on %s: %w", c.Device, err)
	}

	// Drop whatever the meter sent before we were listening.
	_ = p.ResetInputBuffer()

	return &Serial{port: p, dev: c.Device}, nil
}

// Read returns (0, nil) on timeout.
func (s *Serial) Read(p []byte) (int, error) {
	if s.port == nil {
		return 0, errors.New("link serial: port not open")
	}
	return s.port.Read(p)
}

func (s *Serial) Write(p []byte) (int, error) {
	if s.port == nil {
		return 0, errors.New("link serial: port not open")
	}
	return s.port.Write(p)
}

// Close closes the port. Safe to call twice.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) String() string { return "serial:" + s.dev }
