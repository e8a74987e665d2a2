// internal/link/link.go
package link

import (
	"errors"
	"io"
	"strings"
	"time"

	cfg "github.com/tamzrod/dmm-bridge/internal/config"
)

// Link is the half-duplex byte channel to the instrument.
// Read waits at most the configured read timeout and returns (0, nil)
// when nothing arrived, so a caller loop never stalls on a quiet line.
type Link interface {
	io.ReadWriteCloser
}

// Open builds the link described by the config.
// One attempt, no retries.
func Open(c cfg.LinkConfig) (Link, error) {
	readTimeout := time.Duration(c.ReadTimeoutMs) * time.Millisecond

	switch {
	case c.Device != "":
		s, err := OpenSerial(SerialConfig{
			Device:      c.Device,
			Baud:        c.Baud,
			ReadTimeout: readTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case c.Endpoint != "":
		t, err := DialTCP(TCPConfig{
			Address:     strings.TrimPrefix(c.Endpoint, "tcp://"),
			DialTimeout: time.Duration(c.DialTimeoutMs) * time.Millisecond,
			ReadTimeout: readTimeout,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, errors.New("link: no device or endpoint configured")
}
