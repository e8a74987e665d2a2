// internal/link/tcp.go
package link

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// TCPConfig describes a serial-over-IP converter (ser2net, USR-TCP232 ...).
type TCPConfig struct {
	Address     string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// TCP is a Link over a raw TCP socket.
type TCP struct {
	conn         net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// DialTCP connects to the converter. One attempt.
func DialTCP(c TCPConfig) (*TCP, error) {
	if c.Address == "" {
		return nil, errors.New("link tcp: address required")
	}
	if c.ReadTimeout <= 0 {
		return nil, errors.New("link tcp: read timeout must be > 0")
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}

	conn, err := net.DialTimeout("tcp", c.Address, c.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("link tcp: dial %s: %w", c.Address, err)
	}
	return NewTCP(conn, c.ReadTimeout, c.DialTimeout), nil
}

// NewTCP wraps an established connection.
func NewTCP(conn net.Conn, readTimeout, writeTimeout time.Duration) *TCP {
	return &TCP{conn: conn, readTimeout: readTimeout, writeTimeout: writeTimeout}
}

// Read returns (0, nil) when the read deadline passes without data.
func (t *TCP) Read(p []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.New("link tcp: not connected")
	}
	_ = t.conn.SetReadDeadline(time.Now().Add(t.readTimeout))

	n, err := t.conn.Read(p)
	var ne net.Error
	if err != nil && errors.As(err, &ne) && ne.Timeout() {
		return n, nil
	}
	return n, err
}

func (t *TCP) Write(p []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.New("link tcp: not connected")
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return t.conn.Write(p)
}

// Close closes the connection. Safe to call twice.
func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCP) String() string {
	if t.conn == nil {
		return "tcp:closed"
	}
	return "tcp:" + t.conn.RemoteAddr().String()
}
