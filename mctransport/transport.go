// Package mctransport implements the TCP transport the mc package's
// Client drives: connect/disconnect, deadline-guarded writes, and the
// length-delimited read that a 3E frame response requires (read a fixed
// header, learn the remaining length from it, read the rest).
package mctransport

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Transport is a mutex-guarded net.Conn wrapper. One Transport serves one
// PLC session and is not shared across concurrent operations.
type Transport struct {
	mu        sync.Mutex
	conn      net.Conn
	connected bool
}

// New returns an unconnected Transport.
func New() *Transport {
	return &Transport{}
}

// Connect dials host:port and marks the transport connected. Any
// previously open connection is closed first.
func (t *Transport) Connect(host string, port int, dialTimeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
		t.connected = false
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("mctransport: dial %s failed: %w", addr, err)
	}
	t.conn = conn
	t.connected = true
	return nil
}

// Disconnect closes the connection. It is idempotent: calling it on an
// already-closed or never-connected Transport is a no-op.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.connected = false
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// IsConnected reports whether Connect has succeeded and Disconnect has not
// since been called.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// SendAll writes request in full under writeTimeout, marking the transport
// disconnected on any write failure (a half-written request leaves the
// session unrecoverable).
func (t *Transport) SendAll(request []byte, writeTimeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected || t.conn == nil {
		return fmt.Errorf("mctransport: not connected")
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		t.connected = false
		return fmt.Errorf("mctransport: set write deadline: %w", err)
	}
	if _, err := t.conn.Write(request); err != nil {
		t.connected = false
		return fmt.Errorf("mctransport: write failed: %w", err)
	}
	return nil
}

// ReceiveAll reads exactly n bytes under readTimeout.
func (t *Transport) ReceiveAll(n int, readTimeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.receiveLocked(n, readTimeout)
}

func (t *Transport) receiveLocked(n int, readTimeout time.Duration) ([]byte, error) {
	if !t.connected || t.conn == nil {
		return nil, fmt.Errorf("mctransport: not connected")
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		t.connected = false
		return nil, fmt.Errorf("mctransport: set read deadline: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		t.connected = false
		return nil, fmt.Errorf("mctransport: read failed: %w", err)
	}
	return buf, nil
}

// ReceiveFrame reads a complete response frame: headerSize bytes first,
// then calls extractor on that prefix to learn how many more bytes the
// frame declares, then reads exactly that many more. It returns the full
// frame (prefix + remainder) concatenated, using a fixed-header-then-
// declared-length two-stage read so mctransport never needs to know 3E
// frame semantics.
func (t *Transport) ReceiveFrame(headerSize int, readTimeout time.Duration, extractor func(prefix []byte) (int, error)) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prefix, err := t.receiveLocked(headerSize, readTimeout)
	if err != nil {
		return nil, err
	}
	remaining, err := extractor(prefix)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		return prefix, nil
	}
	rest, err := t.receiveLocked(remaining, readTimeout)
	if err != nil {
		return nil, err
	}
	return append(prefix, rest...), nil
}
