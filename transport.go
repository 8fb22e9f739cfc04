package pima

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

// Transport is a byte-oriented bidirectional channel to the panel. Reads
// block up to an implementation-defined timeout and may return fewer bytes
// than requested (never more); a zero-length read is "keep waiting", not
// EOF, during the initial byte phase of a frame.
type Transport interface {
	// Read blocks until at least one byte is available or the read times
	// out, then returns up to n bytes.
	Read(n int) ([]byte, error)
	Write(p []byte) error
	Close() error
}

// serialTransport speaks to the panel over an RS-232 line: 2400 baud, 8
// data bits, no parity, 1 stop bit, 1-second read timeout, exactly as the
// panel's documented serial profile requires.
type serialTransport struct {
	port io.ReadWriteCloser
}

// OpenSerial opens path as the panel transport. Fails with
// TransportOpenError if the device cannot be acquired.
func OpenSerial(path string) (Transport, error) {
	options := serial.OpenOptions{
		PortName:              path,
		BaudRate:              2400,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 1000,
		MinimumReadSize:       0,
	}
	port, err := serial.Open(options)
	if err != nil {
		return nil, &TransportOpenError{Addr: path, Err: err}
	}
	return &serialTransport{port: port}, nil
}

func (s *serialTransport) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := s.port.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:got], nil
}

func (s *serialTransport) Write(p []byte) error {
	_, err := s.port.Write(p)
	return err
}

func (s *serialTransport) Close() error { return s.port.Close() }

// tcpTransport speaks to the panel over a single raw TCP connection, as
// used by panel-side serial-to-IP bridges.
type tcpTransport struct {
	conn net.Conn
}

// OpenTCP dials host:port as the panel transport. Fails with
// TransportOpenError if the connection cannot be established.
func OpenTCP(ctx context.Context, host string, port int) (Transport, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportOpenError{Addr: addr, Err: err}
	}
	return &tcpTransport{conn: conn}, nil
}

func (t *tcpTransport) Read(n int) ([]byte, error) {
	t.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	buf := make([]byte, n)
	got, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return buf[:got], nil
		}
		if err == io.EOF && got > 0 {
			return buf[:got], nil
		}
		return nil, err
	}
	return buf[:got], nil
}

func (t *tcpTransport) Write(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *tcpTransport) Close() error { return t.conn.Close() }
