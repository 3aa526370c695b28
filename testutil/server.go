package testutil

import (
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Server is a loopback TCP listener whose connections are driven by the test
type Server struct {
	ln       net.Listener
	conns    chan net.Conn
	accepted atomic.Int32
}

// NewServer starts a listener on 127.0.0.1 with an ephemeral port. It is
// closed, together with every accepted connection, when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &Server{ln: ln, conns: make(chan net.Conn, 16)}

	var all []net.Conn
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.accepted.Add(1)
			all = append(all, conn)
			select {
			case s.conns <- conn:
			case <-stop:
				return
			}
		}
	}()

	t.Cleanup(func() {
		close(stop)
		_ = ln.Close()
		<-done
		for _, c := range all {
			_ = c.Close()
		}
	})
	return s
}

// Addr returns the listener address as host:port
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Host returns the listener host
func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listener port
func (s *Server) Port() uint16 {
	return uint16(s.ln.Addr().(*net.TCPAddr).Port)
}

// Accept waits for the next client connection
func (s *Server) Accept(t testing.TB, timeout time.Duration) net.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(timeout):
		t.Fatalf("no connection accepted within %v", timeout)
		return nil
	}
}

// Accepted returns the number of connections accepted so far
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Close stops accepting connections
func (s *Server) Close() error {
	return s.ln.Close()
}

// WriteChunks writes each chunk with a separate Write call and a short pause
// in between, so the client sees them as separate reads.
func WriteChunks(t testing.TB, conn net.Conn, chunks ...string) {
	t.Helper()
	for i, chunk := range chunks {
		if i > 0 {
			time.Sleep(20 * time.Millisecond)
		}
		_, err := conn.Write([]byte(chunk))
		require.NoError(t, err)
	}
}

// ClosedAddr returns a loopback host and port with no listener
func ClosedAddr(t testing.TB) (string, uint16) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	port, err := strconv.ParseUint(portStr, 10, 16)
	require.NoError(t, err)
	return "127.0.0.1", uint16(port)
}
