package framing

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, handler Handler[string], configure ...func(*Server[string])) (*Server[string], string, func() error) {
	t.Helper()
	s, err := NewServer(textRule, handler, ServerConfig{})
	require.NoError(t, err)
	for _, fn := range configure {
		fn(s)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("server did not stop")
		}
	}
	t.Cleanup(func() { _ = stop() })
	return s, ln.Addr().String(), stop
}

func ackHandler(ctx context.Context, conn *Conn[string], msg string) error {
	return conn.Write(ctx, []byte("ack:"+msg+"\n"))
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer[string](nil, ackHandler, ServerConfig{})
	require.ErrorIs(t, err, ErrNilRule)

	_, err = NewServer(textRule, nil, ServerConfig{})
	require.Error(t, err)
}

func TestServer(t *testing.T) {
	s, addr, stop := startTestServer(t, ackHandler)
	ctx := context.Background()

	c, err := DialConn(ctx, "tcp", addr, textRule(), ConnConfig{})
	require.NoError(t, err)
	defer c.Close()

	for _, req := range []string{"one", "two", "three"} {
		msg, err := c.RoundTrip(ctx, []byte(req+"\n"))
		require.NoError(t, err)
		require.Equal(t, "ack:"+req, msg)
	}

	// Split across writes.
	require.NoError(t, c.Write(ctx, []byte("fo")))
	require.NoError(t, c.Write(ctx, []byte("ur\n")))
	msg, err := c.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, "ack:four", msg)

	require.Equal(t, uint64(1), s.Stats().Accepted)
	require.NoError(t, stop())

	// The server closed the connection.
	_, err = c.Receive(ctx)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, int64(0), s.Stats().Active)
}

func TestServerDeliversFinalMessage(t *testing.T) {
	var mu sync.Mutex
	var got []string
	var opened, closed atomic.Int32
	_, addr, _ := startTestServer(t, func(_ context.Context, _ *Conn[string], msg string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		return nil
	}, func(s *Server[string]) {
		s.OnOpen = func(*Conn[string]) { opened.Add(1) }
		s.OnClose = func(*Conn[string]) { closed.Add(1) }
	})

	nc, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = nc.Write([]byte("a\nb\nunterminated"))
	require.NoError(t, err)
	require.NoError(t, nc.Close())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"a", "b", "unterminated"}, got)

	require.Eventually(t, func() bool { return closed.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), opened.Load())
}

func TestServerHandlerErrorClosesConnection(t *testing.T) {
	s, addr, _ := startTestServer(t, func(context.Context, *Conn[string], string) error {
		return errors.New("rejected")
	})

	c, err := DialConn(context.Background(), "tcp", addr, textRule(), ConnConfig{})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.RoundTrip(context.Background(), []byte("hello\n"))
	require.ErrorIs(t, err, io.EOF)

	require.Eventually(t, func() bool {
		return s.Stats().Failed == 1
	}, time.Second, 5*time.Millisecond)
}

type failingListener struct {
	net.Listener
	err error
}

func (l failingListener) Accept() (net.Conn, error) {
	return nil, l.err
}

func TestServerAcceptError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	boom := errors.New("boom")
	s, err := NewServer(textRule, ackHandler, ServerConfig{})
	require.NoError(t, err)

	err = s.Serve(context.Background(), failingListener{Listener: ln, err: boom})
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, "accept", connErr.Op)
	require.ErrorIs(t, err, boom)
}
