package framing

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pior/framing/internal/testutils"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// startEchoServer answers every line with "echo:<line>".
func startEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer nc.Close()
				r := bufio.NewReader(nc)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if _, err := nc.Write([]byte("echo:" + line)); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String()
}

func newTestClient(t *testing.T, config ClientConfig) *Client[string] {
	t.Helper()
	c, err := NewClient(textRule, config)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient[string](nil, ClientConfig{Addr: "x"})
	require.ErrorIs(t, err, ErrNilRule)

	_, err = NewClient(textRule, ClientConfig{})
	require.Error(t, err)

	_, err = NewClient(textRule, ClientConfig{Addr: "x", MaxSize: -1})
	require.Error(t, err)

	_, err = NewClient(textRule, ClientConfig{Addr: "x", Conn: ConnConfig{Processor: Config{MaxBufferedBytes: -1}}})
	require.Error(t, err)
}

func TestClientRoundTrip(t *testing.T) {
	addr := startEchoServer(t)
	c := newTestClient(t, ClientConfig{Addr: addr, MaxSize: 4})

	msg, err := c.RoundTrip(context.Background(), []byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, "echo:hello", msg)

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.RoundTrips)
	require.Equal(t, uint64(0), stats.Errors)
	require.Equal(t, uint64(1), stats.CreatedConns)
	require.Equal(t, int32(1), stats.IdleConns)
	require.Equal(t, gobreaker.StateClosed, stats.BreakerState)
}

func TestClientConcurrentRoundTrips(t *testing.T) {
	addr := startEchoServer(t)
	c := newTestClient(t, ClientConfig{Addr: addr, MaxSize: 3})

	var g errgroup.Group
	for i := range 50 {
		g.Go(func() error {
			req := string(rune('a' + i%26))
			msg, err := c.RoundTrip(context.Background(), []byte(req+"\n"))
			if err != nil {
				return err
			}
			if msg != "echo:"+req {
				return errors.New("unexpected response " + msg)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats := c.Stats()
	require.Equal(t, uint64(50), stats.RoundTrips)
	require.LessOrEqual(t, stats.CreatedConns, uint64(3))
}

func TestClientDestroysBrokenConnections(t *testing.T) {
	var dials atomic.Int32
	c := newTestClient(t, ClientConfig{
		Addr:    "test",
		MaxSize: 1,
		dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dials.Add(1)
			// Answers a single request, then reports end of stream.
			return testutils.NewChunkedConn("pong\n"), nil
		},
	})
	ctx := context.Background()

	msg, err := c.RoundTrip(ctx, []byte("ping\n"))
	require.NoError(t, err)
	require.Equal(t, "pong", msg)

	_, err = c.RoundTrip(ctx, []byte("ping\n"))
	require.ErrorIs(t, err, io.EOF)

	msg, err = c.RoundTrip(ctx, []byte("ping\n"))
	require.NoError(t, err)
	require.Equal(t, "pong", msg)

	require.Equal(t, int32(2), dials.Load())
	require.Eventually(t, func() bool {
		return c.Stats().DestroyedConns == 1
	}, time.Second, 5*time.Millisecond)

	stats := c.Stats()
	require.Equal(t, uint64(3), stats.RoundTrips)
	require.Equal(t, uint64(1), stats.Errors)
	require.Equal(t, uint64(2), stats.CreatedConns)
}

func TestClientDestroysConnectionsWithLeftovers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		first := true
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go func(extra bool) {
				defer nc.Close()
				r := bufio.NewReader(nc)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					reply := "reply:" + line
					if extra {
						reply += "unsolicited\n"
						extra = false
					}
					if _, err := nc.Write([]byte(reply)); err != nil {
						return
					}
				}
			}(first)
			first = false
		}
	}()

	c := newTestClient(t, ClientConfig{Addr: ln.Addr().String(), MaxSize: 1})
	ctx := context.Background()

	msg, err := c.RoundTrip(ctx, []byte("first\n"))
	require.NoError(t, err)
	require.Equal(t, "reply:first", msg)

	msg, err = c.RoundTrip(ctx, []byte("second\n"))
	require.NoError(t, err)
	require.Equal(t, "reply:second", msg)

	require.Eventually(t, func() bool {
		return c.Stats().DestroyedConns == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, uint64(2), c.Stats().CreatedConns)
	require.Zero(t, c.Stats().Errors)
}

func TestClientCircuitBreaker(t *testing.T) {
	refused := errors.New("connection refused")
	settings := NewBreakerSettings("test", 1, time.Minute, time.Minute)

	c := newTestClient(t, ClientConfig{
		Addr:           "test",
		CircuitBreaker: &settings,
		dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, refused
		},
	})
	ctx := context.Background()

	for range 3 {
		_, err := c.RoundTrip(ctx, []byte("ping\n"))
		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		require.Equal(t, "dial", connErr.Op)
		require.ErrorIs(t, err, refused)
	}

	_, err := c.RoundTrip(ctx, []byte("ping\n"))
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	stats := c.Stats()
	require.Equal(t, gobreaker.StateOpen, stats.BreakerState)
	require.Equal(t, uint64(1), stats.BreakerRejections)
	require.Equal(t, uint64(4), stats.Errors)
	require.Equal(t, uint64(0), stats.CreatedConns)
}

func TestClientClose(t *testing.T) {
	addr := startEchoServer(t)
	c, err := NewClient(textRule, ClientConfig{Addr: addr})
	require.NoError(t, err)

	_, err = c.RoundTrip(context.Background(), []byte("x\n"))
	require.NoError(t, err)

	c.Close()
	c.Close()

	_, err = c.RoundTrip(context.Background(), []byte("x\n"))
	require.ErrorIs(t, err, ErrClientClosed)
	require.Equal(t, uint64(1), c.Stats().DestroyedConns)
}
