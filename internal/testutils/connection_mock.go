package testutils

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// ChunkedConn is a net.Conn replaying preset data, one chunk per Read.
//
// Once the chunks are used up, Read returns EndErr (io.EOF when nil), or
// blocks until more data is fed, the connection is closed, or the read
// deadline passes when Hold is set.
type ChunkedConn struct {
	EndErr error
	Hold   bool

	mu       sync.Mutex
	chunks   [][]byte
	writes   bytes.Buffer
	deadline time.Time
	closed   bool
	wake     chan struct{}
}

// NewChunkedConn creates a connection that will deliver chunks in order.
func NewChunkedConn(chunks ...string) *ChunkedConn {
	c := &ChunkedConn{wake: make(chan struct{})}
	for _, chunk := range chunks {
		c.chunks = append(c.chunks, []byte(chunk))
	}
	return c
}

// Feed queues more chunks and wakes a blocked Read.
func (c *ChunkedConn) Feed(chunks ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, chunk := range chunks {
		c.chunks = append(c.chunks, []byte(chunk))
	}
	c.signal()
}

func (c *ChunkedConn) Read(b []byte) (int, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return 0, net.ErrClosed
		}
		if len(c.chunks) > 0 {
			n := copy(b, c.chunks[0])
			if n == len(c.chunks[0]) {
				c.chunks = c.chunks[1:]
			} else {
				c.chunks[0] = c.chunks[0][n:]
			}
			c.mu.Unlock()
			return n, nil
		}
		if !c.Hold {
			c.mu.Unlock()
			if c.EndErr != nil {
				return 0, c.EndErr
			}
			return 0, io.EOF
		}
		if !c.deadline.IsZero() && !time.Now().Before(c.deadline) {
			c.mu.Unlock()
			return 0, os.ErrDeadlineExceeded
		}

		wake := c.wake
		var timer *time.Timer
		var timeout <-chan time.Time
		if !c.deadline.IsZero() {
			timer = time.NewTimer(time.Until(c.deadline))
			timeout = timer.C
		}
		c.mu.Unlock()

		select {
		case <-wake:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (c *ChunkedConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	return c.writes.Write(b)
}

func (c *ChunkedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.signal()
	return nil
}

// Closed reports whether Close was called.
func (c *ChunkedConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Written returns the bytes written to the connection.
func (c *ChunkedConn) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes.String()
}

func (c *ChunkedConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (c *ChunkedConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}
}

func (c *ChunkedConn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

func (c *ChunkedConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	c.signal()
	return nil
}

func (c *ChunkedConn) SetWriteDeadline(t time.Time) error { return nil }

// signal wakes blocked readers. Must be called with the lock held.
func (c *ChunkedConn) signal() {
	close(c.wake)
	c.wake = make(chan struct{})
}
