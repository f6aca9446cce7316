package framing

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/framing/internal"
	"github.com/rs/zerolog"
)

const DefaultReadBufferSize = 32 * 1024

// ConnConfig configures a Conn.
type ConnConfig struct {
	Processor Config

	// ReadBufferSize is the size of the chunks read from the network.
	// Zero means DefaultReadBufferSize.
	ReadBufferSize int

	// Logger receives connection events. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConnConfig returns the default connection configuration.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		Processor:      DefaultConfig(),
		ReadBufferSize: DefaultReadBufferSize,
	}
}

var readBufferPools sync.Map // int -> *internal.BufferPool

func readBufferPool(size int) *internal.BufferPool {
	if p, ok := readBufferPools.Load(size); ok {
		return p.(*internal.BufferPool)
	}
	p, _ := readBufferPools.LoadOrStore(size, internal.NewBufferPool(size))
	return p.(*internal.BufferPool)
}

// aLongTimeAgo is a deadline that has always passed.
var aLongTimeAgo = time.Unix(1, 0)

// Conn decodes the messages read from a net.Conn with one Processor.
//
// Reads and writes may run concurrently. Receive calls are serialised, as are
// Write calls. RoundTrip serialises a write with the read of its response.
type Conn[M any] struct {
	conn   net.Conn
	logger zerolog.Logger
	pool   *internal.BufferPool

	writeMu sync.Mutex
	rtMu    sync.Mutex

	readMu    sync.Mutex
	processor *Processor[M]
	readBuf   *[]byte
	pending   []M
	err       error // terminal, returned once pending is drained

	closed atomic.Bool
}

// NewConn wraps conn. The Conn owns conn from now on.
func NewConn[M any](conn net.Conn, rule Rule[M], config ConnConfig) (*Conn[M], error) {
	processor, err := NewProcessor(rule, config.Processor)
	if err != nil {
		return nil, err
	}

	size := config.ReadBufferSize
	if size < 0 {
		return nil, errors.New("framing: negative ReadBufferSize")
	}
	if size == 0 {
		size = DefaultReadBufferSize
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	c := &Conn[M]{
		conn:      conn,
		logger:    logger.With().Stringer("remote", conn.RemoteAddr()).Logger(),
		pool:      readBufferPool(size),
		processor: processor,
	}
	c.readBuf = c.pool.Get()
	c.logger.Debug().Msg("connection opened")
	return c, nil
}

// DialConn connects to addr and wraps the connection.
func DialConn[M any](ctx context.Context, network, addr string, rule Rule[M], config ConnConfig) (*Conn[M], error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}
	c, err := NewConn(nc, rule, config)
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	return c, nil
}

// Write sends p. The context deadline and cancellation interrupt the write.
func (c *Conn[M]) Write(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return ErrConnClosed
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	defer interruptOnDone(ctx, c.conn.SetWriteDeadline)()

	if _, err := c.conn.Write(p); err != nil {
		return c.ioError(ctx, "write", err)
	}
	return nil
}

// Receive returns the next message, reading from the network as needed.
//
// It returns io.EOF once the peer closed the stream and every message,
// including the end-of-stream one, was returned. A framing failure or a read
// error is returned after the messages decoded before it. These errors are
// terminal. A cancelled context only interrupts the pending read.
func (c *Conn[M]) Receive(ctx context.Context) (M, error) {
	var zero M

	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if len(c.pending) > 0 {
			msg := c.pending[0]
			c.pending[0] = zero
			c.pending = c.pending[1:]
			return msg, nil
		}
		if c.err != nil {
			return zero, c.err
		}
		if c.closed.Load() {
			return zero, ErrConnClosed
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		n, err := c.read(ctx)
		if n > 0 {
			if perr := c.processor.Process((*c.readBuf)[:n], c.enqueue); perr != nil {
				c.terminate(perr, false)
				continue
			}
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			c.terminate(io.EOF, true)
		case errors.Is(err, os.ErrDeadlineExceeded) && ctx.Err() != nil:
			return zero, ctx.Err()
		case errors.Is(err, os.ErrDeadlineExceeded) && hasDeadline(ctx):
			return zero, context.DeadlineExceeded
		case c.closed.Load():
			c.terminate(ErrConnClosed, false)
		default:
			c.terminate(&ConnectionError{Op: "read", Err: err}, false)
		}
	}
}

// RoundTrip writes req and receives one message.
func (c *Conn[M]) RoundTrip(ctx context.Context, req []byte) (M, error) {
	c.rtMu.Lock()
	defer c.rtMu.Unlock()

	if err := c.Write(ctx, req); err != nil {
		var zero M
		return zero, err
	}
	return c.Receive(ctx)
}

// Serve calls handler for every message until the peer closes the stream,
// the context is done, or handler fails. A clean end of stream returns nil.
func (c *Conn[M]) Serve(ctx context.Context, handler func(context.Context, M) error) error {
	for {
		msg, err := c.Receive(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// Stats returns the statistics of the connection's processor.
func (c *Conn[M]) Stats() Stats {
	return c.processor.Stats()
}

func (c *Conn[M]) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the network connection and releases the buffers.
// Undelivered messages and buffered bytes are dropped.
func (c *Conn[M]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.conn.Close()

	c.readMu.Lock()
	defer c.readMu.Unlock()
	if !c.processor.Finished() {
		_ = c.processor.Finish(false, func(M) {})
	}
	c.pending = nil
	c.pool.Put(c.readBuf)
	c.readBuf = nil

	c.logger.Debug().Msg("connection closed")
	return err
}

func (c *Conn[M]) read(ctx context.Context) (int, error) {
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}
	defer interruptOnDone(ctx, c.conn.SetReadDeadline)()

	return c.conn.Read(*c.readBuf)
}

func (c *Conn[M]) enqueue(msg M) {
	c.pending = append(c.pending, msg)
}

// buffered reports whether bytes or messages arrived that no Receive has
// returned yet.
func (c *Conn[M]) buffered() bool {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	return len(c.pending) > 0 || c.processor.Buffered() > 0
}

// terminate finishes the processor and records the error returned once the
// pending messages are drained. Must be called with readMu held.
func (c *Conn[M]) terminate(err error, sawEOF bool) {
	buffered := c.processor.Buffered()
	if ferr := c.processor.Finish(sawEOF, c.enqueue); ferr != nil {
		err = ferr
	}
	c.err = err

	if IsMalformed(err) || IsPayloadTooLarge(err) {
		c.logger.Warn().Err(err).Int("buffered", buffered).Msg("framing failure")
	}
}

func (c *Conn[M]) ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if c.closed.Load() {
		return ErrConnClosed
	}
	return &ConnectionError{Op: op, Err: err}
}

// interruptOnDone moves the deadline to the past once ctx is done. The
// returned function stops the watch and waits for it if it already fired.
func interruptOnDone(ctx context.Context, setDeadline func(time.Time) error) func() {
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = setDeadline(aLongTimeAgo)
		close(fired)
	})
	return func() {
		if !stop() {
			<-fired
		}
	}
}

func hasDeadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}
