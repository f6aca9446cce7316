package framing

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// DefaultMaxConns is the pool size used when ClientConfig.MaxSize is zero.
const DefaultMaxConns = 8

// ClientConfig holds configuration for a Client.
type ClientConfig struct {
	// Network and Addr locate the server. Network defaults to "tcp".
	Network string
	Addr    string

	// MaxSize is the maximum number of connections in the pool.
	// Zero means DefaultMaxConns.
	MaxSize int32

	// Conn configures every pooled connection.
	Conn ConnConfig

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// CircuitBreaker wraps every round trip when set. See NewBreakerSettings.
	CircuitBreaker *gobreaker.Settings

	// Logger receives client and connection events. Nil disables logging.
	Logger *zerolog.Logger

	// for testing purposes only
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewBreakerSettings returns circuit breaker settings that trip once at
// least 3 requests were seen with a failure ratio of 60% or more.
func NewBreakerSettings(name string, maxRequests uint32, interval, timeout time.Duration) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
}

// Client sends requests to one server over a pool of connections and
// decodes one response message per request.
//
// Each connection gets its own Rule from the factory given to NewClient. A
// connection that fails with an error requiring it to be closed is
// destroyed, others go back to the pool.
type Client[M any] struct {
	newRule func() Rule[M]
	config  ClientConfig
	logger  zerolog.Logger

	pool    *puddle.Pool[*Conn[M]]
	breaker *gobreaker.CircuitBreaker[M] // nil if not configured

	stats  clientStatsCollector
	closed atomic.Bool
}

// NewClient creates a client. No connection is made until the first
// round trip.
func NewClient[M any](newRule func() Rule[M], config ClientConfig) (*Client[M], error) {
	if newRule == nil {
		return nil, ErrNilRule
	}
	if config.Addr == "" {
		return nil, errors.New("framing: no address provided")
	}
	if config.MaxSize < 0 {
		return nil, errors.New("framing: negative MaxSize")
	}
	if err := config.Conn.Processor.Validate(); err != nil {
		return nil, err
	}

	if config.Network == "" {
		config.Network = "tcp"
	}
	if config.MaxSize == 0 {
		config.MaxSize = DefaultMaxConns
	}
	if config.dial == nil {
		dialer := config.Dialer
		if dialer == nil {
			dialer = &net.Dialer{}
		}
		config.dial = dialer.DialContext
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	if config.Conn.Logger == nil {
		config.Conn.Logger = &logger
	}

	c := &Client[M]{
		newRule: newRule,
		config:  config,
		logger:  logger.With().Str("addr", config.Addr).Logger(),
	}

	pool, err := puddle.NewPool(&puddle.Config[*Conn[M]]{
		Constructor: c.connect,
		Destructor: func(conn *Conn[M]) {
			c.stats.destroyedConns.Add(1)
			_ = conn.Close()
		},
		MaxSize: config.MaxSize,
	})
	if err != nil {
		return nil, err
	}
	c.pool = pool

	if config.CircuitBreaker != nil {
		c.breaker = gobreaker.NewCircuitBreaker[M](*config.CircuitBreaker)
	}
	return c, nil
}

func (c *Client[M]) connect(ctx context.Context) (*Conn[M], error) {
	nc, err := c.config.dial(ctx, c.config.Network, c.config.Addr)
	if err != nil {
		c.logger.Debug().Err(err).Msg("dial failed")
		return nil, &ConnectionError{Op: "dial", Err: err}
	}
	conn, err := NewConn(nc, c.newRule(), c.config.Conn)
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	c.stats.createdConns.Add(1)
	return conn, nil
}

// RoundTrip writes req on a pooled connection and returns the next message
// decoded from it. If a circuit breaker is configured, the call goes through
// it and may fail with gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func (c *Client[M]) RoundTrip(ctx context.Context, req []byte) (M, error) {
	if c.closed.Load() {
		var zero M
		return zero, ErrClientClosed
	}

	if c.breaker == nil {
		msg, err := c.roundTrip(ctx, req)
		c.stats.recordRoundTrip(err)
		return msg, err
	}

	msg, err := c.breaker.Execute(func() (M, error) {
		return c.roundTrip(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.stats.breakerRejections.Add(1)
	}
	c.stats.recordRoundTrip(err)
	return msg, err
}

func (c *Client[M]) roundTrip(ctx context.Context, req []byte) (M, error) {
	var zero M

	resource, err := c.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, puddle.ErrClosedPool) {
			return zero, ErrClientClosed
		}
		return zero, err
	}

	conn := resource.Value()
	msg, err := conn.RoundTrip(ctx, req)
	if err != nil {
		if ShouldCloseConnection(err) {
			c.logger.Debug().Err(err).Msg("destroying connection")
			resource.Destroy()
		} else {
			resource.Release()
		}
		return zero, err
	}

	// Leftovers would be read as the answer to the next request.
	if conn.buffered() {
		c.logger.Debug().Msg("destroying connection with unsolicited data")
		resource.Destroy()
		return msg, nil
	}

	resource.Release()
	return msg, nil
}

// Stats returns a snapshot of client statistics.
func (c *Client[M]) Stats() ClientStats {
	s := c.pool.Stat()
	stats := ClientStats{
		RoundTrips:        c.stats.roundTrips.Load(),
		Errors:            c.stats.errors.Load(),
		BreakerRejections: c.stats.breakerRejections.Load(),
		CreatedConns:      c.stats.createdConns.Load(),
		DestroyedConns:    c.stats.destroyedConns.Load(),
		TotalConns:        s.TotalResources(),
		IdleConns:         s.IdleResources(),
		ActiveConns:       s.AcquiredResources(),
		BreakerState:      gobreaker.StateClosed,
	}
	if c.breaker != nil {
		stats.BreakerState = c.breaker.State()
	}
	return stats
}

// Close closes every connection. Round trips in flight finish first.
func (c *Client[M]) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.pool.Close()
	c.logger.Debug().Msg("client closed")
}
