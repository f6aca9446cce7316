package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/pior/framing"
	"github.com/pior/framing/metrics"
	"github.com/rs/zerolog"
)

// runner holds what every mode needs.
type runner struct {
	ctx       context.Context
	cfg       config
	logger    zerolog.Logger
	in        io.Reader
	collector *metrics.ProcessorCollector

	mu  sync.Mutex
	out io.Writer
}

func (r *runner) print(prefix, frame string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prefix != "" {
		fmt.Fprintf(r.out, "%s %s\n", prefix, frame)
		return
	}
	fmt.Fprintln(r.out, frame)
}

func (r *runner) connConfig() framing.ConnConfig {
	return framing.ConnConfig{
		Processor:      r.cfg.processorConfig(),
		ReadBufferSize: r.cfg.ReadBuffer,
		Logger:         &r.logger,
	}
}

func run[M any](r *runner, d decoder[M]) error {
	switch {
	case r.cfg.Connect != "":
		return runConnect(r, d)
	case r.cfg.Listen != "":
		return runListen(r, d)
	default:
		return runReader(r, d)
	}
}

// runReader decodes r.in until end of file.
func runReader[M any](r *runner, d decoder[M]) error {
	p, err := framing.NewProcessor(d.newRule(), r.cfg.processorConfig())
	if err != nil {
		return err
	}
	r.collector.Register("stdin", p)
	defer r.collector.Unregister("stdin")

	sink := func(msg M) { r.print("", d.format(msg)) }
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, r.cfg.ReadBuffer)
		for {
			n, err := r.in.Read(buf)
			if n > 0 {
				if perr := p.Process(buf[:n], sink); perr != nil {
					_ = p.Finish(false, sink)
					done <- perr
					return
				}
			}
			if errors.Is(err, io.EOF) {
				done <- p.Finish(true, sink)
				return
			}
			if err != nil {
				_ = p.Finish(false, sink)
				done <- fmt.Errorf("read: %w", err)
				return
			}
		}
	}()

	// A blocked read on stdin cannot be interrupted; give up on it.
	select {
	case err := <-done:
		return err
	case <-r.ctx.Done():
		return nil
	}
}

func runConnect[M any](r *runner, d decoder[M]) error {
	conn, err := framing.DialConn(r.ctx, "tcp", r.cfg.Connect, d.newRule(), r.connConfig())
	if err != nil {
		return err
	}
	defer conn.Close()

	r.collector.Register(r.cfg.Connect, conn)
	defer r.collector.Unregister(r.cfg.Connect)

	r.logger.Info().Str("addr", r.cfg.Connect).Msg("connected")
	err = conn.Serve(r.ctx, func(_ context.Context, msg M) error {
		r.print("", d.format(msg))
		return nil
	})
	if r.ctx.Err() != nil {
		return nil
	}
	return err
}

func runListen[M any](r *runner, d decoder[M]) error {
	ln, err := net.Listen("tcp", r.cfg.Listen)
	if err != nil {
		return err
	}

	server, err := framing.NewServer(d.newRule, func(_ context.Context, conn *framing.Conn[M], msg M) error {
		r.print(conn.RemoteAddr().String(), d.format(msg))
		return nil
	}, framing.ServerConfig{Conn: r.connConfig(), Logger: &r.logger})
	if err != nil {
		_ = ln.Close()
		return err
	}
	server.OnOpen = func(conn *framing.Conn[M]) {
		r.collector.Register(conn.RemoteAddr().String(), conn)
	}
	server.OnClose = func(conn *framing.Conn[M]) {
		r.collector.Unregister(conn.RemoteAddr().String())
	}

	return server.Serve(r.ctx, ln)
}
