package framing

import (
	"github.com/pior/framing/region"
)

type processorState uint8

const (
	stateActive processorState = iota
	stateFailed
	stateFinished
)

// Processor turns an arbitrarily chunked byte stream into messages using a
// single Rule.
//
// Bytes handed to Process are appended to an internal buffer, allocated on
// the first byte. The rule is then applied until it needs more data, every
// message going to the sink in order. Finish runs the end-of-stream decode
// exactly once.
//
// A sink may call Process on the same Processor. The nested call decodes
// and delivers everything it can before returning, and the outer call
// resumes from the buffer as the nested call left it.
//
// A Processor is driven by one goroutine at a time and does no locking.
// Only Stats is safe to call concurrently.
type Processor[M any] struct {
	rule   Rule[M]
	buf    *region.Region
	config Config

	state processorState
	err   error
	depth int // nested Process calls in flight

	stats statsCollector
}

// NewProcessor creates a processor owning rule.
func NewProcessor[M any](rule Rule[M], config Config) (*Processor[M], error) {
	if rule == nil {
		return nil, ErrNilRule
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Processor[M]{
		rule:   rule,
		config: config.withDefaults(),
	}, nil
}

// Process appends data and delivers every message the rule can extract.
//
// After decoding, the unconsumed backlog is checked against
// Config.MaxBufferedBytes: a larger backlog fails with a PayloadTooLargeError,
// after the messages of this call were delivered. A rule error fails with a
// MalformedFrameError. Once failed, Process returns the same error without
// decoding.
//
// Process panics when called after Finish.
func (p *Processor[M]) Process(data []byte, sink Sink[M]) error {
	if p.state == stateFinished {
		panic("framing: Process called after Finish")
	}
	if sink == nil {
		panic("framing: nil sink")
	}
	if p.state == stateFailed {
		return p.err
	}

	p.depth++
	defer func() { p.depth-- }()

	if len(data) > 0 {
		if p.buf == nil {
			p.buf = region.New(max(p.config.InitialCapacity, len(data)))
		}
		_, _ = p.buf.Write(data)
		p.stats.recordBytesIn(len(data))
	}

	p.decodeLoop(sink)
	if p.state != stateActive {
		// Failed here or in a nested call, or finished from a sink.
		return p.err
	}

	buffered := p.region().Len()
	if limit := p.config.MaxBufferedBytes; limit > 0 && buffered > limit {
		return p.fail(&PayloadTooLargeError{Buffered: buffered, Limit: limit})
	}

	// Nested calls leave reclamation to the outermost call.
	if p.depth == 1 {
		p.reclaim()
	}
	p.observe()
	return nil
}

// decodeLoop applies the rule until it needs more data or the processor
// leaves the active state. The region is fetched again on every iteration:
// a sink may have re-entered Process, appending, consuming, compacting or
// reallocating in between.
func (p *Processor[M]) decodeLoop(sink Sink[M]) {
	for p.state == stateActive {
		buf := p.region()
		if buf.Len() == 0 {
			return
		}

		before := buf.ReadIndex()
		msg, ok, err := p.rule.Decode(buf)
		if err != nil {
			p.fail(malformed(err))
			return
		}
		consumed := buf.ReadIndex() - before

		if !ok {
			if consumed <= 0 {
				return
			}
			p.stats.recordSkip()
			continue
		}

		p.stats.recordMessage()
		sink(msg)

		// A message that consumed nothing would be produced again forever.
		if consumed <= 0 {
			return
		}
	}
}

// Finish runs the rule's end-of-stream decode exactly once on the bytes left,
// delivers at most one message, and releases the buffer. It may be called
// without any prior Process call.
//
// If the processor already failed, the rule is not invoked and the failure
// is returned. Finish panics when called twice; so does Process after it.
func (p *Processor[M]) Finish(sawEOF bool, sink Sink[M]) error {
	if p.state == stateFinished {
		panic("framing: Finish called twice")
	}
	if sink == nil {
		panic("framing: nil sink")
	}

	prev := p.state
	p.state = stateFinished
	defer p.release()

	if prev == stateFailed {
		return p.err
	}

	msg, ok, err := p.rule.DecodeEOF(p.region(), sawEOF)
	if err != nil {
		p.err = malformed(err)
		p.stats.recordFailure()
		return p.err
	}
	if ok {
		p.stats.recordMessage()
		sink(msg)
	}
	return nil
}

// Buffered returns the number of unconsumed bytes.
func (p *Processor[M]) Buffered() int {
	if p.buf == nil {
		return 0
	}
	return p.buf.Len()
}

// Capacity returns the size of the buffer allocation, zero when none is held.
func (p *Processor[M]) Capacity() int {
	if p.buf == nil {
		return 0
	}
	return p.buf.Cap()
}

// Err returns the error that failed the processor, if any.
func (p *Processor[M]) Err() error {
	return p.err
}

// Finished reports whether Finish has run.
func (p *Processor[M]) Finished() bool {
	return p.state == stateFinished
}

// Stats returns a snapshot of the processor statistics.
func (p *Processor[M]) Stats() Stats {
	return p.stats.snapshot()
}

// region returns the accumulation buffer, or an empty region when nothing
// was ever buffered. Callers must not keep the result across a sink call.
func (p *Processor[M]) region() *region.Region {
	if p.buf == nil {
		return &region.Region{}
	}
	return p.buf
}

func (p *Processor[M]) fail(err error) error {
	p.state = stateFailed
	p.err = err
	p.stats.recordFailure()
	p.observe()
	return err
}

// compactWaste is the amount of consumed space worth a compaction even when
// most of the buffer is still unread.
const compactWaste = 2048

// reclaim applies the memory policy once decoding has quiesced.
//
// Consumed bytes are dropped for free when nothing is left to read. Otherwise
// the unconsumed bytes are moved to the front only once the buffer has
// reached CompactThreshold and the consumed bytes are either at least as many
// as the unconsumed ones or at least compactWaste. A buffer larger than
// ShrinkThreshold and more than four times what it needs to hold is
// reallocated.
func (p *Processor[M]) reclaim() {
	buf := p.buf
	if buf == nil {
		return
	}

	waste, readable := buf.Waste(), buf.Len()
	switch {
	case waste == 0:
	case readable == 0:
		buf.Reset()
	case buf.Cap() >= p.config.CompactThreshold && (waste >= readable || waste >= compactWaste):
		buf.Compact()
		p.stats.recordCompaction()
	}

	if buf.Cap() > p.config.ShrinkThreshold && buf.Cap() > 4*max(readable, p.config.InitialCapacity) {
		buf.Shrink(max(2*readable, p.config.InitialCapacity))
		p.stats.recordShrink()
	}
}

func (p *Processor[M]) release() {
	if p.buf != nil {
		p.buf.Release()
		p.buf = nil
	}
	p.observe()
}

func (p *Processor[M]) observe() {
	p.stats.observe(p.Buffered(), p.Capacity())
}
