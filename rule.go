package framing

import "github.com/pior/framing/region"

// Rule extracts messages of type M from buffered bytes.
//
// Decode is given the unconsumed bytes and must do one of:
//   - consume a non-empty prefix and return a message with ok set,
//   - consume nothing and return ok=false: more data is needed,
//   - consume a prefix and return ok=false: a skipped frame, decoding continues.
//
// Consuming means advancing buf's read cursor (Next, Skip, CopyNext,
// ReadByte). Bytes left unconsumed are handed back on the next call, possibly
// with more bytes appended. Rules must not Compact, Shrink, Reset or Write
// the region.
//
// DecodeEOF is called once when the stream ends, with whatever is left
// (possibly nothing). sawEOF is false when the stream was cut abruptly.
// It returns at most one final message.
//
// A rule may keep state between calls; one instance serves one stream.
// Any error is reported to the caller as a MalformedFrameError.
type Rule[M any] interface {
	Decode(buf *region.Region) (msg M, ok bool, err error)
	DecodeEOF(buf *region.Region, sawEOF bool) (msg M, ok bool, err error)
}

// Sink receives decoded messages in order.
// A sink may call Process on the processor that invoked it.
type Sink[M any] func(msg M)

// RuleFuncs adapts plain functions to Rule.
// A nil DecodeEOFFunc emits nothing at end of stream.
type RuleFuncs[M any] struct {
	DecodeFunc    func(buf *region.Region) (M, bool, error)
	DecodeEOFFunc func(buf *region.Region, sawEOF bool) (M, bool, error)
}

// Decode calls DecodeFunc.
func (f RuleFuncs[M]) Decode(buf *region.Region) (M, bool, error) {
	return f.DecodeFunc(buf)
}

// DecodeEOF calls DecodeEOFFunc, if set.
func (f RuleFuncs[M]) DecodeEOF(buf *region.Region, sawEOF bool) (M, bool, error) {
	if f.DecodeEOFFunc == nil {
		var zero M
		return zero, false, nil
	}
	return f.DecodeEOFFunc(buf, sawEOF)
}
