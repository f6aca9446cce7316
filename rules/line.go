package rules

import (
	"bytes"

	"github.com/pior/framing/region"
)

// Line frames LF terminated lines. A CR right before the LF is part of the
// delimiter. Lines are returned without their delimiter unless
// KeepDelimiter is set.
//
// Line remembers how far it has searched, so a long line delivered in many
// small chunks is scanned once.
type Line struct {
	// MaxLength bounds a line, delimiter excluded. Zero means unbounded.
	// A partial line is rejected as soon as it can no longer fit.
	MaxLength     int
	KeepDelimiter bool

	scanned int
}

func (r *Line) Decode(buf *region.Region) ([]byte, bool, error) {
	i := buf.IndexByteFrom('\n', r.scanned)
	if i < 0 {
		r.scanned = buf.Len()
		// One byte of slack for a CR waiting for its LF.
		if r.MaxLength > 0 && buf.Len() > r.MaxLength+1 {
			return nil, false, tooLong(buf.Len(), r.MaxLength)
		}
		return nil, false, nil
	}
	r.scanned = 0

	raw, err := buf.Next(i + 1)
	if err != nil {
		return nil, false, err
	}
	line := raw[:i]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if r.MaxLength > 0 && len(line) > r.MaxLength {
		return nil, false, tooLong(len(line), r.MaxLength)
	}

	if r.KeepDelimiter {
		return bytes.Clone(raw), true, nil
	}
	return bytes.Clone(line), true, nil
}

// DecodeEOF emits an unterminated last line on a clean end of stream.
func (r *Line) DecodeEOF(buf *region.Region, sawEOF bool) ([]byte, bool, error) {
	if frame, ok, err := r.Decode(buf); ok || err != nil {
		return frame, ok, err
	}
	return remainder(buf, sawEOF, r.MaxLength)
}

// Delimiter frames messages terminated by Delim.
// Frames are returned without the delimiter unless KeepDelimiter is set.
type Delimiter struct {
	Delim []byte
	// MaxLength bounds a frame, delimiter excluded. Zero means unbounded.
	MaxLength     int
	KeepDelimiter bool

	scanned int
}

func (r *Delimiter) Decode(buf *region.Region) ([]byte, bool, error) {
	if len(r.Delim) == 0 {
		return nil, false, ErrEmptyDelimiter
	}

	i := buf.IndexFrom(r.Delim, r.scanned)
	if i < 0 {
		// A delimiter may straddle the end of the buffered bytes.
		r.scanned = max(0, buf.Len()-len(r.Delim)+1)
		if r.MaxLength > 0 && r.scanned > r.MaxLength {
			return nil, false, tooLong(r.scanned, r.MaxLength)
		}
		return nil, false, nil
	}
	r.scanned = 0

	if r.MaxLength > 0 && i > r.MaxLength {
		return nil, false, tooLong(i, r.MaxLength)
	}
	raw, err := buf.Next(i + len(r.Delim))
	if err != nil {
		return nil, false, err
	}
	if r.KeepDelimiter {
		return bytes.Clone(raw), true, nil
	}
	return bytes.Clone(raw[:i]), true, nil
}

// DecodeEOF emits an unterminated last frame on a clean end of stream.
func (r *Delimiter) DecodeEOF(buf *region.Region, sawEOF bool) ([]byte, bool, error) {
	if frame, ok, err := r.Decode(buf); ok || err != nil {
		return frame, ok, err
	}
	return remainder(buf, sawEOF, r.MaxLength)
}

func remainder(buf *region.Region, sawEOF bool, maxLength int) ([]byte, bool, error) {
	if !sawEOF || buf.Len() == 0 {
		return nil, false, nil
	}
	if maxLength > 0 && buf.Len() > maxLength {
		return nil, false, tooLong(buf.Len(), maxLength)
	}
	frame, err := buf.CopyNext(buf.Len())
	return frame, err == nil, err
}
