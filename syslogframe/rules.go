package syslogframe

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pior/framing/region"
	"github.com/pior/framing/rules"
)

// maxDigits bounds the octet count prefix.
const maxDigits = 10

// OctetCounting frames messages prefixed by their length (RFC 6587 3.4.1):
//
//	MSG-LEN SP SYSLOG-MSG
//
// MSG-LEN is a decimal number without leading zeros.
type OctetCounting struct {
	Options
	// MaxLength bounds SYSLOG-MSG. Zero means DefaultMaxLength.
	MaxLength int

	parser parser
}

func (r *OctetCounting) Decode(buf *region.Region) (Message, bool, error) {
	n, header, ok, err := r.header(buf)
	if err != nil || !ok || buf.Len() < header+n {
		return Message{}, false, err
	}

	if err := buf.Skip(header); err != nil {
		return Message{}, false, err
	}
	raw, err := buf.CopyNext(n)
	if err != nil {
		return Message{}, false, err
	}
	m, err := r.parser.message(raw, r.Options)
	return m, err == nil, err
}

func (r *OctetCounting) DecodeEOF(buf *region.Region, sawEOF bool) (Message, bool, error) {
	if m, ok, err := r.Decode(buf); ok || err != nil {
		return m, ok, err
	}
	if sawEOF && buf.Len() > 0 {
		return Message{}, false, ErrTruncated
	}
	return Message{}, false, nil
}

// header parses MSG-LEN SP. It returns the message length and the header
// size. ok is false until the space is buffered.
func (r *OctetCounting) header(buf *region.Region) (n, size int, ok bool, err error) {
	limit := r.MaxLength
	if limit <= 0 {
		limit = DefaultMaxLength
	}

	digits, _ := buf.Peek(min(buf.Len(), maxDigits+1))
	sp := bytes.IndexByte(digits, ' ')
	if sp < 0 {
		if len(digits) > maxDigits {
			return 0, 0, false, fmt.Errorf("%w: no space after %d digits", ErrInvalidLength, maxDigits)
		}
		// Reject garbage before the whole prefix is buffered.
		if err := checkDigits(digits); err != nil {
			return 0, 0, false, err
		}
		return 0, 0, false, nil
	}

	if sp == 0 {
		return 0, 0, false, fmt.Errorf("%w: empty length", ErrInvalidLength)
	}
	if err := checkDigits(digits[:sp]); err != nil {
		return 0, 0, false, err
	}
	n, err = strconv.Atoi(string(digits[:sp]))
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: %v", ErrInvalidLength, err)
	}
	if n > limit {
		return 0, 0, false, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLong, n, limit)
	}
	return n, sp + 1, true, nil
}

func checkDigits(digits []byte) error {
	for i, c := range digits {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: unexpected %q", ErrInvalidLength, c)
		}
		if i == 0 && c == '0' {
			return fmt.Errorf("%w: leading zero", ErrInvalidLength)
		}
	}
	return nil
}

// NonTransparent frames messages terminated by a trailer byte
// (RFC 6587 3.4.2). The trailer is removed; an unterminated message at a
// clean end of stream is delivered as well.
type NonTransparent struct {
	Options
	// Trailer ends each message. Zero means LF; NUL is not supported.
	Trailer byte
	// MaxLength bounds a message. Zero means DefaultMaxLength.
	MaxLength int

	frames *rules.Delimiter
	parser parser
}

func (r *NonTransparent) Decode(buf *region.Region) (Message, bool, error) {
	raw, ok, err := r.delimiter().Decode(buf)
	if err != nil || !ok {
		return Message{}, false, err
	}
	return r.message(raw)
}

func (r *NonTransparent) DecodeEOF(buf *region.Region, sawEOF bool) (Message, bool, error) {
	raw, ok, err := r.delimiter().DecodeEOF(buf, sawEOF)
	if err != nil || !ok {
		return Message{}, false, err
	}
	return r.message(raw)
}

func (r *NonTransparent) message(raw []byte) (Message, bool, error) {
	// Senders using LF trailers often emit CRLF.
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	m, err := r.parser.message(raw, r.Options)
	return m, err == nil, err
}

func (r *NonTransparent) delimiter() *rules.Delimiter {
	if r.frames == nil {
		trailer := r.Trailer
		if trailer == 0 {
			trailer = '\n'
		}
		limit := r.MaxLength
		if limit <= 0 {
			limit = DefaultMaxLength
		}
		r.frames = &rules.Delimiter{Delim: []byte{trailer}, MaxLength: limit}
	}
	return r.frames
}

// AppendOctetCounted appends msg to dst with an RFC 6587 octet count prefix.
func AppendOctetCounted(dst []byte, msg []byte) []byte {
	dst = strconv.AppendInt(dst, int64(len(msg)), 10)
	dst = append(dst, ' ')
	return append(dst, msg...)
}
