package rules

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pior/framing/region"
)

// LengthField frames messages carrying their length in a header:
//
//	<length: Width bytes, Order> <body: length+Adjustment bytes>
//
// The length field sits at the start of the frame. Adjustment corrects
// protocols whose length counts something other than the body, e.g.
// -Width when the length includes the header itself.
type LengthField struct {
	Width int              // 1, 2, 4 or 8
	Order binary.ByteOrder // defaults to big endian
	// Adjustment is added to the decoded length to get the body size.
	Adjustment int
	// Strip drops the length field from the returned frame.
	Strip bool
	// MaxFrameLength bounds the whole frame, header included. Zero means
	// unbounded. The limit is checked as soon as the header is readable.
	MaxFrameLength int
}

func (r *LengthField) Decode(buf *region.Region) ([]byte, bool, error) {
	total, ok, err := r.frameLength(buf)
	if err != nil || !ok || buf.Len() < total {
		return nil, false, err
	}

	if r.Strip {
		if err := buf.Skip(r.Width); err != nil {
			return nil, false, err
		}
		frame, err := buf.CopyNext(total - r.Width)
		return frame, err == nil, err
	}
	frame, err := buf.CopyNext(total)
	return frame, err == nil, err
}

func (r *LengthField) DecodeEOF(buf *region.Region, sawEOF bool) ([]byte, bool, error) {
	if total, ok, err := r.frameLength(buf); err == nil && ok && buf.Len() >= total {
		return r.Decode(buf)
	}
	return nil, false, truncated(buf, sawEOF)
}

// frameLength returns the size of the frame at the read cursor, header
// included. ok is false until the header is readable.
func (r *LengthField) frameLength(buf *region.Region) (int, bool, error) {
	switch r.Width {
	case 1, 2, 4, 8:
	default:
		return 0, false, ErrInvalidWidth
	}

	v, ok := buf.Uint(0, r.Width, r.order())
	if !ok {
		return 0, false, nil
	}
	if v > math.MaxInt32 {
		return 0, false, tooLong(int(min(v, math.MaxInt64)), math.MaxInt32)
	}

	body := int(v) + r.Adjustment
	if body < 0 {
		return 0, false, fmt.Errorf("%w: field %d, adjustment %d", ErrNegativeLength, v, r.Adjustment)
	}
	total := r.Width + body
	if r.MaxFrameLength > 0 && total > r.MaxFrameLength {
		return 0, false, tooLong(total, r.MaxFrameLength)
	}
	return total, true, nil
}

func (r *LengthField) order() binary.ByteOrder {
	if r.Order == nil {
		return binary.BigEndian
	}
	return r.Order
}

// AppendLengthField appends payload to dst behind a length field of width
// bytes holding len(payload).
func AppendLengthField(dst []byte, payload []byte, width int, order binary.AppendByteOrder) ([]byte, error) {
	if order == nil {
		order = binary.BigEndian
	}
	n := uint64(len(payload))

	switch width {
	case 1:
		if n > math.MaxUint8 {
			return dst, tooLong(len(payload), math.MaxUint8)
		}
		dst = append(dst, byte(n))
	case 2:
		if n > math.MaxUint16 {
			return dst, tooLong(len(payload), math.MaxUint16)
		}
		dst = order.AppendUint16(dst, uint16(n))
	case 4:
		if n > math.MaxUint32 {
			return dst, tooLong(len(payload), math.MaxUint32)
		}
		dst = order.AppendUint32(dst, uint32(n))
	case 8:
		dst = order.AppendUint64(dst, n)
	default:
		return dst, ErrInvalidWidth
	}
	return append(dst, payload...), nil
}
