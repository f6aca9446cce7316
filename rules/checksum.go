package rules

import (
	"encoding/binary"
	"math"

	"github.com/pior/framing/region"
	"github.com/zeebo/xxh3"
)

const (
	checksumHeaderSize  = 4
	checksumTrailerSize = 8
)

// Checksum frames length prefixed payloads followed by their xxh3 hash:
//
//	<length: uint32 BE> <payload: length bytes> <xxh3(payload): uint64 BE>
//
// The returned frame is the payload alone.
type Checksum struct {
	// MaxPayload bounds the payload length. Zero means unbounded.
	MaxPayload int
}

func (r *Checksum) Decode(buf *region.Region) ([]byte, bool, error) {
	n, ok := buf.Uint(0, checksumHeaderSize, binary.BigEndian)
	if !ok {
		return nil, false, nil
	}
	if r.MaxPayload > 0 && n > uint64(r.MaxPayload) {
		return nil, false, tooLong(int(n), r.MaxPayload)
	}

	size := int(n)
	total := checksumHeaderSize + size + checksumTrailerSize
	if buf.Len() < total {
		return nil, false, nil
	}

	want, _ := buf.Uint(checksumHeaderSize+size, checksumTrailerSize, binary.BigEndian)
	if err := buf.Skip(checksumHeaderSize); err != nil {
		return nil, false, err
	}
	payload, err := buf.CopyNext(size)
	if err != nil {
		return nil, false, err
	}
	if err := buf.Skip(checksumTrailerSize); err != nil {
		return nil, false, err
	}

	if got := xxh3.Hash(payload); got != want {
		return nil, false, &ChecksumError{Want: want, Got: got}
	}
	return payload, true, nil
}

func (r *Checksum) DecodeEOF(buf *region.Region, sawEOF bool) ([]byte, bool, error) {
	if frame, ok, err := r.Decode(buf); ok || err != nil {
		return frame, ok, err
	}
	return nil, false, truncated(buf, sawEOF)
}

// AppendChecksumFrame appends payload to dst in the format read by Checksum.
func AppendChecksumFrame(dst []byte, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return dst, ErrFrameTooLong
	}
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	dst = append(dst, payload...)
	return binary.BigEndian.AppendUint64(dst, xxh3.Hash(payload)), nil
}
