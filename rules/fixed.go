package rules

import "github.com/pior/framing/region"

// FixedLength frames the stream into chunks of Size bytes.
type FixedLength struct {
	Size int
}

func (r *FixedLength) Decode(buf *region.Region) ([]byte, bool, error) {
	if r.Size <= 0 {
		return nil, false, ErrInvalidSize
	}
	if buf.Len() < r.Size {
		return nil, false, nil
	}
	frame, err := buf.CopyNext(r.Size)
	return frame, err == nil, err
}

func (r *FixedLength) DecodeEOF(buf *region.Region, sawEOF bool) ([]byte, bool, error) {
	if buf.Len() >= r.Size && r.Size > 0 {
		return r.Decode(buf)
	}
	return nil, false, truncated(buf, sawEOF)
}

// truncated reports leftover bytes at a clean end of stream.
func truncated(buf *region.Region, sawEOF bool) error {
	if sawEOF && buf.Len() > 0 {
		return ErrTruncatedFrame
	}
	return nil
}
