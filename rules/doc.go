// Package rules provides stock framing rules for common wire formats.
//
// Every rule implements framing.Rule[[]byte] and returns owned copies of the
// frame bytes, safe to retain after the sink returns:
//
//   - FixedLength: frames of a constant size
//   - LengthField: a 1, 2, 4 or 8 byte length header followed by the body
//   - Line: LF or CRLF terminated lines
//   - Delimiter: frames terminated by an arbitrary byte sequence
//   - Checksum: length prefixed frames with an xxh3 trailer
//
// Rules keep per-stream state: create one instance per Processor.
//
// # Usage
//
//	p, err := framing.NewProcessor[[]byte](&rules.Line{MaxLength: 1024}, framing.Config{})
//	if err != nil {
//	    return err
//	}
//	err = p.Process(chunk, func(line []byte) {
//	    fmt.Printf("%s\n", line)
//	})
//
// # End of stream
//
// On a clean end of stream (sawEOF), a leftover partial frame is reported as
// ErrTruncatedFrame, except for Line and Delimiter which emit the remainder
// as a last frame. After an abrupt close the leftover is discarded.
//
// # Encoding
//
// AppendLengthField and AppendChecksumFrame produce the wire format read by
// LengthField and Checksum.
package rules
