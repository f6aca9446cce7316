package meta

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/pior/framing/region"
)

// Pre-allocated byte slices for comparisons (avoid allocation in hot path)
var (
	crlfBytes         = []byte(CRLF)
	errorGenericBytes = []byte(ErrorGeneric)
	clientErrorPrefix = []byte(ErrorClientPrefix + " ")
	serverErrorPrefix = []byte(ErrorServerPrefix + " ")
)

// ResponseRule frames and parses meta protocol responses from a byte stream.
// It implements framing.Rule[*Response].
//
// Response format: <status> [<flags>*]\r\n[<data>\r\n]
//
// A VA header is consumed as soon as its line is complete and kept until
// the data block has arrived, so a large value is not reparsed on every
// chunk. Protocol errors (CLIENT_ERROR, SERVER_ERROR, ERROR) are returned as
// Response.Error; anything unparseable is a *ParseError and fails the
// stream.
//
// One ResponseRule serves one connection.
type ResponseRule struct {
	// MaxLineLength bounds a response line. Zero means the package default.
	MaxLineLength int
	// MaxValueSize bounds a VA data block. Zero means the package default.
	MaxValueSize int

	pending *Response // VA header waiting for its data block
	size    int       // data size of pending
	scanned int       // bytes of the current line already searched for LF
}

func (r *ResponseRule) Decode(buf *region.Region) (*Response, bool, error) {
	if r.pending == nil {
		resp, ok, err := r.decodeLine(buf)
		if err != nil || !ok {
			return nil, false, err
		}
		if resp.Status != StatusVA {
			return resp, true, nil
		}
		r.pending = resp
		// The header is consumed: the data block may already be buffered.
	}
	return r.decodeData(buf)
}

// DecodeEOF fails when the stream ends inside a response.
func (r *ResponseRule) DecodeEOF(buf *region.Region, sawEOF bool) (*Response, bool, error) {
	if r.pending == nil && buf.Len() == 0 {
		return nil, false, nil
	}
	if resp, ok, err := r.Decode(buf); ok || err != nil {
		return resp, ok, err
	}
	return nil, false, &ParseError{Message: "stream ended inside a response", Err: io.ErrUnexpectedEOF}
}

// Pending reports whether a VA header is waiting for its data block.
func (r *ResponseRule) Pending() bool {
	return r.pending != nil
}

func (r *ResponseRule) decodeData(buf *region.Region) (*Response, bool, error) {
	if buf.Len() < r.size+len(CRLF) {
		return nil, false, nil
	}

	block, err := buf.Next(r.size + len(CRLF))
	if err != nil {
		return nil, false, err
	}
	if !bytes.HasSuffix(block, crlfBytes) {
		return nil, false, &ParseError{Message: "invalid data block terminator"}
	}

	resp := r.pending
	resp.Data = bytes.Clone(block[:r.size])
	r.pending, r.size = nil, 0
	return resp, true, nil
}

func (r *ResponseRule) decodeLine(buf *region.Region) (*Response, bool, error) {
	limit := r.MaxLineLength
	if limit <= 0 {
		limit = MaxLineLength
	}

	i := buf.IndexByteFrom('\n', r.scanned)
	if i < 0 {
		r.scanned = buf.Len()
		if buf.Len() > limit+1 {
			return nil, false, &ParseError{Message: "response line too long"}
		}
		return nil, false, nil
	}
	r.scanned = 0

	raw, err := buf.Next(i + 1)
	if err != nil {
		return nil, false, err
	}
	line := bytes.TrimSuffix(raw[:i], []byte{'\r'})
	if len(line) > limit {
		return nil, false, &ParseError{Message: "response line too long"}
	}

	resp, err := r.parseLine(line)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// parseLine parses a response line, CRLF excluded. For VA it records the
// data size in r.size.
func (r *ResponseRule) parseLine(line []byte) (*Response, error) {
	if bytes.HasPrefix(line, clientErrorPrefix) {
		return &Response{Error: &ClientError{Message: string(line[len(clientErrorPrefix):])}}, nil
	}
	if bytes.HasPrefix(line, serverErrorPrefix) {
		return &Response{Error: &ServerError{Message: string(line[len(serverErrorPrefix):])}}, nil
	}
	if bytes.Equal(line, errorGenericBytes) {
		return &Response{Error: &GenericError{Message: ErrorGeneric}}, nil
	}

	if len(line) < 2 {
		return nil, &ParseError{Message: "empty response line"}
	}

	statusEnd := bytes.IndexByte(line, ' ')
	if statusEnd == -1 {
		statusEnd = len(line)
	}
	resp := &Response{Status: StatusType(line[:statusEnd])}
	pos := statusEnd

	switch resp.Status {
	case StatusMN:
		return resp, nil

	case StatusME:
		// ME <key> <key>=<value>*
		if parts := strings.Fields(string(line)); len(parts) > 2 {
			resp.Data = []byte(strings.Join(parts[2:], " "))
		}
		return resp, nil

	case StatusVA:
		pos = skipSpaces(line, pos)
		sizeEnd := bytes.IndexByte(line[pos:], ' ')
		if sizeEnd == -1 {
			sizeEnd = len(line) - pos
		}
		sizeBytes := line[pos : pos+sizeEnd]
		pos += sizeEnd

		if len(sizeBytes) == 0 {
			return nil, &ParseError{Message: "VA response missing size"}
		}
		size, err := strconv.Atoi(string(sizeBytes))
		if err != nil {
			return nil, &ParseError{Message: "invalid size in VA response", Err: err}
		}
		if size < 0 {
			return nil, &ParseError{Message: "negative size in VA response"}
		}
		limit := r.MaxValueSize
		if limit <= 0 {
			limit = MaxValueSize
		}
		if size > limit {
			return nil, &ParseError{Message: "VA size " + strconv.Itoa(size) + " exceeds limit of " + strconv.Itoa(limit)}
		}
		r.size = size
	}

	if skipSpaces(line, pos) < len(line) {
		resp.Flags = Flags(line[pos:]).Clone()
	}
	return resp, nil
}
