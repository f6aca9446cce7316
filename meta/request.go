package meta

import (
	"strconv"
	"strings"
	"time"
)

// Request is a meta protocol command. It is only needed to talk to a server;
// ResponseRule does not depend on it.
type Request struct {
	// Command is the 2-character command code: mg, ms, md, ma, me, mn
	Command CmdType

	// Key is the cache key (1-250 bytes, no whitespace unless base64-encoded).
	// Empty for mn.
	Key string

	// Data is the value to store (ms only). The size is len(Data).
	Data []byte

	Flags Flags
}

// NewRequest creates a request. Use the Add* methods to add flags:
//
//	req := NewRequest(CmdGet, "mykey", nil).AddReturnValue().AddReturnCAS()
func NewRequest(cmd CmdType, key string, data []byte) *Request {
	return &Request{
		Command: cmd,
		Key:     key,
		Data:    data,
	}
}

func (r *Request) AddOpaque(token string) *Request { r.Flags.AddToken(FlagOpaque, token); return r }
func (r *Request) AddQuiet() *Request              { r.Flags.Add(FlagQuiet); return r }
func (r *Request) AddReturnKey() *Request          { r.Flags.Add(FlagReturnKey); return r }
func (r *Request) AddReturnValue() *Request        { r.Flags.Add(FlagReturnValue); return r }
func (r *Request) AddReturnCAS() *Request          { r.Flags.Add(FlagReturnCAS); return r }
func (r *Request) AddReturnTTL() *Request          { r.Flags.Add(FlagReturnTTL); return r }
func (r *Request) AddCAS(cas uint64) *Request      { r.Flags.AddUint(FlagCAS, cas); return r }
func (r *Request) AddDelta(delta uint64) *Request  { r.Flags.AddUint(FlagDelta, delta); return r }
func (r *Request) AddMode(mode string) *Request    { r.Flags.AddToken(FlagMode, mode); return r }

func (r *Request) AddTTL(ttl time.Duration) *Request {
	r.Flags.AddInt(FlagTTL, int64(ttl/time.Second))
	return r
}

// ValidateKey checks that key is 1-250 bytes without whitespace, unless the
// key is base64-encoded.
func ValidateKey(key string, base64Key bool) error {
	switch {
	case len(key) < MinKeyLength:
		return &InvalidKeyError{Message: "key is empty"}
	case len(key) > MaxKeyLength:
		return &InvalidKeyError{Message: "key exceeds maximum length of 250 bytes"}
	case !base64Key && strings.ContainsAny(key, " \t\r\n"):
		return &InvalidKeyError{Message: "key contains whitespace"}
	}
	return nil
}

// AppendRequest appends the wire form of req to dst:
//
//	<command> <key> [<size>] <flags>*\r\n[<data>\r\n]
//
// The key is validated first; dst is returned unchanged on error.
func AppendRequest(dst []byte, req *Request) ([]byte, error) {
	if req.Command == CmdNoOp {
		dst = append(dst, CmdNoOp...)
		return append(dst, CRLF...), nil
	}

	if err := ValidateKey(req.Key, req.Flags.Has(FlagBase64Key)); err != nil {
		return dst, err
	}

	dst = append(dst, req.Command...)
	dst = append(dst, ' ')
	dst = append(dst, req.Key...)
	if req.Command == CmdSet {
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(len(req.Data)), 10)
	}
	dst = append(dst, req.Flags...)
	dst = append(dst, CRLF...)

	if req.Command == CmdSet {
		dst = append(dst, req.Data...)
		dst = append(dst, CRLF...)
	}
	return dst, nil
}
