package meta

import "strings"

// Response is a parsed meta protocol response.
type Response struct {
	// Status is the 2-character response code: HD, VA, EN, NF, NS, EX, MN, ME.
	// Empty when Error is set.
	Status StatusType

	// Data is the value of a VA response, or the key=value pairs of an ME
	// response (see ParseDebugParams). Owned by the Response.
	Data []byte

	// Flags holds the returned flags in wire order.
	Flags Flags

	// Error is set for non-meta error responses: ERROR, CLIENT_ERROR, SERVER_ERROR.
	Error error
}

// IsSuccess returns true for HD, VA, MN and ME.
func (r *Response) IsSuccess() bool {
	switch r.Status {
	case StatusHD, StatusVA, StatusMN, StatusME:
		return true
	default:
		return false
	}
}

// IsMiss returns true for EN and NF.
func (r *Response) IsMiss() bool {
	return r.Status == StatusEN || r.Status == StatusNF
}

// IsNotStored returns true for NS.
func (r *Response) IsNotStored() bool {
	return r.Status == StatusNS
}

// IsCASMismatch returns true for EX, a CAS token that no longer matches.
func (r *Response) IsCASMismatch() bool {
	return r.Status == StatusEX
}

// IsNoOp returns true for the MN marker closing a pipeline.
func (r *Response) IsNoOp() bool {
	return r.Status == StatusMN
}

// HasValue returns true when a VA response carried a data block.
func (r *Response) HasValue() bool {
	return r.Status == StatusVA && r.Data != nil
}

// HasError returns true for ERROR, CLIENT_ERROR and SERVER_ERROR responses.
func (r *Response) HasError() bool {
	return r.Error != nil
}

// HasFlag returns true if the response carries the flag.
func (r *Response) HasFlag(flagType FlagType) bool {
	return r.Flags.Has(flagType)
}

// Opaque returns the O flag token echoed by the server.
func (r *Response) Opaque() (string, bool) {
	token, ok := r.Flags.Get(FlagOpaque)
	return string(token), ok
}

// CAS returns the c flag value.
func (r *Response) CAS() (uint64, bool) {
	return r.Flags.Uint(FlagReturnCAS)
}

func (r *Response) HasWinFlag() bool        { return r.HasFlag(FlagWin) }
func (r *Response) HasStaleFlag() bool      { return r.HasFlag(FlagStale) }
func (r *Response) HasAlreadyWonFlag() bool { return r.HasFlag(FlagAlreadyWon) }

// ParseDebugParams parses the key=value pairs of an ME response.
// Entries without '=' are skipped.
//
//	params := ParseDebugParams([]byte("exp=-1 la=3 size=5"))
//	// params["size"] == "5"
func ParseDebugParams(data []byte) map[string]string {
	params := make(map[string]string)
	for _, part := range strings.Fields(string(data)) {
		if key, value, found := strings.Cut(part, "="); found {
			params[key] = value
		}
	}
	return params
}
