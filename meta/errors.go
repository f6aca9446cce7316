package meta

// Error types for meta protocol responses.
//
// Protocol errors sent by the server (CLIENT_ERROR, SERVER_ERROR, ERROR) are
// carried in Response.Error and do not fail the stream. ParseError fails the
// stream: ResponseRule returns it and the processor reports it as a
// malformed frame. All of them implement ShouldCloseConnection, so
// framing.ShouldCloseConnection decides what to do with the connection.

// ClientError represents a CLIENT_ERROR response.
// The server rejected the request and its parser state is unknown.
//
// Connection handling: CLOSE connection immediately
type ClientError struct {
	Message string
}

func (e *ClientError) Error() string {
	return "CLIENT_ERROR: " + e.Message
}

// ShouldCloseConnection returns true - client errors require closing connection
func (e *ClientError) ShouldCloseConnection() bool {
	return true
}

// ServerError represents a SERVER_ERROR response, e.g. out of memory.
//
// Connection handling: Connection can be REUSED, operation may be retried
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "SERVER_ERROR: " + e.Message
}

// ShouldCloseConnection returns false - server errors don't corrupt protocol state
func (e *ServerError) ShouldCloseConnection() bool {
	return false
}

// GenericError represents an ERROR response: unknown command or protocol
// violation.
//
// Connection handling: Connection should be CLOSED as protocol state is uncertain
type GenericError struct {
	Message string
}

func (e *GenericError) Error() string {
	return e.Message
}

// ShouldCloseConnection returns true - generic errors indicate protocol issues
func (e *GenericError) ShouldCloseConnection() bool {
	return true
}

// InvalidKeyError is returned by AppendRequest when a key fails validation.
// Nothing was sent.
type InvalidKeyError struct {
	Message string
}

func (e *InvalidKeyError) Error() string {
	return e.Message
}

// ShouldCloseConnection returns false - the request was rejected client-side
func (e *InvalidKeyError) ShouldCloseConnection() bool {
	return false
}

// ParseError is returned when a response cannot be parsed: malformed line,
// bad VA size, missing data terminator, line or value over the configured
// limit, or a stream ending in the middle of a response.
//
// Connection handling: Connection should be CLOSED as state is uncertain
type ParseError struct {
	Message string
	Err     error // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "parse error: " + e.Message + ": " + e.Err.Error()
	}
	return "parse error: " + e.Message
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - parse errors indicate corrupted state
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}
