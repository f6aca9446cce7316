// Package meta frames and parses Memcached Meta Protocol (1.6+) responses
// from an arbitrarily chunked byte stream.
//
// # Core Types
//
//   - ResponseRule: a framing.Rule[*Response] turning bytes into responses
//   - Response: a parsed response (status, flags, data, protocol error)
//   - Request and AppendRequest: build the commands that produce responses
//   - Flags: serialized flags, shared by requests and responses
//
// # Parsing
//
// ResponseRule is driven by a framing.Processor, one per connection:
//
//	p, err := framing.NewProcessor[*meta.Response](&meta.ResponseRule{}, framing.Config{})
//	if err != nil {
//	    return err
//	}
//	err = p.Process(chunk, func(resp *meta.Response) {
//	    if resp.HasValue() {
//	        use(resp.Data)
//	    }
//	})
//
// Response data is owned by the Response and stays valid after the sink
// returns.
//
// # Pipelining
//
// Requests can be written back to back, closed by a no-op; responses come
// back in order and the MN marker ends the batch:
//
//	var wire []byte
//	wire, _ = meta.AppendRequest(wire, meta.NewRequest(meta.CmdGet, "a", nil).AddReturnValue().AddQuiet())
//	wire, _ = meta.AppendRequest(wire, meta.NewRequest(meta.CmdGet, "b", nil).AddReturnValue().AddQuiet())
//	wire, _ = meta.AppendRequest(wire, meta.NewRequest(meta.CmdNoOp, "", nil))
//
// # Error Handling
//
// Errors carry the connection state:
//
//   - ClientError: protocol state corrupted, CLOSE connection
//   - ServerError: server-side error, connection can be REUSED
//   - GenericError: unknown command or protocol issue, CLOSE connection
//   - ParseError: unparseable response, CLOSE connection
//   - InvalidKeyError: request rejected before sending, connection untouched
//
// The first three arrive in Response.Error. ParseError fails the processor.
// framing.ShouldCloseConnection works on all of them.
package meta
