package meta

// CmdType is a meta protocol command.
type CmdType string

// FlagType is a single character flag identifier.
type FlagType byte

// StatusType is a response status code.
type StatusType string

const (
	CRLF  = "\r\n"
	Space = " "
)

// Commands
const (
	CmdGet        CmdType = "mg" // mg <key> <flags>*\r\n
	CmdSet        CmdType = "ms" // ms <key> <size> <flags>*\r\n<data>\r\n
	CmdDelete     CmdType = "md" // md <key> <flags>*\r\n
	CmdArithmetic CmdType = "ma" // ma <key> <flags>*\r\n
	CmdDebug      CmdType = "me" // me <key>\r\n
	CmdNoOp       CmdType = "mn" // mn\r\n, answered by MN
)

// Response statuses
const (
	StatusHD StatusType = "HD" // success, no value
	StatusVA StatusType = "VA" // success, value follows: VA <size> <flags>*\r\n<data>\r\n
	StatusEN StatusType = "EN" // miss
	StatusNF StatusType = "NF" // not found
	StatusNS StatusType = "NS" // not stored
	StatusEX StatusType = "EX" // CAS mismatch
	StatusMN StatusType = "MN" // no-op marker
	StatusME StatusType = "ME" // debug: ME <key> <key>=<value>*\r\n
)

// Non-meta error responses
const (
	ErrorGeneric      = "ERROR"
	ErrorClientPrefix = "CLIENT_ERROR" // connection must be closed
	ErrorServerPrefix = "SERVER_ERROR" // connection can be reused
)

// Request flags
const (
	FlagBase64Key   FlagType = 'b'
	FlagReturnKey   FlagType = 'k'
	FlagOpaque      FlagType = 'O' // O<token>, echoed back, max 32 bytes
	FlagQuiet       FlagType = 'q' // suppresses HD, EN, NF
	FlagReturnCAS   FlagType = 'c'
	FlagReturnFlags FlagType = 'f'
	FlagReturnSize  FlagType = 's'
	FlagReturnTTL   FlagType = 't'
	FlagReturnValue FlagType = 'v' // turns HD into VA
	FlagReturnHit   FlagType = 'h'
	FlagCAS         FlagType = 'C' // C<cas>, EX on mismatch
	FlagTTL         FlagType = 'T' // T<seconds>
	FlagClientFlags FlagType = 'F' // F<uint32>
	FlagMode        FlagType = 'M' // M<mode>
	FlagDelta       FlagType = 'D' // D<delta> for ma
)

// Response-only flags
const (
	FlagWin        FlagType = 'W' // exclusive right to recache
	FlagStale      FlagType = 'X'
	FlagAlreadyWon FlagType = 'Z'
)

// Storage and arithmetic modes, used with FlagMode.
const (
	ModeSet       = "S"
	ModeAdd       = "E"
	ModeReplace   = "R"
	ModeAppend    = "A"
	ModePrepend   = "P"
	ModeIncrement = "I"
	ModeDecrement = "D"
)

// Protocol limits
const (
	MinKeyLength    = 1
	MaxKeyLength    = 250
	MaxOpaqueLength = 32

	// MaxValueSize is the default largest value accepted in a VA response.
	MaxValueSize = 1024 * 1024

	// MaxLineLength is the default longest response line, CRLF excluded.
	// Lines carry a status, a size and a handful of flags.
	MaxLineLength = 2048
)
