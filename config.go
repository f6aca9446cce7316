package framing

import "fmt"

const (
	DefaultInitialCapacity  = 4 * 1024
	DefaultCompactThreshold = 1024
	DefaultShrinkThreshold  = 64 * 1024
)

// Config holds the memory policy of a Processor.
// Zero fields are replaced by their defaults.
type Config struct {
	// MaxBufferedBytes is the ceiling on unconsumed bytes retained once a
	// Process call has decoded everything it can. It bounds the backlog, not
	// the size of a chunk or of a message.
	// Zero means unbounded.
	MaxBufferedBytes int

	// InitialCapacity is the size of the buffer allocated on the first byte.
	// A first chunk larger than this is allocated at its own size.
	InitialCapacity int

	// CompactThreshold is the buffer capacity from which consumed bytes are
	// reclaimed by moving the unconsumed bytes to the front. Compaction only
	// happens when the consumed bytes outnumber the unconsumed ones.
	CompactThreshold int

	// ShrinkThreshold is the buffer capacity above which an oversized buffer
	// is reallocated smaller once the backlog has drained.
	ShrinkThreshold int
}

// DefaultConfig returns the default processor configuration: unbounded
// backlog, 4KiB initial buffer.
func DefaultConfig() Config {
	return Config{
		InitialCapacity:  DefaultInitialCapacity,
		CompactThreshold: DefaultCompactThreshold,
		ShrinkThreshold:  DefaultShrinkThreshold,
	}
}

// Validate rejects negative values.
func (c Config) Validate() error {
	switch {
	case c.MaxBufferedBytes < 0:
		return fmt.Errorf("framing: negative MaxBufferedBytes: %d", c.MaxBufferedBytes)
	case c.InitialCapacity < 0:
		return fmt.Errorf("framing: negative InitialCapacity: %d", c.InitialCapacity)
	case c.CompactThreshold < 0:
		return fmt.Errorf("framing: negative CompactThreshold: %d", c.CompactThreshold)
	case c.ShrinkThreshold < 0:
		return fmt.Errorf("framing: negative ShrinkThreshold: %d", c.ShrinkThreshold)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.InitialCapacity == 0 {
		c.InitialCapacity = DefaultInitialCapacity
	}
	if c.CompactThreshold == 0 {
		c.CompactThreshold = DefaultCompactThreshold
	}
	if c.ShrinkThreshold == 0 {
		c.ShrinkThreshold = DefaultShrinkThreshold
	}
	return c
}
