package meta

import "strconv"

// Flags is a serialized representation of meta protocol flags: the exact
// bytes that follow the key (or the VA size) on the wire, leading spaces
// included, e.g. " v c t" or " T60 Oopaque".
//
// The zero value is ready to use. Lookups are linear scans; flags are short.
type Flags []byte

func (f Flags) IsEmpty() bool {
	return len(f) == 0
}

func (f Flags) Clone() Flags {
	return append(Flags(nil), f...)
}

func (f *Flags) Add(flagType FlagType) {
	*f = append(*f, ' ', byte(flagType))
}

func (f *Flags) AddToken(flagType FlagType, token string) {
	*f = append(*f, ' ', byte(flagType))
	*f = append(*f, token...)
}

func (f *Flags) AddInt(flagType FlagType, value int64) {
	*f = append(*f, ' ', byte(flagType))
	*f = strconv.AppendInt(*f, value, 10)
}

func (f *Flags) AddUint(flagType FlagType, value uint64) {
	*f = append(*f, ' ', byte(flagType))
	*f = strconv.AppendUint(*f, value, 10)
}

func (f Flags) Has(flagType FlagType) bool {
	_, ok := f.Get(flagType)
	return ok
}

// Get returns the token value for the first flag of the given type.
//
// ok is true if the flag is present.
// token is nil if the flag is present but has no token.
func (f Flags) Get(flagType FlagType) (token []byte, ok bool) {
	for i := 0; i < len(f); {
		i = skipSpaces(f, i)
		if i >= len(f) {
			return nil, false
		}

		t := FlagType(f[i])
		i++

		start := i
		for i < len(f) && f[i] != ' ' {
			i++
		}

		if t == flagType {
			if start == i {
				return nil, true
			}
			return f[start:i], true
		}
	}
	return nil, false
}

// Uint returns the token of flagType parsed as an unsigned integer.
func (f Flags) Uint(flagType FlagType) (uint64, bool) {
	token, ok := f.Get(flagType)
	if !ok || len(token) == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(string(token), 10, 64)
	return v, err == nil
}

func skipSpaces(b []byte, idx int) int {
	for idx < len(b) && b[idx] == ' ' {
		idx++
	}
	return idx
}
