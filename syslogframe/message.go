// Package syslogframe frames syslog messages carried over a stream transport
// (RFC 6587) and parses them with RFC 5424, falling back to RFC 3164.
//
// Two framings are supported:
//
//   - OctetCounting: "MSG-LEN SP SYSLOG-MSG", the length in ASCII digits
//   - NonTransparent: messages terminated by a trailer byte, LF by default
//
// Both implement framing.Rule[Message].
package syslogframe

import (
	"errors"
	"fmt"

	"github.com/influxdata/go-syslog/v3"
	"github.com/influxdata/go-syslog/v3/rfc3164"
	"github.com/influxdata/go-syslog/v3/rfc5424"
)

// DefaultMaxLength bounds a message when no MaxLength is configured.
const DefaultMaxLength = 64 * 1024

var (
	ErrInvalidLength = errors.New("syslogframe: invalid octet count")
	ErrTooLong       = errors.New("syslogframe: message too long")
	ErrTruncated     = errors.New("syslogframe: truncated message at end of stream")
)

// Message is one framed syslog message.
type Message struct {
	// Raw is the message as framed, length prefix or trailer removed.
	Raw []byte

	// Syslog is the parsed message, nil in raw mode or when parsing failed.
	Syslog syslog.Message

	// ParseErr is set when the frame is not valid RFC 5424 nor RFC 3164 and
	// the rule is not strict.
	ParseErr error
}

// Text returns the MSG part of a parsed message, or Raw when none is
// available.
func (m Message) Text() string {
	switch msg := m.Syslog.(type) {
	case *rfc5424.SyslogMessage:
		if msg.Message != nil {
			return *msg.Message
		}
	case *rfc3164.SyslogMessage:
		if msg.Message != nil {
			return *msg.Message
		}
	}
	return string(m.Raw)
}

// Hostname returns the HOSTNAME field of a parsed message.
func (m Message) Hostname() string {
	switch msg := m.Syslog.(type) {
	case *rfc5424.SyslogMessage:
		if msg.Hostname != nil {
			return *msg.Hostname
		}
	case *rfc3164.SyslogMessage:
		if msg.Hostname != nil {
			return *msg.Hostname
		}
	}
	return ""
}

// Appname returns the APP-NAME (RFC 5424) or TAG (RFC 3164) field.
func (m Message) Appname() string {
	switch msg := m.Syslog.(type) {
	case *rfc5424.SyslogMessage:
		if msg.Appname != nil {
			return *msg.Appname
		}
	case *rfc3164.SyslogMessage:
		if msg.Appname != nil {
			return *msg.Appname
		}
	}
	return ""
}

// Options control what the rules do with a framed message.
type Options struct {
	// Raw skips parsing: messages only carry Raw.
	Raw bool

	// Strict fails the stream on a message that does not parse, instead of
	// delivering it with ParseErr set.
	Strict bool

	// BestEffort accepts partially parsed RFC 3164 messages.
	BestEffort bool
}

// parser tries RFC 5424 first, then RFC 3164. Machines are created on first
// use and reused for the stream. Best effort only applies to the RFC 3164
// fallback.
type parser struct {
	rfc5424 syslog.Machine
	rfc3164 syslog.Machine
}

func (p *parser) parse(data []byte, bestEffort bool) (syslog.Message, error) {
	if p.rfc5424 == nil {
		p.rfc5424 = rfc5424.NewParser()
		if bestEffort {
			p.rfc3164 = rfc3164.NewParser(rfc3164.WithBestEffort())
		} else {
			p.rfc3164 = rfc3164.NewParser()
		}
	}

	msg, err := p.rfc5424.Parse(data)
	if err == nil {
		return msg, nil
	}
	msg, err3164 := p.rfc3164.Parse(data)
	if err3164 == nil || (bestEffort && msg != nil) {
		return msg, nil
	}
	return nil, fmt.Errorf("syslogframe: not RFC 5424 (%v) nor RFC 3164 (%w)", err, err3164)
}

// message turns a frame into a Message according to opts.
func (p *parser) message(raw []byte, opts Options) (Message, error) {
	m := Message{Raw: raw}
	if opts.Raw {
		return m, nil
	}

	m.Syslog, m.ParseErr = p.parse(raw, opts.BestEffort)
	if m.ParseErr != nil && opts.Strict {
		return Message{}, m.ParseErr
	}
	return m, nil
}
