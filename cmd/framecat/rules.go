package main

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pior/framing"
	"github.com/pior/framing/meta"
	"github.com/pior/framing/rules"
	"github.com/pior/framing/syslogframe"
)

// decoder pairs a rule factory with the rendering of its messages.
type decoder[M any] struct {
	newRule func() framing.Rule[M]
	format  func(M) string
}

func bytesDecoder(newRule func() framing.Rule[[]byte]) decoder[[]byte] {
	return decoder[[]byte]{
		newRule: newRule,
		format:  func(b []byte) string { return fmt.Sprintf("%q", b) },
	}
}

func formatResponse(resp *meta.Response) string {
	if resp.HasError() {
		return resp.Error.Error()
	}
	var b strings.Builder
	b.WriteString(string(resp.Status))
	b.Write(resp.Flags)
	if resp.HasValue() {
		fmt.Fprintf(&b, " %q", resp.Data)
	}
	return b.String()
}

func formatSyslog(m syslogframe.Message) string {
	if m.ParseErr != nil {
		return fmt.Sprintf("%q (unparsed: %v)", m.Raw, m.ParseErr)
	}
	return fmt.Sprintf("host=%s app=%s msg=%q", m.Hostname(), m.Appname(), m.Text())
}

func byteOrder(name string) binary.ByteOrder {
	if name == "little" {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// dispatch calls run with the decoder matching cfg.Rule.
func dispatch(cfg config, r *runner) error {
	switch cfg.Rule {
	case "line":
		return run(r, bytesDecoder(func() framing.Rule[[]byte] {
			return &rules.Line{MaxLength: cfg.MaxLength}
		}))
	case "delimiter":
		return run(r, bytesDecoder(func() framing.Rule[[]byte] {
			return &rules.Delimiter{Delim: []byte(cfg.Delimiter), MaxLength: cfg.MaxLength}
		}))
	case "fixed":
		return run(r, bytesDecoder(func() framing.Rule[[]byte] {
			return &rules.FixedLength{Size: cfg.FixedSize}
		}))
	case "length":
		return run(r, bytesDecoder(func() framing.Rule[[]byte] {
			return &rules.LengthField{
				Width:          cfg.LengthWidth,
				Order:          byteOrder(cfg.LengthOrder),
				Strip:          true,
				MaxFrameLength: cfg.MaxLength,
			}
		}))
	case "checksum":
		return run(r, bytesDecoder(func() framing.Rule[[]byte] {
			return &rules.Checksum{MaxPayload: cfg.MaxLength}
		}))
	case "meta":
		return run(r, decoder[*meta.Response]{
			newRule: func() framing.Rule[*meta.Response] { return &meta.ResponseRule{} },
			format:  formatResponse,
		})
	case "syslog":
		newRule := func() framing.Rule[syslogframe.Message] {
			return &syslogframe.OctetCounting{MaxLength: cfg.MaxLength}
		}
		if cfg.SyslogFraming == "non-transparent" {
			newRule = func() framing.Rule[syslogframe.Message] {
				return &syslogframe.NonTransparent{MaxLength: cfg.MaxLength}
			}
		}
		return run(r, decoder[syslogframe.Message]{newRule: newRule, format: formatSyslog})
	}
	return fmt.Errorf("unknown rule %q", cfg.Rule)
}
