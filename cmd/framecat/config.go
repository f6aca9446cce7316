package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pior/framing"
	"github.com/rs/zerolog"
)

var ruleNames = []string{"line", "length", "fixed", "delimiter", "checksum", "meta", "syslog"}

type config struct {
	Rule        string `toml:"rule"`
	MaxBuffered int    `toml:"max_buffered"`
	ReadBuffer  int    `toml:"read_buffer"`

	MaxLength     int    `toml:"max_length"`
	Delimiter     string `toml:"delimiter"`
	FixedSize     int    `toml:"fixed_size"`
	LengthWidth   int    `toml:"length_width"`
	LengthOrder   string `toml:"length_order"`
	SyslogFraming string `toml:"syslog_framing"`

	Connect     string `toml:"connect"`
	Listen      string `toml:"listen"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

func defaultConfig() config {
	return config{
		Rule:          "line",
		MaxBuffered:   1 << 20,
		ReadBuffer:    framing.DefaultReadBufferSize,
		Delimiter:     "\r\n",
		FixedSize:     16,
		LengthWidth:   4,
		LengthOrder:   "big",
		SyslogFraming: "octet-counting",
		LogLevel:      "info",
	}
}

// loadConfig reads a TOML file over the defaults. Keys absent from the file
// keep their default.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw config
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	set := func(key string, apply func()) {
		if md.IsDefined(key) {
			apply()
		}
	}
	set("rule", func() { cfg.Rule = strings.TrimSpace(raw.Rule) })
	set("max_buffered", func() { cfg.MaxBuffered = raw.MaxBuffered })
	set("read_buffer", func() { cfg.ReadBuffer = raw.ReadBuffer })
	set("max_length", func() { cfg.MaxLength = raw.MaxLength })
	set("delimiter", func() { cfg.Delimiter = raw.Delimiter })
	set("fixed_size", func() { cfg.FixedSize = raw.FixedSize })
	set("length_width", func() { cfg.LengthWidth = raw.LengthWidth })
	set("length_order", func() { cfg.LengthOrder = strings.TrimSpace(raw.LengthOrder) })
	set("syslog_framing", func() { cfg.SyslogFraming = strings.TrimSpace(raw.SyslogFraming) })
	set("connect", func() { cfg.Connect = strings.TrimSpace(raw.Connect) })
	set("listen", func() { cfg.Listen = strings.TrimSpace(raw.Listen) })
	set("metrics_addr", func() { cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr) })
	set("log_level", func() { cfg.LogLevel = strings.TrimSpace(raw.LogLevel) })

	return cfg, nil
}

func (c config) Validate() error {
	known := false
	for _, name := range ruleNames {
		if c.Rule == name {
			known = true
		}
	}
	switch {
	case !known:
		return fmt.Errorf("unknown rule %q (want one of %s)", c.Rule, strings.Join(ruleNames, ", "))
	case c.MaxBuffered < 0:
		return fmt.Errorf("max_buffered must be >= 0")
	case c.ReadBuffer <= 0:
		return fmt.Errorf("read_buffer must be > 0")
	case c.Connect != "" && c.Listen != "":
		return fmt.Errorf("connect and listen are mutually exclusive")
	case c.Rule == "delimiter" && c.Delimiter == "":
		return fmt.Errorf("delimiter must not be empty")
	case c.Rule == "fixed" && c.FixedSize <= 0:
		return fmt.Errorf("fixed_size must be > 0")
	case c.LengthOrder != "big" && c.LengthOrder != "little":
		return fmt.Errorf("length_order must be big or little")
	case c.SyslogFraming != "octet-counting" && c.SyslogFraming != "non-transparent":
		return fmt.Errorf("syslog_framing must be octet-counting or non-transparent")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

func (c config) processorConfig() framing.Config {
	cfg := framing.DefaultConfig()
	cfg.MaxBufferedBytes = c.MaxBuffered
	return cfg
}
