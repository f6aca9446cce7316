// Command framecat decodes a framed byte stream and prints one line per
// frame.
//
// The stream is read from stdin, from a dialled TCP connection (--connect)
// or from every connection accepted on a listener (--listen).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pior/framing/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "framecat: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var configPath string
	flags := defaultConfig()

	cmd := &cobra.Command{
		Use:   "framecat",
		Short: "Decode a framed byte stream and print its frames",
		Long: `framecat splits a byte stream into frames and prints one line per frame.

Rules: ` + strings.Join(ruleNames, ", ") + `.
Byte frames are printed quoted. Settings are read from --config (TOML) and
overridden by flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return execute(ctx, cfg, stdin, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "TOML configuration file")
	f.StringVar(&flags.Rule, "rule", flags.Rule, "framing rule: "+strings.Join(ruleNames, "|"))
	f.IntVar(&flags.MaxBuffered, "max-buffered", flags.MaxBuffered, "maximum unconsumed bytes per stream, 0 for unbounded")
	f.IntVar(&flags.ReadBuffer, "read-buffer", flags.ReadBuffer, "size of network and stdin reads")
	f.IntVar(&flags.MaxLength, "max-length", flags.MaxLength, "maximum frame length, 0 for the rule default")
	f.StringVar(&flags.Delimiter, "delimiter", flags.Delimiter, "delimiter for the delimiter rule")
	f.IntVar(&flags.FixedSize, "fixed-size", flags.FixedSize, "frame size for the fixed rule")
	f.IntVar(&flags.LengthWidth, "length-width", flags.LengthWidth, "length field width for the length rule: 1, 2, 4 or 8")
	f.StringVar(&flags.LengthOrder, "length-order", flags.LengthOrder, "length field byte order: big or little")
	f.StringVar(&flags.SyslogFraming, "syslog-framing", flags.SyslogFraming, "syslog framing: octet-counting or non-transparent")
	f.StringVar(&flags.Connect, "connect", "", "read from a TCP connection to this address")
	f.StringVar(&flags.Listen, "listen", "", "accept TCP connections on this address")
	f.StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level")
	return cmd
}

// applyFlags copies the flags set on the command line over cfg.
func applyFlags(cmd *cobra.Command, cfg *config, flags config) {
	changed := cmd.Flags().Changed
	if changed("rule") {
		cfg.Rule = flags.Rule
	}
	if changed("max-buffered") {
		cfg.MaxBuffered = flags.MaxBuffered
	}
	if changed("read-buffer") {
		cfg.ReadBuffer = flags.ReadBuffer
	}
	if changed("max-length") {
		cfg.MaxLength = flags.MaxLength
	}
	if changed("delimiter") {
		cfg.Delimiter = flags.Delimiter
	}
	if changed("fixed-size") {
		cfg.FixedSize = flags.FixedSize
	}
	if changed("length-width") {
		cfg.LengthWidth = flags.LengthWidth
	}
	if changed("length-order") {
		cfg.LengthOrder = flags.LengthOrder
	}
	if changed("syslog-framing") {
		cfg.SyslogFraming = flags.SyslogFraming
	}
	if changed("connect") {
		cfg.Connect = flags.Connect
	}
	if changed("listen") {
		cfg.Listen = flags.Listen
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.MetricsAddr
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "framecat").Logger()
}

func execute(ctx context.Context, cfg config, stdin io.Reader, stdout, stderr io.Writer) error {
	r := &runner{
		ctx:       ctx,
		cfg:       cfg,
		logger:    newLogger(stderr, cfg.LogLevel),
		in:        stdin,
		out:       stdout,
		collector: metrics.NewProcessorCollector(),
	}

	if cfg.MetricsAddr != "" {
		exporter, err := metrics.NewExporter(r.collector)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", exporter.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		r.logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	r.logger.Debug().Str("rule", cfg.Rule).Int("max_buffered", cfg.MaxBuffered).Msg("starting")
	return dispatch(cfg, r)
}
