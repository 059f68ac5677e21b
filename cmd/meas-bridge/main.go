// Command meas-bridge polls instruments on cron schedules and forwards the
// readings to a local history and an MQTT broker.
//
// Usage:
//
//	meas-bridge -config bridge.yaml
//	meas-bridge -config bridge.yaml -once
//	meas-bridge -config bridge.yaml -history cryo/Kelvin -since 24h
//
// See package bridge for the configuration file format.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/bridge"
	"github.com/ogameasure/ogameasure-go/pkg/log"
	"github.com/ogameasure/ogameasure-go/pkg/store"
)

var (
	configFile  = flag.String("config", "", "Bridge YAML configuration (required)")
	once        = flag.Bool("once", false, "Poll every job once, print the readings and exit")
	history     = flag.String("history", "", "Print stored readings of <instrument>/<command> and exit")
	since       = flag.Duration("since", 24*time.Hour, "History window for -history")
	jsonOut     = flag.Bool("json", false, "Print readings as JSON lines")
	protocolLog = flag.String("protocol-log", "", "Write a capture file readable by meas-log")
	logMaxMB    = flag.Int64("protocol-log-max-mb", 64, "Rotate the capture file past this size (0 disables)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -config required")
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))

	if err := run(logger); err != nil {
		logger.Error("meas-bridge failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	config, err := bridge.LoadConfig(*configFile)
	if err != nil {
		return err
	}

	if *history != "" {
		return printHistory(os.Stdout, config.Store, *history, time.Now().Add(-*since), time.Now(), *jsonOut)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := bridge.Options{Logger: logger}
	if *protocolLog != "" {
		fl, err := log.NewFileLogger(*protocolLog, log.WithMaxBytes(*logMaxMB<<20))
		if err != nil {
			return fmt.Errorf("protocol log: %w", err)
		}
		defer func() {
			if n := fl.Dropped(); n > 0 {
				logger.Warn("capture events dropped", "count", n)
			}
			fl.Close()
		}()
		opts.Capture = fl
	}

	b, err := bridge.Open(ctx, config, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("close", "error", err)
		}
	}()

	if *once {
		for _, r := range b.Poller().PollAll() {
			printReading(os.Stdout, r, *jsonOut)
		}
		return nil
	}

	logger.Info("bridge running", "instruments", len(config.Instruments))
	err = b.Run(ctx)
	logger.Info("bridge stopped")
	return err
}

func printHistory(w io.Writer, path, selector string, from, to time.Time, asJSON bool) error {
	if path == "" {
		return fmt.Errorf("no store configured")
	}
	inst, name, ok := strings.Cut(selector, "/")
	if !ok || inst == "" || name == "" {
		return fmt.Errorf("history selector %q must be <instrument>/<command>", selector)
	}

	s, err := store.Open(path, store.DefaultConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	readings, err := s.Range(inst, name, from, to)
	if err != nil {
		return err
	}
	for _, r := range readings {
		printReading(w, r, asJSON)
	}
	return nil
}

// printReading writes r as one line of text or JSON.
func printReading(w io.Writer, r store.Reading, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(w).Encode(r)
		return
	}
	fmt.Fprintln(w, formatReading(r))
}

func formatReading(r store.Reading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", r.Time.Format(time.RFC3339), r.Instrument, r.Name)
	if len(r.Args) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(r.Args, ","))
	}
	if r.OK() {
		fmt.Fprintf(&b, " = %v", r.Value)
	} else {
		fmt.Fprintf(&b, " error: %s", r.Error)
	}
	return b.String()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
