// Package log provides structured protocol capture for instrument links.
//
// This package defines the Logger interface and Event types for recording
// what crosses an instrument link at three layers: raw transport bytes,
// dispatched commands, and driver-level state changes. It is separate from
// operational logging (slog); a capture is a complete machine-readable trace
// for debugging a bench setup after the fact.
//
// # Basic Usage
//
// Transports and devices accept a Logger:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For unattended runs: write to a capture file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/ogameasure/bench.mlog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw bytes written or read (FrameEvent)
//   - Command: a command line and its reply (CommandEvent)
//   - Driver: open/close and adapter mode changes (StateChangeEvent)
//
// GPIB adapter directives (++addr, ++read) and errors have dedicated
// event types.
//
// # File Format
//
// Capture files use CBOR encoding with the .mlog extension. WithMaxBytes
// rotates a long capture to <path>.1; NewRotatedReader reads both
// generations in order. A record cut short by an interrupted run ends the
// file and is reported by Reader.Truncated. The meas-log tool provides
// viewing, filtering, and export.
package log
