// Package bbl decodes Betaflight blackbox logs (raw SD-card dumps and
// flash-chip dumps alike) into per-session flight-data time series.
//
// It is a thin entry point over the session package, in the same spirit as
// the teacher package's top-level flac.go sits over frame and meta: the real
// work happens in the sub-packages (reader, header, decode, session); this
// file just wires them together behind Parse/ParseWithOptions.
package bbl

import (
	"time"

	"github.com/flightlog/bblcore/session"
)

// Re-exported so callers never need to import the session package directly.
type (
	Session       = session.Session
	FlightData    = session.FlightData
	TimeSeries    = session.TimeSeries
	ProgressEvent = session.ProgressEvent
)

// Sentinel errors for the two ways a parse can fail outright. A fatal error
// yields no ParseResult at all; anything short of that yields a ParseResult
// whose Success/Error fields describe the outcome instead.
var (
	ErrEmptyInput    = session.ErrEmptyInput
	ErrNoValidHeader = session.ErrNoValidHeader
)

// Options configures an optional progress callback and cooperative
// cancellation hook for a parse.
type Options struct {
	// Progress, when set, is called at roughly 16 KiB byte-processed
	// intervals across the whole input.
	Progress func(ProgressEvent)
	// ShouldCancel, when set, is polled periodically during the frame loop;
	// returning true aborts the current session's decode and stops scanning
	// for further sessions, returning whatever sessions already completed.
	ShouldCancel func() bool
}

// ParseResult is the outcome of decoding one input buffer, which may contain
// several concatenated logging sessions.
type ParseResult struct {
	Sessions    []Session
	FileSize    int
	ParseTimeMs int64
	Success     bool
	Error       string
}

// Parse decodes buf with default options.
func Parse(buf []byte) (*ParseResult, error) {
	return ParseWithOptions(buf, Options{})
}

// ParseWithOptions decodes buf, reporting progress and honoring cancellation
// through opts.
//
// A nil error with a non-nil result always means at least the scan
// completed; Success distinguishes "produced usable flight data" from "found
// sessions but none decoded cleanly enough to keep". A non-nil error means
// the input could not even be scanned for sessions (ErrEmptyInput,
// ErrNoValidHeader) and no result is returned.
func ParseWithOptions(buf []byte, opts Options) (*ParseResult, error) {
	start := time.Now()
	sessions, err := session.Run(buf, session.Options{
		Progress:     opts.Progress,
		ShouldCancel: opts.ShouldCancel,
	})
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Sessions:    sessions,
		FileSize:    len(buf),
		ParseTimeMs: time.Since(start).Milliseconds(),
		Success:     len(sessions) > 0,
	}
	if !result.Success {
		result.Error = "no parseable flight data found"
	}
	return result, nil
}
