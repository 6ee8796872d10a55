// Package session implements the top-level decode driver: flash-dump
// prelude stripping, session-boundary discovery, the per-session frame
// loop with corruption recovery, and the merge step that turns accepted
// I/P frames into named time-series channels.
//
// This plays the role the teacher package's top-level flac.Stream /
// flac.NewStream plays for FLAC: a thin orchestrator built on focused
// sub-packages (frame, meta there; decode, header here).
package session

import "github.com/flightlog/bblcore/header"

// TimeSeries is a pair of equal-length time/value arrays for one decoded
// channel.
type TimeSeries struct {
	Time   []float64
	Values []float64
}

// FlightData is the fixed-cardinality channel bundle extracted from a
// session's merged frames.
type FlightData struct {
	Gyro     [3]TimeSeries
	Setpoint [4]TimeSeries
	PidP     [3]TimeSeries
	PidI     [3]TimeSeries
	PidD     [3]TimeSeries
	PidF     [3]TimeSeries
	Motor    [4]TimeSeries
	Debug    [8]TimeSeries

	SampleRateHz float64
	DurationS    float64
	FrameCount   int
}

// Session is one decoded logging session.
type Session struct {
	Index               int
	Header              *header.LogHeader
	FlightData          FlightData
	CorruptedFrameCount int
	Warnings            []string
}

// ProgressEvent reports decode progress at ~16 KiB byte boundaries.
type ProgressEvent struct {
	BytesProcessed int
	TotalBytes     int
	Percent        float64
	CurrentSession int
}

// Options configures a Run call with the optional observability/
// cancellation seams described in spec.md §5.
type Options struct {
	// Progress, if non-nil, is invoked at roughly 16 KiB byte boundaries.
	Progress func(ProgressEvent)
	// ShouldCancel, if non-nil, is polled every 5000 frame-loop iterations
	// (one per marker byte read, whether or not a frame is decoded); a true
	// result aborts the current session's frame loop with a partial result
	// and stops scanning further sessions.
	ShouldCancel func() bool
}
