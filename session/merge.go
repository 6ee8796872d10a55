package session

import (
	"fmt"
	"sort"

	"github.com/flightlog/bblcore/header"
)

// mergedFrame is one row of the combined I/P timeline: a full-width snapshot
// in I-frame field order, projected from a P-frame's narrower schema when
// necessary.
type mergedFrame struct {
	values  []int32
	iter    int64
	arrival int
}

// buildFlightData merges a session's accepted I-frames and P-frames into one
// chronological timeline and extracts the fixed channel set from it.
func buildFlightData(h *header.LogHeader, iFrames, pFrames [][]int32) FlightData {
	loopIterIdx := header.FieldIndex(h.IFieldDefs, "loopIteration")
	pLoopIterIdx := header.FieldIndex(h.PFieldDefs, "loopIteration")

	pToI := make([]int, len(h.PFieldDefs))
	for i, d := range h.PFieldDefs {
		pToI[i] = header.FieldIndex(h.IFieldDefs, d.Name)
	}

	rows := make([]mergedFrame, 0, len(iFrames)+len(pFrames))
	arrival := 0
	for _, f := range iFrames {
		row := mergedFrame{values: f, arrival: arrival}
		if loopIterIdx >= 0 && loopIterIdx < len(f) {
			row.iter = int64(f[loopIterIdx])
		}
		rows = append(rows, row)
		arrival++
	}
	for _, f := range pFrames {
		projected := make([]int32, len(h.IFieldDefs))
		for pi, ii := range pToI {
			if ii >= 0 && pi < len(f) {
				projected[ii] = f[pi]
			}
		}
		row := mergedFrame{values: projected, arrival: arrival}
		if pLoopIterIdx >= 0 && pLoopIterIdx < len(f) {
			row.iter = int64(f[pLoopIterIdx])
		}
		rows = append(rows, row)
		arrival++
	}

	allHaveIter := loopIterIdx >= 0 && pLoopIterIdx >= 0
	if allHaveIter {
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].iter < rows[b].iter })
	} else {
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].arrival < rows[b].arrival })
	}

	n := len(rows)
	sampleRateHz := computeSampleRate(h)
	dt := 1.0
	if sampleRateHz > 0 {
		dt = 1.0 / sampleRateHz
	}

	timeIdx := header.FieldIndex(h.IFieldDefs, "time")
	useFieldTime := timeIdx >= 0 && monotoneWithinTolerance(rows, timeIdx)

	timeS := make([]float64, n)
	for i, row := range rows {
		if useFieldTime && timeIdx < len(row.values) {
			timeS[i] = float64(row.values[timeIdx]) / 1e6
		} else {
			timeS[i] = float64(i) * dt
		}
	}

	fd := FlightData{SampleRateHz: sampleRateHz, FrameCount: n}
	if n > 1 {
		fd.DurationS = timeS[n-1] - timeS[0]
	}

	for c := 0; c < 3; c++ {
		fd.Gyro[c] = extractChannel(rows, timeS, h.IFieldDefs, indexName("gyroADC", c))
		fd.PidP[c] = extractChannel(rows, timeS, h.IFieldDefs, indexName("axisP", c))
		fd.PidI[c] = extractChannel(rows, timeS, h.IFieldDefs, indexName("axisI", c))
		fd.PidD[c] = extractChannel(rows, timeS, h.IFieldDefs, indexName("axisD", c))
		fd.PidF[c] = extractChannel(rows, timeS, h.IFieldDefs, indexName("axisF", c))
	}
	for c := 0; c < 4; c++ {
		fd.Setpoint[c] = extractChannelFallback(rows, timeS, h.IFieldDefs, indexName("setpoint", c), indexName("rcCommand", c))
		fd.Motor[c] = extractChannel(rows, timeS, h.IFieldDefs, indexName("motor", c))
	}
	for c := 0; c < 8; c++ {
		fd.Debug[c] = extractChannel(rows, timeS, h.IFieldDefs, indexName("debug", c))
	}

	return fd
}

// computeSampleRate derives the nominal per-frame sample rate from the
// header's looptime (microseconds per PID loop) and the P-frame decimation
// ratio, clamping degenerate header values to 1 so a malformed header never
// divides by zero.
func computeSampleRate(h *header.LogHeader) float64 {
	looptime := h.Looptime
	if looptime < 1 {
		looptime = 1
	}
	pInterval := h.PInterval
	if pInterval < 1 {
		pInterval = 1
	}
	pDenom := h.PDenom
	if pDenom < 1 {
		pDenom = 1
	}
	return 1e6 / (float64(looptime) * float64(pInterval) * float64(pDenom))
}

// monotoneWithinTolerance reports whether a session's time field never steps
// backward by more than 1s or forward by more than 10s between consecutive
// merged rows; a field that fails this is treated as unreliable and the
// caller falls back to a synthetic sample-rate-derived timeline instead.
func monotoneWithinTolerance(rows []mergedFrame, timeIdx int) bool {
	var prev int64
	first := true
	for _, row := range rows {
		if timeIdx >= len(row.values) {
			return false
		}
		t := int64(row.values[timeIdx])
		if !first {
			step := t - prev
			if step < -1_000_000 || step > 10_000_000 {
				return false
			}
		}
		prev = t
		first = false
	}
	return true
}

// indexName formats a blackbox field name for a per-axis/per-motor channel,
// e.g. indexName("motor", 0) == "motor[0]".
func indexName(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}

// extractChannel pulls one named field out of the merged timeline as a
// TimeSeries. A field absent from the header's I-field schema still yields a
// frame_count-length, zero-filled TimeSeries rather than an empty one: every
// produced TimeSeries keeps time.len == values.len == frame_count.
func extractChannel(rows []mergedFrame, timeS []float64, defs []header.FieldDefinition, name string) TimeSeries {
	idx := header.FieldIndex(defs, name)
	values := make([]float64, len(rows))
	if idx >= 0 {
		for i, row := range rows {
			if idx < len(row.values) {
				values[i] = float64(row.values[idx])
			}
		}
	}
	return TimeSeries{Time: timeS, Values: values}
}

// extractChannelFallback tries name first, then fallback, so that firmware
// versions logging rcCommand[n] instead of setpoint[n] still populate the
// Setpoint channel.
func extractChannelFallback(rows []mergedFrame, timeS []float64, defs []header.FieldDefinition, name, fallback string) TimeSeries {
	if header.FieldIndex(defs, name) >= 0 {
		return extractChannel(rows, timeS, defs, name)
	}
	return extractChannel(rows, timeS, defs, fallback)
}
