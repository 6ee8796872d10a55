package session

import "fmt"

// extremeRangeThreshold is the peak-to-peak span, in raw decoded units,
// above which a channel is flagged as suspicious. Sensor and RC channels in
// a well-formed log stay well under this; only a desynchronized decode
// produces spans this wide.
const extremeRangeThreshold = 1e7

// collectWarnings runs the quality heuristics over every named channel of a
// merged session and returns the combined, human-readable warning list.
func collectWarnings(fd FlightData) []string {
	var warnings []string
	named := namedChannels(fd)
	for _, nc := range named {
		warnings = append(warnings, channelWarnings(nc.name, nc.ts)...)
	}
	return warnings
}

type namedChannel struct {
	name string
	ts   TimeSeries
}

func namedChannels(fd FlightData) []namedChannel {
	var out []namedChannel
	for c := 0; c < 3; c++ {
		out = append(out, namedChannel{indexName("gyroADC", c), fd.Gyro[c]})
		out = append(out, namedChannel{indexName("axisP", c), fd.PidP[c]})
		out = append(out, namedChannel{indexName("axisI", c), fd.PidI[c]})
		out = append(out, namedChannel{indexName("axisD", c), fd.PidD[c]})
		out = append(out, namedChannel{indexName("axisF", c), fd.PidF[c]})
	}
	for c := 0; c < 4; c++ {
		out = append(out, namedChannel{indexName("setpoint", c), fd.Setpoint[c]})
		out = append(out, namedChannel{indexName("motor", c), fd.Motor[c]})
	}
	for c := 0; c < 8; c++ {
		out = append(out, namedChannel{indexName("debug", c), fd.Debug[c]})
	}
	return out
}

// channelWarnings flags a channel that never changes, is mostly zero, or
// spans an implausibly wide range — all signs of a missing field, a stuck
// sensor, or a desynchronized decode rather than real flight data.
func channelWarnings(name string, ts TimeSeries) []string {
	n := len(ts.Values)
	if n == 0 {
		return nil
	}

	zeroCount := 0
	allSame := true
	minV, maxV := ts.Values[0], ts.Values[0]
	for _, v := range ts.Values {
		if v != ts.Values[0] {
			allSame = false
		}
		if v == 0 {
			zeroCount++
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	var warnings []string
	if allSame && n > 1 {
		warnings = append(warnings, fmt.Sprintf("%s: constant at %g across %d frames", name, ts.Values[0], n))
	}
	if zeroPercent := 100 * float64(zeroCount) / float64(n); zeroPercent > 90 {
		warnings = append(warnings, fmt.Sprintf("%s: %.0f%% zero values", name, zeroPercent))
	}
	if maxV-minV > extremeRangeThreshold {
		warnings = append(warnings, fmt.Sprintf("%s: implausible range [%g, %g]", name, minV, maxV))
	}
	return warnings
}
