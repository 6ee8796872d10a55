package session

import (
	"github.com/flightlog/bblcore/decode"
	"github.com/flightlog/bblcore/header"
	"github.com/flightlog/bblcore/reader"
)

// frameLoopState carries the prior-frame snapshots and bookkeeping the frame
// loop needs across iterations: the teacher package keeps no equivalent
// because FLAC frames never predict from one another, but every blackbox
// P-frame does.
type frameLoopState struct {
	h  *header.LogHeader
	fp *decode.FrameParser

	loopIterIdx int
	timeIdx     int

	prev, prev2        []int32
	lastIter, lastTime int32

	frameCount int
	corrupted  int

	iFrames [][]int32
	pFrames [][]int32
}

// invalidate drops the prior-frame snapshots so the next I/P frame cannot be
// predicted against stale state.
func (st *frameLoopState) invalidate() {
	st.prev, st.prev2 = nil, nil
}

// handleIFrame decodes one absolute frame, applies the oversize and temporal
// gates, and on acceptance makes it the new prediction baseline.
func (st *frameLoopState) handleIFrame(r *reader.StreamReader, frameStart int) {
	values := st.fp.ParseIFrame(r)
	frameSize := r.Offset() - frameStart

	switch {
	case frameSize > MaxFrameLength:
		st.corrupted++
		st.invalidate()
		r.SetOffset(frameStart + 1)
	case !st.validIFrame(values):
		st.corrupted++
		st.invalidate()
	default:
		st.iFrames = append(st.iFrames, values)
		st.prev, st.prev2 = values, values
		st.frameCount++
		st.updateLast(values)
	}
}

// handlePFrame decodes one delta frame. With no valid prior frame it still
// parses against a zero-valued dummy so the cursor lands correctly, but
// neither stores the result nor runs the oversize/temporal gates against it.
func (st *frameLoopState) handlePFrame(r *reader.StreamReader, frameStart int) {
	if st.prev == nil {
		dummy := make([]int32, len(st.h.PFieldDefs))
		st.fp.ParsePFrame(r, dummy, dummy)
		return
	}

	prev2 := st.prev2
	if prev2 == nil {
		prev2 = st.prev
	}
	values := st.fp.ParsePFrame(r, st.prev, prev2)
	frameSize := r.Offset() - frameStart

	switch {
	case frameSize > MaxFrameLength:
		st.corrupted++
		st.invalidate()
		r.SetOffset(frameStart + 1)
	case !st.validPFrame(values):
		st.corrupted++
		st.invalidate()
	default:
		st.pFrames = append(st.pFrames, values)
		st.prev2 = st.prev
		st.prev = values
		st.frameCount++
		st.updateLast(values)
	}
}

// handleEvent decodes one 'E'-marker event frame, consuming its known
// payload shapes. It reports whether the session should terminate now (a
// validated LOG_END).
func (st *frameLoopState) handleEvent(r *reader.StreamReader, bufLen int) bool {
	eventType := r.ReadByte()
	switch eventType {
	case 0: // SYNC_BEEP
		r.ReadUnsignedVB()
	case 10, 11, 12: // autotune target/gains: no fixed-size payload tracked here
	case 13: // INFLIGHT_ADJUSTMENT
		fn := r.ReadByte()
		if fn > 127 {
			r.Skip(4)
		} else {
			r.ReadSignedVB()
		}
	case 14: // LOGGING_RESUME
		r.ReadUnsignedVB()
		r.ReadUnsignedVB()
	case 15: // DISARM
		r.ReadUnsignedVB()
	case 30: // FLIGHT_MODE
		r.ReadUnsignedVB()
		r.ReadUnsignedVB()
	case 255: // LOG_END
		trailer := r.PeekBytes(11)
		if string(trailer) == "End of log\x00" {
			r.SetOffset(bufLen)
			return true
		}
		// False positive 0xFF byte: the 11 peeked bytes were never consumed,
		// so the cursor is still right after the event-type byte.
	}
	return false
}

// updateLast records the loopIteration/time field values of an accepted
// frame as the baseline the next frame is validated against.
func (st *frameLoopState) updateLast(values []int32) {
	if st.loopIterIdx >= 0 && st.loopIterIdx < len(values) {
		st.lastIter = values[st.loopIterIdx]
	}
	if st.timeIdx >= 0 && st.timeIdx < len(values) {
		st.lastTime = values[st.timeIdx]
	}
}

func (st *frameLoopState) fieldOr(values []int32, idx int, fallback int32) int32 {
	if idx >= 0 && idx < len(values) {
		return values[idx]
	}
	return fallback
}

// validIFrame reports whether an I-frame's loopIteration/time fields are
// plausible given the last accepted frame. The very first accepted frame of
// a session has nothing to validate against and is always accepted.
func (st *frameLoopState) validIFrame(values []int32) bool {
	if st.frameCount == 0 {
		return true
	}
	iter := st.fieldOr(values, st.loopIterIdx, st.lastIter)
	t := st.fieldOr(values, st.timeIdx, st.lastTime)
	if iter >= st.lastIter+maxIterationJump {
		return false
	}
	if iter < st.lastIter-maxIFrameIterBackward {
		return false
	}
	if t >= st.lastTime+maxTimeJumpUS {
		return false
	}
	if t < st.lastTime-maxIFrameTimeBackwardUS {
		return false
	}
	return true
}

// validPFrame reports whether a P-frame's loopIteration/time fields move
// forward plausibly from the last accepted frame. Unlike I-frames, P-frames
// may never move backward: they are delta-coded against that exact frame.
func (st *frameLoopState) validPFrame(values []int32) bool {
	iter := st.fieldOr(values, st.loopIterIdx, st.lastIter)
	t := st.fieldOr(values, st.timeIdx, st.lastTime)
	if iter < st.lastIter {
		return false
	}
	if iter >= st.lastIter+maxIterationJump {
		return false
	}
	if t < st.lastTime {
		return false
	}
	if t >= st.lastTime+maxTimeJumpUS {
		return false
	}
	return true
}
