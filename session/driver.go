package session

import (
	"github.com/pkg/errors"

	"github.com/flightlog/bblcore/decode"
	"github.com/flightlog/bblcore/header"
	"github.com/flightlog/bblcore/reader"
)

// MaxFrameLength is the largest plausible single-frame byte size; anything
// beyond it is treated as a desynchronized cursor rather than a real frame.
const MaxFrameLength = 256

// Temporal validation gate constants. These bound how far a frame's
// loopIteration/time fields may jump from the last accepted frame before it
// is rejected as corrupt. The values are tunable but fixed for this build.
// maxIterationJump/maxTimeJumpUS are set generously wide relative to a normal
// flight controller's loop rate so that only genuine desync is caught.
// maxIFrameIterBackward/maxIFrameTimeBackwardUS are kept tight instead: an
// I-frame moving backward at all is already unusual (only predictor rounding
// drift of a handful of iterations/microseconds is legitimate), so a large
// backward jump like a corrupted resync must still be rejected.
const (
	maxIterationJump        = 500000
	maxTimeJumpUS           = 10_000_000
	maxIFrameIterBackward   = 10
	maxIFrameTimeBackwardUS = 2000
)

const (
	progressByteInterval = 16 * 1024
	cancelFrameInterval  = 5000
)

// Sentinel errors for the two ways a parse can fail outright rather than
// simply yield zero usable sessions.
var (
	ErrEmptyInput    = errors.New("bblcore: empty input buffer")
	ErrNoValidHeader = errors.New("bblcore: no session header found in input")
)

// Run scans buf for session boundaries, decodes each one, and returns every
// session that produced at least one frame. A session whose header declares
// no I-frame fields, or whose frame loop never accepts a single frame, is
// silently omitted rather than returned as an empty Session.
func Run(buf []byte, opts Options) ([]Session, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}
	clean := stripFlashHeaders(buf)
	bounds := scanBoundaries(clean)
	if len(bounds) == 0 {
		return nil, ErrNoValidHeader
	}

	totalBytes := len(clean)
	var sessions []Session
	for i, start := range bounds {
		end := len(clean)
		if i+1 < len(bounds) {
			end = bounds[i+1]
		}
		sess, ok, cancelled := runSession(clean[start:end], i, start, totalBytes, opts)
		if ok {
			sessions = append(sessions, sess)
		}
		if cancelled {
			break
		}
	}
	return sessions, nil
}

// runSession decodes the single session occupying buf (already sliced to its
// own boundary), reporting whether it produced a usable result and whether
// the caller asked to cancel mid-parse.
func runSession(buf []byte, index, globalOffset, totalBytes int, opts Options) (Session, bool, bool) {
	r := reader.New(buf)
	h, err := header.Parse(r)
	if err != nil || len(h.IFieldDefs) == 0 {
		return Session{}, false, false
	}
	fp := decode.New(h)

	loopIterIdx := header.FieldIndex(h.IFieldDefs, "loopIteration")
	timeIdx := header.FieldIndex(h.IFieldDefs, "time")

	st := &frameLoopState{
		h:           h,
		fp:          fp,
		loopIterIdx: loopIterIdx,
		timeIdx:     timeIdx,
	}

	lastProgress := 0
	framesSinceCancelCheck := 0
	cancelled := false

runLoop:
	for !r.EOF() {
		frameStart := r.Offset()
		marker := r.ReadByte()

		switch byte(marker) {
		case 'I':
			st.handleIFrame(r, frameStart)
		case 'P':
			st.handlePFrame(r, frameStart)
		case 'S':
			fp.ParseSFrame(r)
		case 'E':
			if st.handleEvent(r, len(buf)) {
				break runLoop
			}
		case 'G', 'H':
			// GPS/GPS-home frames: this core does not parse their field
			// schema. Skip the marker byte already consumed and invalidate
			// prediction so the next I/P frame starts clean.
			st.invalidate()
		default:
			// Unknown marker byte: the marker read above already consumed
			// it, which is the "skip". Not counted as corruption.
			st.invalidate()
		}

		if opts.Progress != nil && r.Offset()-lastProgress >= progressByteInterval {
			lastProgress = r.Offset()
			global := globalOffset + r.Offset()
			opts.Progress(ProgressEvent{
				BytesProcessed: global,
				TotalBytes:     totalBytes,
				Percent:        100 * float64(global) / float64(totalBytes),
				CurrentSession: index,
			})
		}

		framesSinceCancelCheck++
		if opts.ShouldCancel != nil && framesSinceCancelCheck >= cancelFrameInterval {
			framesSinceCancelCheck = 0
			if opts.ShouldCancel() {
				cancelled = true
				break runLoop
			}
		}
	}

	if st.frameCount == 0 {
		return Session{}, false, cancelled
	}

	fd := buildFlightData(h, st.iFrames, st.pFrames)
	sess := Session{
		Index:               index,
		Header:              h,
		FlightData:          fd,
		CorruptedFrameCount: st.corrupted,
		Warnings:            collectWarnings(fd),
	}
	return sess, true, cancelled
}
