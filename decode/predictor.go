package decode

import "github.com/flightlog/bblcore/header"

// FrameContext carries the prior-frame snapshots and header-derived
// constants a predictor needs to reconstruct an absolute value from a
// decoded delta. A nil Prev/Prev2 is treated as "absent": lookups against it
// fall back to the per-predictor default documented in spec.md §4.3 rather
// than to zero uniformly.
type FrameContext struct {
	Prev      []int32
	Prev2     []int32
	Current   []int32 // the frame under construction, for Motor0 self-reference
	IsIFrame  bool
	Header    *header.LogHeader
	Motor0Idx int // index of motor[0] within this frame-type's field list, or -1
}

// lookup returns prev[i] if prev is non-nil and long enough to cover index
// i, and the provided default otherwise.
func lookup(prev []int32, i int, def int32) int32 {
	if prev == nil || i >= len(prev) {
		return def
	}
	return prev[i]
}

// Apply reconstructs the absolute value of field i given its freshly
// decoded delta, the predictor declared for that field, and the frame
// context. See spec.md §4.3 for the per-predictor I-frame/P-frame table.
func Apply(pred header.Predictor, decoded int32, i int, ctx FrameContext) int32 {
	if ctx.IsIFrame {
		return applyIFrame(pred, decoded, i, ctx)
	}
	return applyPFrame(pred, decoded, i, ctx)
}

func applyIFrame(pred header.Predictor, decoded int32, i int, ctx FrameContext) int32 {
	switch pred {
	case header.MinThrottle:
		return decoded + int32(ctx.Header.MinThrottle)
	case header.Motor0:
		if ctx.Motor0Idx >= 0 && ctx.Motor0Idx < len(ctx.Current) {
			return decoded + ctx.Current[ctx.Motor0Idx]
		}
		return decoded
	case header.ServoCenter:
		return decoded + 1500
	case header.VBatRef:
		return decoded + int32(ctx.Header.VbatRef)
	default:
		// Zero, Previous, StraightLine, Average2, Increment, HomeCoord all
		// resolve to the raw decoded value on an I-frame.
		return decoded
	}
}

func applyPFrame(pred header.Predictor, decoded int32, i int, ctx FrameContext) int32 {
	switch pred {
	case header.Zero:
		return decoded
	case header.Previous:
		return decoded + lookup(ctx.Prev, i, 0)
	case header.StraightLine:
		if ctx.Prev2 != nil {
			return decoded + 2*lookup(ctx.Prev, i, 0) - lookup(ctx.Prev2, i, 0)
		}
		return decoded + lookup(ctx.Prev, i, 0)
	case header.Average2:
		if ctx.Prev2 != nil {
			// Go's integer division already truncates toward zero, matching
			// the C semantics the spec calls for: (-3 + -2) / 2 == -2.
			return decoded + (lookup(ctx.Prev, i, 0)+lookup(ctx.Prev2, i, 0))/2
		}
		return decoded + lookup(ctx.Prev, i, 0)
	case header.MinThrottle:
		return decoded + lookup(ctx.Prev, i, int32(ctx.Header.MinThrottle))
	case header.Motor0:
		return decoded + lookup(ctx.Prev, i, 0)
	case header.Increment:
		return decoded + lookup(ctx.Prev, i, 0) + 1
	case header.HomeCoord:
		return decoded + lookup(ctx.Prev, i, 0)
	case header.ServoCenter:
		return decoded + lookup(ctx.Prev, i, 1500)
	case header.VBatRef:
		return decoded + lookup(ctx.Prev, i, int32(ctx.Header.VbatRef))
	default:
		return decoded
	}
}
