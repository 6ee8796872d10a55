package decode

import (
	"github.com/flightlog/bblcore/header"
	"github.com/flightlog/bblcore/reader"
)

// FrameParser walks one frame type's field list, decoding the wire value of
// each field and applying its predictor. It is built once per LogHeader and
// reused for every frame of a session, exactly as the teacher package's
// frame.Header.NewSubFrame is built once per frame header and reused across
// that frame's channels.
type FrameParser struct {
	h          *header.LogHeader
	iMotor0Idx int
	pMotor0Idx int
}

// New builds a FrameParser from a parsed header, caching the motor[0] field
// index of the I and P field lists (the Motor0 predictor needs it on every
// frame and a linear name search per field would be wasteful).
func New(h *header.LogHeader) *FrameParser {
	return &FrameParser{
		h:          h,
		iMotor0Idx: header.FieldIndex(h.IFieldDefs, "motor[0]"),
		pMotor0Idx: header.FieldIndex(h.PFieldDefs, "motor[0]"),
	}
}

// ParseIFrame decodes an absolute (intra) frame: every field's predictor
// runs with no prior-frame context.
func (fp *FrameParser) ParseIFrame(r *reader.StreamReader) []int32 {
	ctx := FrameContext{IsIFrame: true, Header: fp.h, Motor0Idx: fp.iMotor0Idx}
	return fp.parseFields(r, fp.h.IFieldDefs, ctx)
}

// ParsePFrame decodes an inter (delta) frame against the given prior-frame
// snapshots. prev2 may be nil, in which case StraightLine and Average2 fall
// back to prev alone (the session driver itself never passes a nil prev2: an
// accepted I-frame fills both slots, and a missing prev2 is replaced by
// prev); callers are expected to still invoke this (with a zero-valued dummy
// prev) even when prev is itself invalid, purely to keep the stream cursor
// correctly positioned — see the session driver.
func (fp *FrameParser) ParsePFrame(r *reader.StreamReader, prev, prev2 []int32) []int32 {
	ctx := FrameContext{Prev: prev, Prev2: prev2, Header: fp.h, Motor0Idx: fp.pMotor0Idx}
	return fp.parseFields(r, fp.h.PFieldDefs, ctx)
}

// ParseSFrame decodes a slow/auxiliary frame. S-frame values are absolute:
// each field's declared predictor runs with the I-frame rules and no
// prior-frame context (this core does not retain S-frame history), so
// history-based predictors yield the raw decoded value while MinThrottle,
// ServoCenter and VBatRef still add their header/fixed offsets. Motor0 has
// no motor[0] index here and also yields the raw value.
func (fp *FrameParser) ParseSFrame(r *reader.StreamReader) []int32 {
	ctx := FrameContext{IsIFrame: true, Header: fp.h, Motor0Idx: -1}
	return fp.parseFields(r, fp.h.SFieldDefs, ctx)
}

// parseFields is the shared field-list walk used by all three frame kinds.
// Grouped encodings are the only place the field index advances by more
// than one per wire tag: the fixed-group kinds always decode exactly 3
// values (2_3S32, 2_3SVariable); the variable-group kinds decode a run of up
// to their natural size (8 for Tag8_8sVB, 4 for Tag8_4S16) of consecutive
// same-encoding fields under one tag.
func (fp *FrameParser) parseFields(r *reader.StreamReader, defs []header.FieldDefinition, ctx FrameContext) []int32 {
	n := len(defs)
	out := make([]int32, n)
	ctx.Current = out

	for fi := 0; fi < n; {
		enc := defs[fi].Encoding

		if r.EOF() && enc != header.Null {
			break
		}

		switch {
		case IsFixedGroup(enc):
			var raw [3]int32
			if enc == header.Tag2_3S32 {
				DecodeTag2_3S32(r, raw[:], 0)
			} else {
				DecodeTag2_3SVariable(r, raw[:], 0)
			}
			applied := 3
			if n-fi < applied {
				applied = n - fi
			}
			for k := 0; k < applied; k++ {
				out[fi+k] = Apply(defs[fi+k].Predictor, raw[k], fi+k, ctx)
			}
			fi += 3

		case IsVariableGroup(enc):
			natural := NaturalGroupSize(enc)
			runLen := 1
			for fi+runLen < n && defs[fi+runLen].Encoding == enc {
				runLen++
			}
			processed := 0
			for processed < runLen {
				chunk := natural
				if runLen-processed < chunk {
					chunk = runLen - processed
				}
				raw := make([]int32, chunk)
				if enc == header.Tag8_8sVB {
					DecodeTag8_8sVB(r, raw, 0, chunk)
				} else {
					DecodeTag8_4S16(r, fp.h.DataVersion, raw, 0, chunk)
				}
				for k := 0; k < chunk; k++ {
					idx := fi + processed + k
					out[idx] = Apply(defs[idx].Predictor, raw[k], idx, ctx)
				}
				processed += chunk
			}
			fi += runLen

		default:
			var raw [1]int32
			DecodeSingle(r, enc, fp.h.DataVersion, raw[:], 0)
			out[fi] = Apply(defs[fi].Predictor, raw[0], fi, ctx)
			fi++
		}
	}

	return out
}
