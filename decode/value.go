// Package decode implements the wire-level value decoder, predictor
// applier, and frame parser of the blackbox decoder pipeline: everything
// between a raw byte cursor (package reader) and an ordered slice of
// reconstructed int32 field values.
package decode

import (
	"bytes"

	mbit "github.com/mewkiz/pkg/bit"

	"github.com/flightlog/bblcore/header"
	"github.com/flightlog/bblcore/internal/bits"
	"github.com/flightlog/bblcore/reader"
)

// IsFixedGroup reports whether enc is one of the two grouped encodings that
// always decode exactly three fields from one wire tag.
func IsFixedGroup(enc header.Encoding) bool {
	return enc == header.Tag2_3S32 || enc == header.Tag2_3SVariable
}

// IsVariableGroup reports whether enc is one of the two grouped encodings
// whose wire tag covers a caller-chosen run of consecutive same-encoding
// fields.
func IsVariableGroup(enc header.Encoding) bool {
	return enc == header.Tag8_8sVB || enc == header.Tag8_4S16
}

// NaturalGroupSize returns the maximum number of fields one wire tag of a
// variable-group encoding can cover.
func NaturalGroupSize(enc header.Encoding) int {
	switch enc {
	case header.Tag8_8sVB:
		return 8
	case header.Tag8_4S16:
		return 4
	default:
		return 1
	}
}

// DecodeSingle decodes one field value of a non-grouped encoding and writes
// it to out[idx].
func DecodeSingle(r *reader.StreamReader, enc header.Encoding, dataVersion int, out []int32, idx int) {
	switch enc {
	case header.UnsignedVB:
		out[idx] = int32(r.ReadUnsignedVB())
	case header.Neg14Bit:
		u := r.ReadUnsignedVB()
		out[idx] = -bits.SignExtend32(u, 14)
	case header.Null:
		out[idx] = 0
	case header.SignedVB:
		out[idx] = r.ReadSignedVB()
	default:
		// Any other id reaching here (grouped encodings are routed to the
		// DecodeTag* functions by the frame parser) is treated the same as an
		// unknown wire id: SignedVB is the documented fallback.
		out[idx] = r.ReadSignedVB()
	}
}

// readByteOrZero reads one raw byte, substituting 0 on EOF so that grouped
// decoders can keep computing a full, zero-filled result instead of
// aborting mid-group.
func readByteOrZero(r *reader.StreamReader) byte {
	b := r.ReadByte()
	if b == reader.EOF {
		return 0
	}
	return byte(b)
}

// readFields reads len(widths) MSB-first bit fields packed across exactly
// enough whole bytes to hold their sum, substituting 0 bytes on EOF. This is
// the grouped-tag counterpart of frame/header.go's
// br.ReadFields(14,1,1,4,4,4,3,1) idiom in the teacher package.
func readFields(r *reader.StreamReader, nbytes int, widths ...uint) []uint64 {
	buf := make([]byte, nbytes)
	for i := range buf {
		buf[i] = readByteOrZero(r)
	}
	br := mbit.NewReader(bytes.NewReader(buf))
	out := make([]uint64, len(widths))
	for i, w := range widths {
		v, err := br.Read(w)
		if err != nil {
			v = 0
		}
		out[i] = v
	}
	return out
}

// DecodeTag8_8sVB decodes the variable natural-size-8 grouped encoding into
// out[start:start+count]. count==1 uses the encoder's documented special
// case: a lone signed VB value with no tag byte.
func DecodeTag8_8sVB(r *reader.StreamReader, out []int32, start, count int) {
	if count == 1 {
		out[start] = r.ReadSignedVB()
		return
	}
	tag := r.ReadByte()
	for i := 0; i < count; i++ {
		if tag != reader.EOF && tag&(1<<uint(i)) != 0 {
			out[start+i] = r.ReadSignedVB()
		} else {
			out[start+i] = 0
		}
	}
}

// DecodeTag2_3S32 decodes the fixed 3-field grouped encoding into
// out[start:start+3].
func DecodeTag2_3S32(r *reader.StreamReader, out []int32, start int) {
	lead := readByteOrZero(r)
	switch lead >> 6 {
	case 0:
		// Selector consumed the top 2 bits of lead; the remaining 3 pairs are
		// read directly since all 4 fields already sit in the one byte we
		// have in hand.
		out[start] = bits.SignExtend32(uint32((lead>>4)&0x3), 2)
		out[start+1] = bits.SignExtend32(uint32((lead>>2)&0x3), 2)
		out[start+2] = bits.SignExtend32(uint32(lead&0x3), 2)
	case 1:
		out[start] = bits.SignExtend32(uint32(lead&0xF), 4)
		extra := readByteOrZero(r)
		out[start+1] = bits.SignExtend32(uint32(extra>>4), 4)
		out[start+2] = bits.SignExtend32(uint32(extra&0xF), 4)
	case 2:
		out[start] = bits.SignExtend32(uint32(lead&0x3F), 6)
		b1 := readByteOrZero(r)
		b2 := readByteOrZero(r)
		out[start+1] = bits.SignExtend32(uint32(b1&0x3F), 6)
		out[start+2] = bits.SignExtend32(uint32(b2&0x3F), 6)
	case 3:
		w0 := lead & 0x3
		w1 := (lead >> 2) & 0x3
		w2 := (lead >> 4) & 0x3
		out[start] = readWidthField(r, w0)
		out[start+1] = readWidthField(r, w1)
		out[start+2] = readWidthField(r, w2)
	}
}

// readWidthField reads one field of a Tag2_3S32/Tag2_3SVariable selector-3
// width-selector group: 00->S8, 01->S16LE, 10->S24LE, 11->S32LE.
func readWidthField(r *reader.StreamReader, widthSel byte) int32 {
	switch widthSel {
	case 0:
		return bits.SignExtend32(uint32(readByteOrZero(r)), 8)
	case 1:
		return int32(r.ReadS16LE())
	case 2:
		b0 := readByteOrZero(r)
		b1 := readByteOrZero(r)
		b2 := readByteOrZero(r)
		v := uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16
		return bits.SignExtend32(v, 24)
	default: // 3
		return r.ReadS32LE()
	}
}

// DecodeTag2_3SVariable decodes the fixed 3-field "variable width" grouped
// encoding into out[start:start+3].
func DecodeTag2_3SVariable(r *reader.StreamReader, out []int32, start int) {
	lead := r.ReadByte()
	if lead == reader.EOF {
		out[start], out[start+1], out[start+2] = 0, 0, 0
		return
	}
	leadByte := byte(lead)
	switch leadByte >> 6 {
	case 0:
		out[start] = bits.SignExtend32(uint32((leadByte>>4)&0x3), 2)
		out[start+1] = bits.SignExtend32(uint32((leadByte>>2)&0x3), 2)
		out[start+2] = bits.SignExtend32(uint32(leadByte&0x3), 2)
	case 1:
		r.SetOffset(r.Offset() - 1) // rewind; re-read lead as part of the packed field run
		f := readFields(r, 2, 2, 5, 5, 4)
		out[start] = bits.SignExtend32(uint32(f[1]), 5)
		out[start+1] = bits.SignExtend32(uint32(f[2]), 5)
		out[start+2] = bits.SignExtend32(uint32(f[3]), 4)
	case 2:
		r.SetOffset(r.Offset() - 1)
		f := readFields(r, 3, 2, 8, 7, 7)
		out[start] = bits.SignExtend32(uint32(f[1]), 8)
		out[start+1] = bits.SignExtend32(uint32(f[2]), 7)
		out[start+2] = bits.SignExtend32(uint32(f[3]), 7)
	case 3:
		w0 := leadByte & 0x3
		w1 := (leadByte >> 2) & 0x3
		w2 := (leadByte >> 4) & 0x3
		out[start] = readWidthField(r, w0)
		out[start+1] = readWidthField(r, w1)
		out[start+2] = readWidthField(r, w2)
	}
}

// DecodeTag8_4S16 decodes the variable natural-size-4 grouped encoding into
// out[start:start+count] (count<=4, the caller having already determined
// how many consecutive fields share this encoding).
func DecodeTag8_4S16(r *reader.StreamReader, dataVersion int, out []int32, start, count int) {
	// The tag's 2-bit sub-fields are numbered LSB-first ((tag>>2i)&3 for
	// field i), the reverse of the MSB-first order readFields delivers, so
	// field i's selector is the (4-1-i)'th value read.
	f := readFields(r, 1, 2, 2, 2, 2)
	for i := 0; i < count; i++ {
		out[start+i] = decodeTag8_4S16Field(r, dataVersion, byte(f[3-i]))
	}
}

// decodeTag8_4S16Field decodes one of the four 2-bit sub-encodings of a
// Tag8_4S16 tag. The sub-encoding meaning depends on the header's declared
// data version.
func decodeTag8_4S16Field(r *reader.StreamReader, dataVersion int, sel byte) int32 {
	if dataVersion == 1 {
		switch sel {
		case 0:
			return 0
		case 1:
			return bits.SignExtend32(uint32(readByteOrZero(r)&0xF), 4)
		case 2:
			return bits.SignExtend32(uint32(readByteOrZero(r)), 8)
		default: // 3
			return int32(r.ReadS16LE())
		}
	}
	// data_version >= 2.
	switch sel {
	case 0:
		return 0
	case 1:
		return bits.SignExtend32(uint32(readByteOrZero(r)), 8)
	case 2:
		return int32(r.ReadS16LE())
	default: // 3
		return r.ReadSignedVB()
	}
}

