// Package header parses the ASCII "H key:value" preamble of a Betaflight
// blackbox log session into a typed LogHeader, the per-frame-type field
// schema the rest of the decoder is built from.
//
// The shape here mirrors the teacher package's meta package: a small typed
// header struct assembled line-by-line, plus a handful of small parsing
// helpers, rather than a generic key/value bag consulted ad hoc by every
// caller.
package header

import (
	"math"
	"strconv"
	"strings"

	"github.com/flightlog/bblcore/reader"
)

// Encoding identifies one of the eight wire value encodings a field may use.
type Encoding int

// Wire encoding ids, fixed by the format.
const (
	SignedVB        Encoding = 0
	UnsignedVB      Encoding = 1
	Neg14Bit        Encoding = 3
	Tag8_8sVB       Encoding = 6
	Tag2_3S32       Encoding = 7
	Tag8_4S16       Encoding = 8
	Null            Encoding = 9
	Tag2_3SVariable Encoding = 10
)

// EncodingFromInt maps a wire integer id to an Encoding. Unknown ids fall
// back to SignedVB, per spec.
func EncodingFromInt(id int) Encoding {
	switch Encoding(id) {
	case SignedVB, UnsignedVB, Neg14Bit, Tag8_8sVB, Tag2_3S32, Tag8_4S16, Null, Tag2_3SVariable:
		return Encoding(id)
	default:
		return SignedVB
	}
}

// Predictor identifies one of the ten predictors applied to a decoded value
// to reconstruct its absolute value.
type Predictor int

// Predictor ids, fixed by the format.
const (
	Zero         Predictor = 0
	Previous     Predictor = 1
	StraightLine Predictor = 2
	Average2     Predictor = 3
	MinThrottle  Predictor = 4
	Motor0       Predictor = 5
	Increment    Predictor = 6
	HomeCoord    Predictor = 7
	ServoCenter  Predictor = 8
	VBatRef      Predictor = 9
)

// PredictorFromInt maps a wire integer id to a Predictor. Unknown ids fall
// back to Zero, so that a single stray/garbled predictor column cannot crash
// the decoder.
func PredictorFromInt(id int) Predictor {
	switch Predictor(id) {
	case Zero, Previous, StraightLine, Average2, MinThrottle, Motor0, Increment, HomeCoord, ServoCenter, VBatRef:
		return Predictor(id)
	default:
		return Zero
	}
}

// FieldDefinition describes one field of one frame type. Its position within
// its frame type's slice is both the wire order and the index used by
// predictor lookups against prior-frame snapshots.
type FieldDefinition struct {
	Name      string
	Encoding  Encoding
	Predictor Predictor
	Signed    bool
}

// LogHeader carries the parsed metadata and per-frame-type field schema of
// one session.
type LogHeader struct {
	Product          string
	FirmwareType     string
	FirmwareRevision string
	FirmwareDate     string
	BoardInformation string
	CraftName        string

	DataVersion int

	IInterval int
	PInterval int
	PDenom    int

	Looptime    int
	MinThrottle int
	MaxThrottle int
	VbatRef     int
	GyroScale   float64

	IFieldDefs []FieldDefinition
	PFieldDefs []FieldDefinition
	SFieldDefs []FieldDefinition
	GFieldDefs []FieldDefinition

	Raw map[string]string
}

// fieldGroup accumulates the four aligned "Field X {name,signed,predictor,
// encoding}" lines for one frame-type letter before they are zipped into
// FieldDefinitions.
type fieldGroup struct {
	names      []string
	signed     []string
	predictors []string
	encodings  []string
}

// newDefault returns a LogHeader with the format's documented defaults
// (I/P interval 1, P denominator 1) applied.
func newDefault() *LogHeader {
	return &LogHeader{
		IInterval: 1,
		PInterval: 1,
		PDenom:    1,
		Raw:       make(map[string]string),
	}
}

// Parse reads "H key:value" lines from r until a non-"H" line is reached,
// rewinding the cursor to the start of that line, and returns the assembled
// LogHeader.
func Parse(r *reader.StreamReader) (*LogHeader, error) {
	h := newDefault()
	groups := make(map[string]*fieldGroup)

	for {
		lineStart := r.Offset()
		line, ok := r.ReadLine()
		if !ok {
			break
		}
		if len(line) == 0 || line[0] != 'H' {
			r.SetOffset(lineStart)
			break
		}
		// "H " prefix; some encoders emit a bare "H" with no following space
		// for an empty value, which we tolerate by trimming defensively.
		body := strings.TrimPrefix(line, "H")
		body = strings.TrimPrefix(body, " ")

		key, value, found := strings.Cut(body, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		h.Raw[key] = value

		if applyFieldColumn(groups, key, value) {
			continue
		}
		applyScalarKey(h, key, value)
	}

	h.IFieldDefs = buildFieldDefs(groups["I"])
	h.PFieldDefs = buildFieldDefs(groups["P"])
	h.SFieldDefs = buildFieldDefs(groups["S"])
	h.GFieldDefs = buildFieldDefs(groups["G"])

	return h, nil
}

// applyFieldColumn recognizes "Field X {name,signed,predictor,encoding}"
// keys and stores their comma-separated value into the right column of the
// right group. It reports whether key was recognized as a field column.
func applyFieldColumn(groups map[string]*fieldGroup, key, value string) bool {
	fields := strings.Fields(key)
	if len(fields) != 3 || fields[0] != "Field" {
		return false
	}
	letter := fields[1]
	column := fields[2]
	g, ok := groups[letter]
	if !ok {
		g = &fieldGroup{}
		groups[letter] = g
	}
	items := splitCSV(value)
	switch column {
	case "name":
		g.names = items
	case "signed":
		g.signed = items
	case "predictor":
		g.predictors = items
	case "encoding":
		g.encodings = items
	default:
		return false
	}
	return true
}

// buildFieldDefs zips a field group's four parallel columns into an ordered
// slice of FieldDefinition. A nil group yields a nil (empty) slice.
func buildFieldDefs(g *fieldGroup) []FieldDefinition {
	if g == nil {
		return nil
	}
	defs := make([]FieldDefinition, len(g.names))
	for i, name := range g.names {
		def := FieldDefinition{Name: name}
		if i < len(g.signed) {
			def.Signed = atoi(g.signed[i]) != 0
		}
		if i < len(g.predictors) {
			def.Predictor = PredictorFromInt(atoi(g.predictors[i]))
		}
		if i < len(g.encodings) {
			def.Encoding = EncodingFromInt(atoi(g.encodings[i]))
		}
		defs[i] = def
	}
	return defs
}

// applyScalarKey recognizes the non-field scalar header keys that feed the
// decoder's predictors and sample-rate computation.
func applyScalarKey(h *LogHeader, key, value string) {
	switch key {
	case "Product":
		h.Product = value
	case "Firmware type":
		h.FirmwareType = value
	case "Firmware revision":
		h.FirmwareRevision = value
	case "Firmware date":
		h.FirmwareDate = value
	case "Board information":
		h.BoardInformation = value
	case "Craft name":
		h.CraftName = value
	case "Data version":
		h.DataVersion = atoi(value)
	case "I interval":
		if v := atoi(value); v > 0 {
			h.IInterval = v
		}
	case "P interval":
		n, d := splitRatio(value)
		if n > 0 {
			h.PInterval = n
		}
		if d > 0 {
			h.PDenom = d
		}
	case "looptime":
		h.Looptime = atoi(value)
	case "minthrottle":
		h.MinThrottle = atoi(value)
	case "maxthrottle":
		h.MaxThrottle = atoi(value)
	case "vbatref":
		h.VbatRef = atoi(value)
	case "gyro_scale":
		h.GyroScale = atof(value)
	}
}

// splitRatio parses an "N/D" or bare "N" ratio, defaulting D to 1.
func splitRatio(value string) (n, d int) {
	num, den, found := strings.Cut(value, "/")
	n = atoi(num)
	if found {
		d = atoi(den)
	} else {
		d = 1
	}
	return n, d
}

// splitCSV splits a comma-separated header value, trimming surrounding
// whitespace from each item and dropping the value entirely if empty.
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// atoi parses a header integer column, tolerant of malformed input (BBL
// headers from corrupted dumps are not guaranteed well-formed); unparsable
// values decode as 0 rather than failing the whole session.
func atoi(s string) int {
	// Some firmware builds emit hexadecimal constants prefixed with 0x in
	// otherwise-decimal columns; strconv.ParseInt with base 0 handles both
	// transparently.
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// atof parses a header floating-point column, tolerant of malformed input.
// A 0x-prefixed value (the form gyro_scale is written in) is read as the
// hexadecimal bit pattern of an IEEE-754 single-precision float.
func atof(s string) float64 {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		u, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0
		}
		return float64(math.Float32frombits(uint32(u)))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FieldIndex returns the index of the named field within defs, or -1.
func FieldIndex(defs []FieldDefinition, name string) int {
	for i, d := range defs {
		if d.Name == name {
			return i
		}
	}
	return -1
}
