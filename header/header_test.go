package header

import (
	"strings"
	"testing"

	"github.com/flightlog/bblcore/reader"
)

func parseText(t *testing.T, text string) *LogHeader {
	t.Helper()
	h, err := Parse(reader.New([]byte(text)))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return h
}

func TestParseScalarFields(t *testing.T) {
	text := "H Product:Blackbox flight data recorder by Nicholas Sherlock\n" +
		"H Data version:2\n" +
		"H I interval:32\n" +
		"H P interval:1/1\n" +
		"H looptime:125\n" +
		"H minthrottle:1070\n" +
		"H maxthrottle:2000\n" +
		"H vbatref:420\n" +
		"H gyro_scale:0x3916c8a0\n" +
		"I extra data\n"

	h := parseText(t, text)
	if h.Product != "Blackbox flight data recorder by Nicholas Sherlock" {
		t.Errorf("Product = %q", h.Product)
	}
	if h.DataVersion != 2 {
		t.Errorf("DataVersion = %d, want 2", h.DataVersion)
	}
	if h.IInterval != 32 {
		t.Errorf("IInterval = %d, want 32", h.IInterval)
	}
	if h.PInterval != 1 || h.PDenom != 1 {
		t.Errorf("PInterval/PDenom = %d/%d, want 1/1", h.PInterval, h.PDenom)
	}
	if h.Looptime != 125 {
		t.Errorf("Looptime = %d, want 125", h.Looptime)
	}
	if h.MinThrottle != 1070 || h.MaxThrottle != 2000 {
		t.Errorf("throttle range = [%d,%d], want [1070,2000]", h.MinThrottle, h.MaxThrottle)
	}
	if h.VbatRef != 420 {
		t.Errorf("VbatRef = %d, want 420", h.VbatRef)
	}
	if h.GyroScale == 0 {
		t.Errorf("GyroScale not parsed from hex value")
	}
}

func TestParsePIntervalRatio(t *testing.T) {
	h := parseText(t, "H Product:x\nH P interval:1/2\n")
	if h.PInterval != 1 || h.PDenom != 2 {
		t.Errorf("PInterval/PDenom = %d/%d, want 1/2", h.PInterval, h.PDenom)
	}
}

func TestParseFieldColumns(t *testing.T) {
	text := "H Product:x\n" +
		"H Field I name:loopIteration,time,motor[0],motor[1]\n" +
		"H Field I signed:0,0,0,0\n" +
		"H Field I predictor:0,0,5,5\n" +
		"H Field I encoding:1,1,1,1\n" +
		"H Field P name:loopIteration,time,motor[0],motor[1]\n" +
		"H Field P signed:0,0,1,1\n" +
		"H Field P predictor:6,2,6,6\n" +
		"H Field P encoding:0,0,0,0\n"

	h := parseText(t, text)
	if len(h.IFieldDefs) != 4 {
		t.Fatalf("len(IFieldDefs) = %d, want 4", len(h.IFieldDefs))
	}
	if h.IFieldDefs[2].Name != "motor[0]" {
		t.Errorf("IFieldDefs[2].Name = %q, want motor[0]", h.IFieldDefs[2].Name)
	}
	if h.IFieldDefs[2].Predictor != Motor0 {
		t.Errorf("IFieldDefs[2].Predictor = %d, want Motor0", h.IFieldDefs[2].Predictor)
	}
	if h.IFieldDefs[0].Encoding != UnsignedVB {
		t.Errorf("IFieldDefs[0].Encoding = %d, want UnsignedVB", h.IFieldDefs[0].Encoding)
	}

	if len(h.PFieldDefs) != 4 {
		t.Fatalf("len(PFieldDefs) = %d, want 4", len(h.PFieldDefs))
	}
	if h.PFieldDefs[0].Predictor != Increment {
		t.Errorf("PFieldDefs[0].Predictor = %d, want Increment", h.PFieldDefs[0].Predictor)
	}
	if h.PFieldDefs[1].Predictor != StraightLine {
		t.Errorf("PFieldDefs[1].Predictor = %d, want StraightLine", h.PFieldDefs[1].Predictor)
	}
	if !h.PFieldDefs[2].Signed {
		t.Errorf("PFieldDefs[2].Signed = false, want true")
	}
}

func TestParseStopsAtFirstNonHeaderLine(t *testing.T) {
	text := "H Product:x\nI\x01\x02\x03"
	r := reader.New([]byte(text))
	_, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	rest := string(r.PeekBytes(20))
	if !strings.HasPrefix(rest, "I") {
		t.Errorf("cursor not rewound to frame data, peek = %q", rest)
	}
}

func TestEncodingFromIntFallback(t *testing.T) {
	if got := EncodingFromInt(99); got != SignedVB {
		t.Errorf("EncodingFromInt(99) = %d, want SignedVB", got)
	}
	if got := EncodingFromInt(int(Tag8_4S16)); got != Tag8_4S16 {
		t.Errorf("EncodingFromInt(Tag8_4S16) = %d, want Tag8_4S16", got)
	}
}

func TestPredictorFromIntFallback(t *testing.T) {
	if got := PredictorFromInt(42); got != Zero {
		t.Errorf("PredictorFromInt(42) = %d, want Zero", got)
	}
}

func TestFieldIndex(t *testing.T) {
	defs := []FieldDefinition{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	if idx := FieldIndex(defs, "b"); idx != 1 {
		t.Errorf("FieldIndex(b) = %d, want 1", idx)
	}
	if idx := FieldIndex(defs, "z"); idx != -1 {
		t.Errorf("FieldIndex(z) = %d, want -1", idx)
	}
}
