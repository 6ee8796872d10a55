package decode

import (
	"testing"

	"github.com/flightlog/bblcore/header"
	"github.com/flightlog/bblcore/reader"
)

func testHeader() *header.LogHeader {
	return &header.LogHeader{
		IFieldDefs: []header.FieldDefinition{
			{Name: "loopIteration", Encoding: header.UnsignedVB, Predictor: header.Zero},
			{Name: "motor[0]", Encoding: header.UnsignedVB, Predictor: header.Zero},
			{Name: "motor[1]", Encoding: header.UnsignedVB, Predictor: header.Motor0},
		},
		PFieldDefs: []header.FieldDefinition{
			{Name: "loopIteration", Encoding: header.UnsignedVB, Predictor: header.Increment},
			{Name: "motor[0]", Encoding: header.UnsignedVB, Predictor: header.Previous},
			{Name: "motor[1]", Encoding: header.UnsignedVB, Predictor: header.Motor0},
		},
	}
}

func TestParseIFrame(t *testing.T) {
	h := testHeader()
	fp := New(h)
	// loopIteration=100, motor[0]=1500, motor[1] delta=50 (+motor[0]=1500 -> 1550)
	r := reader.New([]byte{0x64, 0xDC, 0x0B, 0x32})
	out := fp.ParseIFrame(r)
	want := []int32{100, 1500, 1550}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestParsePFrame(t *testing.T) {
	h := testHeader()
	fp := New(h)
	prev := []int32{100, 1500, 1550}
	r := reader.New([]byte{0x00, 0x05, 0x0A})
	out := fp.ParsePFrame(r, prev, prev)
	want := []int32{101, 1505, 1560}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestParseFieldsFixedGroupAdvancesByThree(t *testing.T) {
	h := &header.LogHeader{
		IFieldDefs: []header.FieldDefinition{
			{Name: "a", Encoding: header.Tag2_3S32, Predictor: header.Zero},
			{Name: "b", Encoding: header.Tag2_3S32, Predictor: header.Zero},
			{Name: "c", Encoding: header.Tag2_3S32, Predictor: header.Zero},
		},
	}
	fp := New(h)
	r := reader.New([]byte{0x1B})
	out := fp.ParseIFrame(r)
	want := []int32{1, -2, -1}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestParseFieldsVariableGroupRunLength(t *testing.T) {
	h := &header.LogHeader{
		IFieldDefs: []header.FieldDefinition{
			{Name: "a", Encoding: header.Tag8_8sVB, Predictor: header.Zero},
			{Name: "b", Encoding: header.Tag8_8sVB, Predictor: header.Zero},
			{Name: "c", Encoding: header.Tag8_8sVB, Predictor: header.Zero},
		},
	}
	fp := New(h)
	// tag=0b101: field b absent.
	r := reader.New([]byte{0x05, 0x02, 0x03})
	out := fp.ParseIFrame(r)
	want := []int32{1, 0, -2}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
	if !r.EOF() {
		t.Errorf("expected cursor to reach EOF after consuming the whole group, offset=%d len=%d", r.Offset(), r.Len())
	}
}

func TestParseSFrameAppliesIFramePredictors(t *testing.T) {
	h := &header.LogHeader{
		SFieldDefs: []header.FieldDefinition{
			{Name: "rssi", Encoding: header.UnsignedVB, Predictor: header.MinThrottle},
		},
		MinThrottle: 1070,
	}
	fp := New(h)
	r := reader.New([]byte{0x0A})
	out := fp.ParseSFrame(r)
	// S-frames decode Motor0Idx=-1 but IsIFrame=true, so MinThrottle predictor
	// still adds header.MinThrottle exactly like an I-frame would.
	if out[0] != 10+1070 {
		t.Errorf("out[0] = %d, want %d", out[0], 10+1070)
	}
}
