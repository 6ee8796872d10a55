package bbl

import "testing"

const sampleLog = "H Product:Blackbox flight data recorder by Nicholas Sherlock\n" +
	"H I interval:1\n" +
	"H P interval:1/1\n" +
	"H looptime:1000\n" +
	"H Field I name:loopIteration\n" +
	"H Field I signed:0\n" +
	"H Field I predictor:0\n" +
	"H Field I encoding:1\n" +
	"H Field P name:loopIteration\n" +
	"H Field P signed:0\n" +
	"H Field P predictor:0\n" +
	"H Field P encoding:1\n"

func TestParseProducesOneSession(t *testing.T) {
	buf := []byte(sampleLog)
	buf = append(buf, 'I', 0x0A)

	result, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("result.Success = false, Error = %q", result.Error)
	}
	if len(result.Sessions) != 1 {
		t.Fatalf("len(Sessions) = %d, want 1", len(result.Sessions))
	}
	if result.FileSize != len(buf) {
		t.Errorf("FileSize = %d, want %d", result.FileSize, len(buf))
	}
}

func TestParseEmptyInputIsFatal(t *testing.T) {
	result, err := Parse(nil)
	if err != ErrEmptyInput {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil on fatal error", result)
	}
}

func TestParseUnrecognizedInputReportsFailureNotPanic(t *testing.T) {
	_, err := Parse([]byte("definitely not a blackbox log"))
	if err != ErrNoValidHeader {
		t.Errorf("err = %v, want ErrNoValidHeader", err)
	}
}
