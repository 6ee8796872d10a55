package decode

import (
	"testing"

	"github.com/flightlog/bblcore/header"
)

func TestApplyIFramePredictors(t *testing.T) {
	h := &header.LogHeader{MinThrottle: 1070, VbatRef: 420}
	current := []int32{0, 0, 0}
	ctx := FrameContext{IsIFrame: true, Header: h, Current: current, Motor0Idx: 1}
	current[1] = 1500 // motor[0] already decoded earlier in this same frame

	tests := []struct {
		pred header.Predictor
		want int32
	}{
		{header.Zero, 7},
		{header.MinThrottle, 7 + 1070},
		{header.Motor0, 7 + 1500},
		{header.ServoCenter, 7 + 1500},
		{header.VBatRef, 7 + 420},
	}
	for _, tt := range tests {
		if got := Apply(tt.pred, 7, 0, ctx); got != tt.want {
			t.Errorf("I-frame predictor %d: got %d, want %d", tt.pred, got, tt.want)
		}
	}
}

func TestApplyPFramePredictors(t *testing.T) {
	h := &header.LogHeader{MinThrottle: 1070, VbatRef: 420}

	t.Run("Previous with history", func(t *testing.T) {
		ctx := FrameContext{Prev: []int32{100}, Header: h}
		if got := Apply(header.Previous, 5, 0, ctx); got != 105 {
			t.Errorf("got %d, want 105", got)
		}
	})

	t.Run("Previous with no history defaults to zero", func(t *testing.T) {
		ctx := FrameContext{Header: h}
		if got := Apply(header.Previous, 5, 0, ctx); got != 5 {
			t.Errorf("got %d, want 5", got)
		}
	})

	t.Run("StraightLine extrapolates from two priors", func(t *testing.T) {
		ctx := FrameContext{Prev: []int32{10}, Prev2: []int32{4}, Header: h}
		// decoded + 2*prev - prev2 = 3 + 20 - 4 = 19
		if got := Apply(header.StraightLine, 3, 0, ctx); got != 19 {
			t.Errorf("got %d, want 19", got)
		}
	})

	t.Run("StraightLine falls back to Previous without prev2", func(t *testing.T) {
		ctx := FrameContext{Prev: []int32{10}, Header: h}
		if got := Apply(header.StraightLine, 3, 0, ctx); got != 13 {
			t.Errorf("got %d, want 13", got)
		}
	})

	t.Run("Average2 truncates toward zero", func(t *testing.T) {
		ctx := FrameContext{Prev: []int32{-3}, Prev2: []int32{-2}, Header: h}
		// (-3 + -2) / 2 == -2 in C/Go truncating division, not -3 (floor).
		if got := Apply(header.Average2, 0, 0, ctx); got != -2 {
			t.Errorf("got %d, want -2", got)
		}
	})

	t.Run("MinThrottle defaults to header value with no history", func(t *testing.T) {
		ctx := FrameContext{Header: h}
		if got := Apply(header.MinThrottle, 0, 0, ctx); got != 1070 {
			t.Errorf("got %d, want 1070", got)
		}
	})

	t.Run("ServoCenter defaults to 1500 with no history", func(t *testing.T) {
		ctx := FrameContext{Header: h}
		if got := Apply(header.ServoCenter, 0, 0, ctx); got != 1500 {
			t.Errorf("got %d, want 1500", got)
		}
	})

	t.Run("VBatRef defaults to header value with no history", func(t *testing.T) {
		ctx := FrameContext{Header: h}
		if got := Apply(header.VBatRef, 0, 0, ctx); got != 420 {
			t.Errorf("got %d, want 420", got)
		}
	})

	t.Run("Increment adds one to previous", func(t *testing.T) {
		ctx := FrameContext{Prev: []int32{9}, Header: h}
		if got := Apply(header.Increment, 0, 0, ctx); got != 10 {
			t.Errorf("got %d, want 10", got)
		}
	})
}
