package pkg

import (
	"math"
	"testing"
)

func TestEMAConvergesToConstantInput(t *testing.T) {
	e := NewEMA(0.3)
	for i := 0; i < 100; i++ {
		e.Add(50)
	}
	if math.Abs(e.Value()-50) > 1e-6 {
		t.Fatalf("value = %v, want ~50", e.Value())
	}
}

func TestEMAFirstSampleSeedsValue(t *testing.T) {
	e := NewEMA(0.3)
	e.Add(120)
	if e.Value() != 120 {
		t.Fatalf("value = %v, want first sample 120", e.Value())
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{50, 0, 100, 50},
		{-5, 0, 100, 0},
		{180, 0, 100, 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
