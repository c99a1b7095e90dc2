package tools

import (
	"math"
	"testing"
)

func TestFigureLineDropsNonFinitePoints(t *testing.T) {
	fig := &figure{}
	fig.Line([]float64{0, 1, 2, 3}, []float64{0, math.Inf(1), math.NaN(), 9})
	if len(fig.series) != 1 {
		t.Fatalf("series = %d, want 1", len(fig.series))
	}
	got := fig.series[0]
	if len(got.xs) != 2 || got.xs[0] != 0 || got.xs[1] != 3 {
		t.Fatalf("xs = %v, want the finite points only", got.xs)
	}
	if got.ys[0] != 0 || got.ys[1] != 9 {
		t.Fatalf("ys = %v", got.ys)
	}
}

func TestFigureLineAllNonFiniteLeavesEmpty(t *testing.T) {
	fig := &figure{}
	fig.Line([]float64{math.NaN(), math.Inf(-1)}, []float64{0, 1})
	if !fig.Empty() {
		t.Fatalf("expected empty figure")
	}
	if _, err := fig.Render(); err == nil {
		t.Fatalf("expected render of empty figure to fail")
	}
}

func TestFigureRenderExtremeSpan(t *testing.T) {
	// The axis span overflows float64 here; normalization must still land
	// every pixel inside the canvas.
	fig := &figure{}
	fig.Line([]float64{-1e308, 1e308}, []float64{-1e308, 1e308})
	data, err := fig.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("expected PNG output")
	}
}

func TestClampUnit(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{math.NaN(), 0},
		{math.Inf(-1), 0},
		{-0.5, 0},
		{0.25, 0.25},
		{1, 1},
		{math.Inf(1), 1},
	}
	for _, tc := range cases {
		if got := clampUnit(tc.in); got != tc.want {
			t.Fatalf("clampUnit(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
