package pcg

import (
	"math"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		in   uint32
		want uint32
	}{
		{0, 129708002},
		{1, 2831084092},
		{153544, 565495189},
		{42, 1223963391},
		{1223963391, 2785308739},
	}

	for _, tt := range tests {
		if got := Hash(tt.in); got != tt.want {
			t.Errorf("Hash(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFloatStream(t *testing.T) {
	seed := uint32(42)
	want := []float64{
		0.2849761842016541,
		0.6485052266271099,
		0.9323613638832143,
		0.6734746521509892,
	}

	for i, w := range want {
		got := Float(&seed)
		if math.Abs(got-w) > 1e-12 {
			t.Errorf("draw %d = %v, want %v", i, got, w)
		}
	}
	if seed != 2892551605 {
		t.Errorf("seed after 4 draws = %d, want 2892551605", seed)
	}
}

func TestFloatRange(t *testing.T) {
	seed := uint32(7)
	for range 10000 {
		f := Float(&seed)
		if f < 0 || f > 1 {
			t.Fatalf("Float out of range: %v", f)
		}
	}
}

func TestVec3Order(t *testing.T) {
	seed := uint32(42)
	v := Vec3(&seed)
	if math.Abs(v.X-0.2849761842016541) > 1e-12 ||
		math.Abs(v.Y-0.6485052266271099) > 1e-12 ||
		math.Abs(v.Z-0.9323613638832143) > 1e-12 {
		t.Errorf("Vec3 = %v", v)
	}
}

func TestDirectionIsUnit(t *testing.T) {
	seed := uint32(99)
	var mean [3]float64
	const n = 20000
	for range n {
		d := Direction(&seed)
		if l := d.Len(); math.Abs(l-1) > 1e-9 {
			t.Fatalf("Direction length = %v", l)
		}
		mean[0] += d.X
		mean[1] += d.Y
		mean[2] += d.Z
	}
	for i, m := range mean {
		if math.Abs(m/n) > 0.05 {
			t.Errorf("axis %d mean = %v, expected near 0", i, m/n)
		}
	}
}

func TestDeterminism(t *testing.T) {
	a, b := uint32(5), uint32(5)
	for range 100 {
		if Normal(&a) != Normal(&b) {
			t.Fatal("same seed produced different streams")
		}
	}
}

func BenchmarkHash(b *testing.B) {
	s := uint32(1)
	for b.Loop() {
		s = Hash(s)
	}
}
