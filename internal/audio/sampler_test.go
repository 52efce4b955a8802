package audio

import (
	"math"
	"testing"
)

type fakeSource struct {
	bins []byte
}

func (f *fakeSource) Spectrum() []byte {
	return f.bins
}

func TestSample_DetachedReturnsZero(t *testing.T) {
	s := NewSampler()

	if got := s.Sample(); got != 0 {
		t.Errorf("Sample() = %v, want 0 before Attach", got)
	}
	if s.Attached() {
		t.Error("Attached() = true, want false")
	}
}

func TestSample_MeanOfSpectrum(t *testing.T) {
	tests := []struct {
		name string
		bins []byte
		want float64
	}{
		{name: "silence", bins: []byte{0, 0, 0, 0}, want: 0},
		{name: "full scale", bins: []byte{255, 255}, want: 1.0},
		{name: "half scale", bins: []byte{0, 255}, want: 0.5},
		{name: "mixed", bins: []byte{51, 102, 153}, want: 0.4},
		{name: "empty spectrum", bins: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler()
			s.Attach(&fakeSource{bins: tt.bins})

			got := s.Sample()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Sample() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttach_IdempotentAndReplace(t *testing.T) {
	s := NewSampler()
	first := &fakeSource{bins: []byte{255}}
	second := &fakeSource{bins: []byte{0}}

	s.Attach(first)
	s.Attach(first)
	if got := s.Sample(); got != 1.0 {
		t.Errorf("Sample() after double attach = %v, want 1.0", got)
	}

	s.Attach(second)
	if got := s.Sample(); got != 0 {
		t.Errorf("Sample() after replace = %v, want 0", got)
	}
}
