package audio

import "sync"

// SpectrumSource exposes a frequency-domain snapshot of playing audio.
// Each byte is one frequency bin in the range 0-255.
type SpectrumSource interface {
	Spectrum() []byte
}

// Sampler reduces a spectrum source to a normalized amplitude level.
//
// A Sampler is created detached and reports silence until a source is
// attached. Safe for concurrent use.
type Sampler struct {
	mu     sync.RWMutex
	source SpectrumSource
}

// NewSampler creates a detached sampler.
func NewSampler() *Sampler {
	return &Sampler{}
}

// Attach wires the sampler to a source. Attaching the same source again is
// a no-op; attaching a different source replaces the previous one.
func (s *Sampler) Attach(source SpectrumSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == source {
		return
	}
	s.source = source
}

// Attached reports whether a source is currently wired.
func (s *Sampler) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source != nil
}

// Sample returns the current amplitude in [0.0, 1.0]: the mean of the
// source's frequency bins scaled to unit range. Returns 0 when detached or
// when the source reports an empty spectrum.
func (s *Sampler) Sample() float64 {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()

	if source == nil {
		return 0
	}

	spectrum := source.Spectrum()
	if len(spectrum) == 0 {
		return 0
	}

	var sum float64
	for _, bin := range spectrum {
		sum += float64(bin)
	}
	return sum / float64(len(spectrum)) / 255.0
}
