package rng

// Sequence is a deterministic Source that replays scripted values. It backs
// unit tests and outcome replays; both value slices wrap around when exhausted.
type Sequence struct {
	Ints   []int
	Floats []float64

	intIdx   int
	floatIdx int
}

// Intn returns the next scripted int clamped into [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
// An empty Ints slice yields 0.
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.intIdx%len(s.Ints)]
	s.intIdx++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Float64 returns the next scripted float clamped into [0, 1).
// An empty Floats slice yields 0.
func (s *Sequence) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.floatIdx%len(s.Floats)]
	s.floatIdx++
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return 0.999999
	}
	return v
}
