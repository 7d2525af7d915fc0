package ranking

// Source is a stream of floats in [0, 1).
type Source interface {
	Float64() float64
}

// Rand is a mulberry32 generator. The zero value is a valid generator seeded with 0.
// A Rand is not safe for concurrent use; create one per ranking run.
type Rand struct {
	state uint32
}

func NewRand(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Float64 advances the generator and returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state += 0x6d2b79f5
	t := r.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}
