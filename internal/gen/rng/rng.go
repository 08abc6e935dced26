// Package rng provides the random sources threaded through chunk population.
//
// Population draws from a single source per chunk, and the order of draws is
// part of the world format: changing how many values a placement consumes
// changes everything generated after it in that chunk.
package rng

// Random is the draw interface every placement routine consumes.
type Random interface {
	// Intn returns a value in [0,n). It panics if n <= 0.
	Intn(n int) int
	Float64() float64
	Int63() int64
}

const (
	multiplier = 0x5DEECE66D
	addend     = 0xB
	mask       = (1 << 48) - 1
)

// Java is a 48-bit linear congruential generator with the same output
// sequence as java.util.Random, so worlds seeded with the same value keep
// their layout.
type Java struct {
	seed uint64
}

func NewJava(seed int64) *Java {
	r := &Java{}
	r.SetSeed(seed)
	return r
}

func (r *Java) SetSeed(seed int64) {
	r.seed = (uint64(seed) ^ multiplier) & mask
}

func (r *Java) next(bits uint) int32 {
	r.seed = (r.seed*multiplier + addend) & mask
	return int32(r.seed >> (48 - bits))
}

func (r *Java) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn argument must be positive")
	}
	bound := int32(n)
	if bound&-bound == bound {
		return int((int64(bound) * int64(r.next(31))) >> 31)
	}
	for {
		bits := r.next(31)
		val := bits % bound
		if bits-val+(bound-1) >= 0 {
			return int(val)
		}
	}
}

// NextLong mirrors Random.nextLong: two 32-bit draws.
func (r *Java) NextLong() int64 {
	hi := int64(r.next(32))
	lo := int64(r.next(32))
	return (hi << 32) + lo
}

func (r *Java) Int63() int64 {
	return r.NextLong() & (1<<63 - 1)
}

func (r *Java) Float64() float64 {
	hi := int64(r.next(26))
	lo := int64(r.next(27))
	return float64((hi<<27)+lo) * (1.0 / (1 << 53))
}

// ForChunk returns the population source for one chunk. The seed depends
// only on the world seed and the chunk coordinates.
func ForChunk(worldSeed int64, cx, cz int) *Java {
	r := NewJava(worldSeed)
	a := r.NextLong()/2*2 + 1
	b := r.NextLong()/2*2 + 1
	r.SetSeed((int64(cx)*a + int64(cz)*b) ^ worldSeed)
	return r
}
