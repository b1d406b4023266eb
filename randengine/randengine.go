// Package randengine wraps golang.org/x/exp/rand with the few
// distributions the simulation core needs, plus sub-generator forking
// (Fork). A fork takes one draw from its parent, so a child's seed
// depends on how many draws the parent made before it.
package randengine

import (
	"encoding"
	"errors"
	"sync"

	"golang.org/x/exp/rand"
)

// Engine is a seeded random source. All draws made through one Engine
// for a fixed seed and in a fixed call order are reproducible, which is
// what makes deterministic replay (spec §8 "Round-trips") possible.
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New creates an Engine seeded deterministically from seed.
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed))}
}

// Fork derives a child Engine from one draw of this Engine mixed with
// the supplied id. The draw advances this Engine, so the child's seed
// depends on every draw made before the call; the same seed, the same
// draws before the call and the same id give the same child.
func (e *Engine) Fork(id int64) *Engine {
	mixed := splitmix64(uint64(e.Int63()) ^ uint64(id))
	return New(mixed)
}

// splitmix64 is a cheap, well-distributed integer mixer; it only needs
// to scatter (seed, id) pairs, not to be cryptographically strong.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// DiscreteDistribution draws an index in [0, len(weight)) with
// probability proportional to weight[i]. Not safe for concurrent use;
// see DiscreteDistributionSafe.
func (e *Engine) DiscreteDistribution(weight []float64) int {
	total := 0.0
	for _, w := range weight {
		total += w
	}
	r := total * e.Float64()
	sum := 0.0
	for i, w := range weight {
		sum += w
		if sum > r {
			return i
		}
	}
	return len(weight) - 1
}

// PTrue returns true with probability p.
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// PTrueSafe is the mutex-guarded variant of PTrue, for use when several
// goroutines share one Engine during read-only map precomputation.
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64() < p
}

// Float64Safe is the mutex-guarded variant of Float64.
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// IntnSafe is the mutex-guarded variant of Intn.
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// MarshalBinary exports the underlying source's exact draw state, so a
// savegame can resume the identical sequence of future draws (spec.md
// §6 "Persisted state layout").
func (e *Engine) MarshalBinary() ([]byte, error) {
	m, ok := e.Rand.Source.(encoding.BinaryMarshaler)
	if !ok {
		return nil, errors.New("randengine: source does not support state export")
	}
	return m.MarshalBinary()
}

// UnmarshalBinary restores a source's draw state previously produced
// by MarshalBinary.
func (e *Engine) UnmarshalBinary(data []byte) error {
	m, ok := e.Rand.Source.(encoding.BinaryUnmarshaler)
	if !ok {
		return errors.New("randengine: source does not support state import")
	}
	return m.UnmarshalBinary(data)
}
