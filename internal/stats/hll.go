package stats

import (
	"fmt"
	"math"
	"math/bits"
)

// DefaultPrecision is the register-index width used by Aggregate's distinct
// estimator: 2^12 = 4096 registers, roughly 1.6% standard error.
const DefaultPrecision = 12

// Estimator is a HyperLogLog cardinality estimator over 64-bit hashes.
//
// Its Merge is a register-wise max, which makes it commutative, associative,
// and idempotent; a fresh estimator is the identity. That is exactly the
// contract Aggregate.Merge needs.
type Estimator struct {
	registers []uint8
	precision uint
	alpha     float64
}

// NewEstimator returns an empty estimator with 2^precision registers.
func NewEstimator(precision uint) *Estimator {
	m := 1 << precision
	var alpha float64
	switch m {
	case 16:
		alpha = 0.673
	case 32:
		alpha = 0.697
	case 64:
		alpha = 0.709
	default:
		alpha = 0.7213 / (1.0 + 1.079/float64(m))
	}
	return &Estimator{
		registers: make([]uint8, m),
		precision: precision,
		alpha:     alpha,
	}
}

// Add observes one hashed item. The top precision bits select a register; the
// rank is the position of the first set bit in the remaining hash bits.
func (e *Estimator) Add(hash uint64) {
	idx := hash >> (64 - e.precision)
	rank := uint8(bits.LeadingZeros64(hash<<e.precision|1<<(e.precision-1)) + 1)
	if rank > e.registers[idx] {
		e.registers[idx] = rank
	}
}

// Merge folds other into e by register-wise max. Estimators must share a
// precision; a mismatch is a programming error and fails fast.
func (e *Estimator) Merge(other *Estimator) error {
	if other == nil {
		return nil
	}
	if e.precision != other.precision {
		return fmt.Errorf("estimator precision mismatch: %d != %d", e.precision, other.precision)
	}
	for i, r := range other.registers {
		if r > e.registers[i] {
			e.registers[i] = r
		}
	}
	return nil
}

// Count returns the cardinality estimate, with the standard small-range
// correction when many registers are still empty.
func (e *Estimator) Count() uint64 {
	m := float64(len(e.registers))

	sum := 0.0
	zeros := 0
	for _, r := range e.registers {
		sum += 1.0 / float64(uint64(1)<<r)
		if r == 0 {
			zeros++
		}
	}

	estimate := e.alpha * m * m / sum
	if estimate <= 2.5*m && zeros > 0 {
		estimate = m * math.Log(m/float64(zeros))
	}
	return uint64(estimate + 0.5)
}

// Equal reports whether both estimators hold identical register state.
func (e *Estimator) Equal(other *Estimator) bool {
	if e.precision != other.precision {
		return false
	}
	for i, r := range e.registers {
		if other.registers[i] != r {
			return false
		}
	}
	return true
}
