// Package gas implements ports.GasMeter as a stack of budgets.
package gas

import (
	"errors"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
)

// ErrNoCheckpoint is returned by Pop when only the root scope is left.
var ErrNoCheckpoint = errors.New("no gas checkpoint to pop")

var _ ports.GasMeter = (*Meter)(nil)

// Meter tracks gas against nested checkpoints. The root scope holds the
// limit the meter was created with; each checkpoint caps its scope at the
// smaller of its own limit and what the enclosing scope has left.
//
// Spending is charged to every open scope, so gas burnt inside a
// checkpoint is gone for the parent too.
type Meter struct {
	remaining []uint64
	consumed  uint64
}

// NewMeter returns a meter with limit gas in its root scope.
func NewMeter(limit uint64) *Meter {
	return &Meter{remaining: []uint64{limit}}
}

// Push implements ports.GasMeter.
func (m *Meter) Push(cp ports.GasCheckpoint) error {
	budget := m.Remaining()
	if n, ok := cp.Limit(); ok && n < budget {
		budget = n
	}
	m.remaining = append(m.remaining, budget)
	return nil
}

// Pop implements ports.GasMeter.
func (m *Meter) Pop() error {
	if len(m.remaining) < 2 {
		return ErrNoCheckpoint
	}
	m.remaining = m.remaining[:len(m.remaining)-1]
	return nil
}

// Consume implements ports.GasMeter. A failed charge consumes nothing.
func (m *Meter) Consume(amount uint64) error {
	if rem := m.Remaining(); amount > rem {
		return &engerrors.OutOfGasError{Requested: amount, Remaining: rem}
	}
	for i := range m.remaining {
		m.remaining[i] -= amount
	}
	m.consumed += amount
	return nil
}

// Consumed implements ports.GasMeter.
func (m *Meter) Consumed() uint64 { return m.consumed }

// Remaining implements ports.GasMeter.
func (m *Meter) Remaining() uint64 { return m.remaining[len(m.remaining)-1] }

// Depth is the number of open checkpoints.
func (m *Meter) Depth() int { return len(m.remaining) - 1 }
