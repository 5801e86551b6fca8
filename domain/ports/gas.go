package ports

// GasCheckpoint is a scoped limit on the remaining execution budget.
// The zero value is Unlimited.
type GasCheckpoint struct {
	limit   uint64
	limited bool
}

// Unlimited inherits whatever budget the enclosing scope has left.
var Unlimited = GasCheckpoint{}

// Limited caps the scope at n, or at the enclosing scope's remaining budget
// if that is smaller.
func Limited(n uint64) GasCheckpoint {
	return GasCheckpoint{limit: n, limited: true}
}

// Limit returns the cap and whether there is one.
func (c GasCheckpoint) Limit() (uint64, bool) {
	return c.limit, c.limited
}

// GasMeter tracks consumption against a stack of checkpoints.
type GasMeter interface {
	// Push opens a checkpoint scope.
	Push(checkpoint GasCheckpoint) error
	// Pop closes the innermost scope. Gas consumed inside stays consumed.
	Pop() error
	// Consume charges amount to every open scope, failing with
	// errors.OutOfGasError if the innermost scope cannot afford it.
	Consume(amount uint64) error
	// Consumed is the total gas charged since the meter was created.
	Consumed() uint64
	// Remaining is what the innermost scope can still spend.
	Remaining() uint64
}
