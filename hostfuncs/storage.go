package hostfuncs

import (
	"context"
	"errors"
	"fmt"

	"github.com/reglet-dev/cwvm/memory"
)

// ErrReadOnly is returned when a contract tries to write storage while
// answering a query.
var ErrReadOnly = errors.New("storage is read-only in this context")

func chargeBytes(env Environment, n int) error {
	return env.Gas().Consume(env.Costs().PerByte * uint64(n)) //nolint:gosec // G115: n is a bounded length
}

// DBRead implements db_read(key) -> value. A missing key yields the null
// pointer.
func DBRead(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	key, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxKeyLength)
	if err != nil {
		return nil, fmt.Errorf("db_read key: %w", err)
	}
	value, err := env.Storage().Get(key)
	if err != nil {
		return nil, fmt.Errorf("db_read: %w", err)
	}
	if err := chargeBytes(env, len(key)+len(value)); err != nil {
		return nil, err
	}
	if value == nil {
		return []uint64{0}, nil
	}
	ptr, err := passToGuest(ctx, g, value)
	if err != nil {
		return nil, fmt.Errorf("db_read value: %w", err)
	}
	return []uint64{uint64(ptr)}, nil
}

// DBWrite implements db_write(key, value).
func DBWrite(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	if env.ReadOnly() {
		return nil, ErrReadOnly
	}
	key, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxKeyLength)
	if err != nil {
		return nil, fmt.Errorf("db_write key: %w", err)
	}
	value, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 1), MaxValueLength)
	if err != nil {
		return nil, fmt.Errorf("db_write value: %w", err)
	}
	if err := chargeBytes(env, len(key)+len(value)); err != nil {
		return nil, err
	}
	if err := env.Storage().Set(key, value); err != nil {
		return nil, fmt.Errorf("db_write: %w", err)
	}
	return nil, nil
}

// DBRemove implements db_remove(key).
func DBRemove(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	if env.ReadOnly() {
		return nil, ErrReadOnly
	}
	key, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxKeyLength)
	if err != nil {
		return nil, fmt.Errorf("db_remove key: %w", err)
	}
	if err := chargeBytes(env, len(key)); err != nil {
		return nil, err
	}
	if err := env.Storage().Delete(key); err != nil {
		return nil, fmt.Errorf("db_remove: %w", err)
	}
	return nil, nil
}
