package hostfuncs

import (
	"context"
	"errors"
	"fmt"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/memory"
)

// Address functions report user errors to the guest as a string region and
// return 0 on success. Only memory and gas failures trap.

func guestError(ctx context.Context, g Guest, err error) ([]uint64, error) {
	ptr, werr := passToGuest(ctx, g, []byte(err.Error()))
	if werr != nil {
		return nil, werr
	}
	return []uint64{uint64(ptr)}, nil
}

// AddrValidate implements addr_validate(source) -> error.
func AddrValidate(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	src, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxAddressLength)
	if err != nil {
		return nil, fmt.Errorf("addr_validate: %w", err)
	}
	if err := chargeBytes(env, len(src)); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return guestError(ctx, g, errors.New("input is empty"))
	}
	if err := env.Addresses().Validate(entities.Addr(src)); err != nil {
		return guestError(ctx, g, err)
	}
	return []uint64{0}, nil
}

// AddrCanonicalize implements addr_canonicalize(source, destination) -> error.
func AddrCanonicalize(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	src, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxAddressLength)
	if err != nil {
		return nil, fmt.Errorf("addr_canonicalize: %w", err)
	}
	if err := chargeBytes(env, len(src)); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return guestError(ctx, g, errors.New("input is empty"))
	}
	canonical, err := env.Addresses().Canonicalize(entities.Addr(src))
	if err != nil {
		return guestError(ctx, g, err)
	}
	if err := memory.WriteRegion(g.Memory(), ptrParam(params, 1), canonical); err != nil {
		return nil, fmt.Errorf("addr_canonicalize: %w", err)
	}
	return []uint64{0}, nil
}

// AddrHumanize implements addr_humanize(source, destination) -> error.
func AddrHumanize(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	src, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxAddressLength)
	if err != nil {
		return nil, fmt.Errorf("addr_humanize: %w", err)
	}
	if err := chargeBytes(env, len(src)); err != nil {
		return nil, err
	}
	human, err := env.Addresses().Humanize(src)
	if err != nil {
		return guestError(ctx, g, err)
	}
	if err := memory.WriteRegion(g.Memory(), ptrParam(params, 1), []byte(human)); err != nil {
		return nil, fmt.Errorf("addr_humanize: %w", err)
	}
	return []uint64{0}, nil
}
