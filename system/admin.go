package system

import (
	"context"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/executor"
)

// EnsureAdmin fails unless sender is the recorded admin.
func EnsureAdmin(sender entities.Addr, admin *entities.Addr) error {
	if admin == nil {
		return engerrors.ErrImmutableCantMigrate
	}
	if *admin != sender {
		return engerrors.NewSystemError(engerrors.SystemMustBeAdmin, "%s is not %s", sender, *admin)
	}
	return nil
}

// SetCodeID points contract at newCodeID. sender must be the contract's
// admin; the metadata is untouched otherwise.
func SetCodeID(vm VM, sender, contract entities.Addr, newCodeID uint64) error {
	meta, err := vm.ContractMeta(contract)
	if err != nil {
		return err
	}
	if err := EnsureAdmin(sender, meta.Admin); err != nil {
		return err
	}
	if _, err := vm.CodeInfo(newCodeID); err != nil {
		return err
	}
	meta.CodeID = newCodeID
	return vm.SetContractMeta(contract, meta)
}

// SetAdmin replaces contract's admin with newAdmin, or clears it when
// newAdmin is nil. sender must be the current admin.
func SetAdmin(vm VM, sender, contract entities.Addr, newAdmin *entities.Addr, handler EventHandler) error {
	meta, err := vm.ContractMeta(contract)
	if err != nil {
		return err
	}
	if err := EnsureAdmin(sender, meta.Admin); err != nil {
		return err
	}
	meta.Admin = newAdmin
	if err := vm.SetContractMeta(contract, meta); err != nil {
		return err
	}

	value := ""
	if newAdmin != nil {
		value = string(*newAdmin)
	}
	handler(SystemEvent{Type: EventUpdateContractAdmin, Attributes: []SystemAttribute{
		{Key: AttributeContractAddress, Value: string(contract)},
		{Key: AttributeNewAdmin, Value: value},
	}}.Event())
	return nil
}

// Migrate is the top-level migration of the VM's contract to newCodeID,
// requested by the VM's message sender. The admin check, the code id update
// and the migrate entry point on the new code share one transaction.
func Migrate(ctx context.Context, vm VM, newCodeID uint64, msg []byte) ([]byte, []entities.Event, error) {
	return transact(vm, executor.Migrate.Name(), func(handler EventHandler) ([]byte, error) {
		if err := SetCodeID(vm, vm.Info().Sender, vm.Env().Contract.Address, newCodeID); err != nil {
			return nil, err
		}
		return Continue(ctx, vm, executor.Migrate, msg, handler)
	})
}

// UpdateAdmin is the top-level admin change of the VM's contract, requested
// by the VM's message sender. A nil newAdmin makes the contract immutable.
func UpdateAdmin(vm VM, newAdmin *entities.Addr) ([]entities.Event, error) {
	_, events, err := transact(vm, string(EventUpdateContractAdmin), func(handler EventHandler) ([]byte, error) {
		return nil, SetAdmin(vm, vm.Info().Sender, vm.Env().Contract.Address, newAdmin, handler)
	})
	return events, err
}
