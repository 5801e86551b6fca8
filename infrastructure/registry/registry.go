// Package registry implements ports.ContractRegistry as JSON records in a
// ports.Store.
package registry

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
)

var (
	codeSeqKey     = []byte("seq/code")
	instanceSeqKey = []byte("seq/instance")
)

var _ ports.ContractRegistry = (*Registry)(nil)

// Registry persists contract metadata and code info.
type Registry struct {
	store ports.Store
}

// New returns a registry persisting to store.
func New(store ports.Store) *Registry {
	return &Registry{store: store}
}

func contractKey(addr entities.Addr) []byte { return []byte("contract/" + string(addr)) }

func codeKey(id uint64) []byte { return []byte("code/" + strconv.FormatUint(id, 10)) }

func (r *Registry) getJSON(key []byte, v any) (bool, error) {
	raw, err := r.store.Get(key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Registry) setJSON(key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.store.Set(key, raw)
}

// ContractMeta implements ports.ContractRegistry.
func (r *Registry) ContractMeta(addr entities.Addr) (entities.ContractMeta, error) {
	var meta entities.ContractMeta
	found, err := r.getJSON(contractKey(addr), &meta)
	if err != nil {
		return meta, err
	}
	if !found {
		return meta, &engerrors.ContractNotFoundError{Address: string(addr)}
	}
	return meta, nil
}

// SetContractMeta implements ports.ContractRegistry.
func (r *Registry) SetContractMeta(addr entities.Addr, meta entities.ContractMeta) error {
	return r.setJSON(contractKey(addr), meta)
}

// CodeInfo implements ports.ContractRegistry.
func (r *Registry) CodeInfo(codeID uint64) (entities.CodeInfo, error) {
	var info entities.CodeInfo
	found, err := r.getJSON(codeKey(codeID), &info)
	if err != nil {
		return info, err
	}
	if !found {
		return info, &engerrors.CodeNotFoundError{CodeID: codeID}
	}
	return info, nil
}

// SetCodeInfo implements ports.ContractRegistry.
func (r *Registry) SetCodeInfo(info entities.CodeInfo) error {
	return r.setJSON(codeKey(info.CodeID), info)
}

func (r *Registry) next(key []byte) (uint64, error) {
	raw, err := r.store.Get(key)
	if err != nil {
		return 0, err
	}
	var n uint64
	if len(raw) == 8 {
		n = binary.BigEndian.Uint64(raw)
	}
	n++
	if err := r.store.Set(key, binary.BigEndian.AppendUint64(nil, n)); err != nil {
		return 0, err
	}
	return n, nil
}

// NextCodeID implements ports.ContractRegistry. Ids start at 1.
func (r *Registry) NextCodeID() (uint64, error) { return r.next(codeSeqKey) }

// NextInstanceID implements ports.ContractRegistry. Ids start at 1.
func (r *Registry) NextInstanceID() (uint64, error) { return r.next(instanceSeqKey) }
