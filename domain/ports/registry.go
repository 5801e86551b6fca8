package ports

import "github.com/reglet-dev/cwvm/domain/entities"

// ContractRegistry persists contract and code metadata.
type ContractRegistry interface {
	// ContractMeta returns errors.ContractNotFoundError for unknown addresses.
	ContractMeta(addr entities.Addr) (entities.ContractMeta, error)
	SetContractMeta(addr entities.Addr, meta entities.ContractMeta) error
	// CodeInfo returns errors.CodeNotFoundError for unknown ids.
	CodeInfo(codeID uint64) (entities.CodeInfo, error)
	SetCodeInfo(info entities.CodeInfo) error
	NextCodeID() (uint64, error)
	NextInstanceID() (uint64, error)
}

// CodeStore holds code blobs by checksum.
type CodeStore interface {
	Put(code []byte) (entities.Checksum, error)
	// Get returns errors.CodeNotFoundError when the checksum is unknown.
	Get(checksum entities.Checksum) ([]byte, error)
	Close() error
}
