package ports

import "github.com/reglet-dev/cwvm/domain/entities"

// AddressCodec converts between human-readable and canonical addresses.
type AddressCodec interface {
	Validate(addr entities.Addr) error
	Canonicalize(addr entities.Addr) ([]byte, error)
	Humanize(canonical []byte) (entities.Addr, error)
}
