// Package address implements ports.AddressCodec for bech32 addresses and
// derives contract addresses.
package address

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
)

// DefaultPrefix is the human-readable part used when none is configured.
const DefaultPrefix = "cosmwasm"

// Canonical address lengths accepted by Canonicalize.
const (
	MinCanonicalLength = 1
	MaxCanonicalLength = 255
)

var (
	ErrWrongPrefix    = errors.New("wrong address prefix")
	ErrNotNormalized  = errors.New("address is not normalized")
	ErrInvalidLength  = errors.New("invalid canonical address length")
	ErrEmptyCanonical = errors.New("canonical address is empty")
)

var _ ports.AddressCodec = Bech32{}

// Bech32 converts between bech32 strings with a fixed prefix and raw bytes.
type Bech32 struct {
	Prefix string
}

// NewBech32 returns a codec for prefix, or DefaultPrefix if it is empty.
func NewBech32(prefix string) Bech32 {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Bech32{Prefix: prefix}
}

// Canonicalize implements ports.AddressCodec.
func (c Bech32) Canonicalize(addr entities.Addr) ([]byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(string(addr))
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", addr, err)
	}
	if hrp != c.Prefix {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongPrefix, hrp, c.Prefix)
	}
	canonical, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", addr, err)
	}
	if len(canonical) < MinCanonicalLength || len(canonical) > MaxCanonicalLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, len(canonical))
	}
	return canonical, nil
}

// Humanize implements ports.AddressCodec.
func (c Bech32) Humanize(canonical []byte) (entities.Addr, error) {
	if len(canonical) == 0 {
		return "", ErrEmptyCanonical
	}
	if len(canonical) > MaxCanonicalLength {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, len(canonical))
	}
	data, err := bech32.ConvertBits(canonical, 8, 5, true)
	if err != nil {
		return "", err
	}
	s, err := bech32.Encode(c.Prefix, data)
	if err != nil {
		return "", err
	}
	return entities.Addr(s), nil
}

// Validate implements ports.AddressCodec. An address is valid only in its
// normalized form, the one Humanize produces for its canonical bytes.
func (c Bech32) Validate(addr entities.Addr) error {
	canonical, err := c.Canonicalize(addr)
	if err != nil {
		return err
	}
	normalized, err := c.Humanize(canonical)
	if err != nil {
		return err
	}
	if normalized != addr {
		return fmt.Errorf("%w: %q", ErrNotNormalized, addr)
	}
	return nil
}

const moduleTag = "wasm\x00"

// ContractAddress is the classic instantiate address: a hash of the code id
// and the chain-wide instance sequence.
func ContractAddress(codeID, instanceID uint64) []byte {
	h := sha256.New()
	h.Write([]byte(moduleTag))
	_ = binary.Write(h, binary.BigEndian, codeID)
	_ = binary.Write(h, binary.BigEndian, instanceID)
	return h.Sum(nil)
}

// PredictableAddress is the instantiate2 address: a hash of the code
// checksum, the creator's canonical address and the salt, each length
// prefixed so no two inputs collide.
func PredictableAddress(checksum entities.Checksum, creator, salt []byte) []byte {
	h := sha256.New()
	h.Write([]byte(moduleTag))
	for _, part := range [][]byte{checksum[:], creator, salt} {
		_ = binary.Write(h, binary.BigEndian, uint64(len(part)))
		h.Write(part)
	}
	return h.Sum(nil)
}
