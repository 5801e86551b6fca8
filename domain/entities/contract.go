package entities

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContractMeta is the persistent per-contract record. It is mutated only by
// instantiate, migrate and admin updates.
type ContractMeta struct {
	Admin   *Addr  `json:"admin,omitempty"`
	Label   string `json:"label"`
	Creator Addr   `json:"creator"`
	IBCPort string `json:"ibc_port,omitempty"`
	CodeID  uint64 `json:"code_id"`
}

// Checksum is the sha256 of a stored code blob.
type Checksum [32]byte

func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalJSON implements json.Marshaler. Checksums travel as lowercase hex.
func (c Checksum) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Checksum) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid checksum: %w", err)
	}
	if len(raw) != len(c) {
		return fmt.Errorf("invalid checksum length %d", len(raw))
	}
	copy(c[:], raw)
	return nil
}

// CodeInfo is the registry record for an uploaded code blob.
type CodeInfo struct {
	Creator  Addr     `json:"creator"`
	Checksum Checksum `json:"checksum"`
	CodeID   uint64   `json:"code_id"`
	Pinned   bool     `json:"pinned"`
}
