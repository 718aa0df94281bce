package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ChecksumLen is the length of a checksum in bytes.
const ChecksumLen = 32

// Checksum identifies contract code. It is the SHA-256 hash of the wasm bytecode.
type Checksum [ChecksumLen]byte

// ComputeChecksum hashes wasm bytecode.
func ComputeChecksum(code []byte) Checksum {
	return sha256.Sum256(code)
}

func (cs Checksum) String() string {
	return hex.EncodeToString(cs[:])
}

// MarshalJSON encodes the checksum as a hex string.
func (cs Checksum) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.String())
}

// UnmarshalJSON parses a hex encoded checksum.
func (cs *Checksum) UnmarshalJSON(input []byte) error {
	var hexString string
	if err := json.Unmarshal(input, &hexString); err != nil {
		return err
	}
	data, err := hex.DecodeString(hexString)
	if err != nil {
		return err
	}
	parsed, err := NewChecksum(data)
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}

// NewChecksum creates a Checksum from a byte slice of length ChecksumLen.
func NewChecksum(b []byte) (Checksum, error) {
	if len(b) != ChecksumLen {
		return Checksum{}, errors.New("got wrong number of bytes for checksum")
	}
	var cs Checksum
	copy(cs[:], b)
	return cs, nil
}

// Short returns the first bytes of the checksum in hex, for log lines.
func (cs Checksum) Short() string {
	return fmt.Sprintf("%x", cs[:4])
}
