package serialization

import (
	"crypto/sha256"
	"fmt"
)

// ComputeChecksum returns the SHA-256 of the tensor data section.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares a computed checksum with the stored one.
func ValidateChecksum(computed, expected [32]byte) error {
	if computed != expected {
		return fmt.Errorf("%w: expected %x, got %x", ErrChecksumMismatch, expected[:8], computed[:8])
	}
	return nil
}
