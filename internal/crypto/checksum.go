package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ChecksumAddress applies EIP-55 mixed-case checksumming: hex letter k is
// uppercased iff the k-th hex digit of Keccak-256 of the lowercased address
// is >= 8. Accepts the address with or without 0x prefix, in any case;
// idempotent.
func ChecksumAddress(address string) (string, error) {
	addr := strings.ToLower(strings.TrimPrefix(address, "0x"))
	if len(addr) != 40 {
		return "", fmt.Errorf("address must be 40 hex characters, got %d", len(addr))
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return "", fmt.Errorf("address is not valid hex: %w", err)
	}

	hashHex := hex.EncodeToString(keccak256([]byte(addr)))

	var b strings.Builder
	b.Grow(42)
	b.WriteString("0x")
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		if c >= 'a' && c <= 'f' && hashHex[i] >= '8' {
			c = c - 'a' + 'A'
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// IsAddress reports whether s looks like a 0x-prefixed 20-byte hex address,
// in any letter case.
func IsAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
