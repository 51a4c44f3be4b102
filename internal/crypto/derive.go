package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidDerivedKey is returned when the derived scalar is zero or not
// less than the curve order. Practically unreachable for random entropy.
var ErrInvalidDerivedKey = errors.New("derived key is not a valid curve scalar")

const chainAddressPrefix = "eth|"

// Identity is the in-memory wallet identity: private key, checksummed address
// and the recovery phrase that produced them.
type Identity struct {
	privKey  *secp256k1.PrivateKey
	address  string
	mnemonic string
}

// Derive computes the key pair and address for a validated recovery phrase.
// Deterministic: the same phrase always yields the same identity.
func Derive(phrase string) (*Identity, error) {
	// Seed uses an empty passphrase by convention. Only the first 32 bytes
	// feed the key; the seed itself is never persisted.
	seed := bip39.NewSeed(phrase, "")
	defer clear(seed)

	identity, err := deriveFromSeed(seed)
	if err != nil {
		return nil, err
	}
	identity.mnemonic = phrase
	return identity, nil
}

func deriveFromSeed(seed []byte) (*Identity, error) {
	if len(seed) < 32 {
		return nil, fmt.Errorf("seed too short: %d bytes", len(seed))
	}

	var scalar secp256k1.ModNScalar
	overflow := scalar.SetByteSlice(seed[:32])
	if overflow || scalar.IsZero() {
		return nil, ErrInvalidDerivedKey
	}
	privKey := secp256k1.NewPrivateKey(&scalar)
	scalar.Zero()

	address, err := AddressFromPublicKey(privKey.PubKey().SerializeUncompressed())
	if err != nil {
		return nil, err
	}

	return &Identity{privKey: privKey, address: address}, nil
}

// AddressFromPublicKey computes the checksummed address for a 65-byte
// uncompressed secp256k1 public key: last 20 bytes of Keccak-256 over the key
// minus its format prefix.
func AddressFromPublicKey(uncompressed []byte) (string, error) {
	if len(uncompressed) != 65 || uncompressed[0] != 0x04 {
		return "", fmt.Errorf("not an uncompressed public key: %d bytes", len(uncompressed))
	}
	hash := keccak256(uncompressed[1:])
	return ChecksumAddress(hex.EncodeToString(hash[12:]))
}

// Address returns the checksummed 0x-prefixed address.
func (id *Identity) Address() string { return id.address }

// ChainAddress returns the network-namespaced form used in outbound
// requests: "eth|" plus the checksummed hex without its 0x prefix.
func (id *Identity) ChainAddress() string {
	return chainAddressPrefix + id.address[2:]
}

// Mnemonic returns the recovery phrase for backup display.
func (id *Identity) Mnemonic() string { return id.mnemonic }

// PublicKeyHex returns the uncompressed public key as 04-prefixed hex, the
// form the registration endpoint expects.
func (id *Identity) PublicKeyHex() string {
	return hex.EncodeToString(id.privKey.PubKey().SerializeUncompressed())
}

// Wipe zeroes the private key. The identity must not be used afterwards.
func (id *Identity) Wipe() {
	if id.privKey != nil {
		id.privKey.Zero()
	}
	id.mnemonic = ""
}
