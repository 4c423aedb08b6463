// Package seed derives the per-token randomness used to drive style programs.
//
// The derivation reproduces the on-chain computation
//
//	uint32(bytes4(keccak256(abi.encodePacked(address(collection), tokenId))))
//
// byte for byte, so a seed computed off-chain always equals the randomness
// the ledger records for the same token.
package seed

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// AddressLength is the size of an account or contract address in bytes.
const AddressLength = 20

// Address is a raw 20-byte contract address.
type Address [AddressLength]byte

// maxTokenID is 2^256 - 1, the largest value of a uint256 token id.
var maxTokenID = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseAddress parses a hex address with or without the 0x prefix.
// Checksum casing is accepted but not verified.
func ParseAddress(s string) (Address, error) {
	var a Address
	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(h) != 2*AddressLength {
		return a, errors.New(errors.ErrCodeInvalidAddress, "address must be %d hex digits, got %q", 2*AddressLength, s)
	}
	if _, err := hex.Decode(a[:], []byte(h)); err != nil {
		return a, errors.Wrap(errors.ErrCodeInvalidAddress, err, "address %q is not hex", s)
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes converts a raw byte slice to an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, errors.New(errors.ErrCodeInvalidAddress, "address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String returns the lowercase 0x-prefixed hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseTokenID parses a decimal or 0x-prefixed hexadecimal token id.
// Signs are rejected in either form.
func ParseTokenID(input string) (*big.Int, error) {
	s := strings.TrimSpace(input)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	if s == "" || s[0] == '+' || s[0] == '-' {
		return nil, errors.New(errors.ErrCodeInvalidTokenID, "token id %q is not an unsigned integer", input)
	}
	id, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidTokenID, "token id %q is not an unsigned integer", input)
	}
	if err := checkTokenID(id); err != nil {
		return nil, err
	}
	return id, nil
}

func checkTokenID(id *big.Int) error {
	if id == nil {
		return errors.New(errors.ErrCodeInvalidTokenID, "token id is required")
	}
	if id.Sign() < 0 {
		return errors.New(errors.ErrCodeInvalidTokenID, "token id must not be negative")
	}
	if id.Cmp(maxTokenID) > 0 {
		return errors.New(errors.ErrCodeInvalidTokenID, "token id does not fit in 256 bits")
	}
	return nil
}

// Derive computes the 32-bit seed for (collection, tokenID).
// It hashes the 20 address bytes followed by the token id left-padded to a
// 32-byte big-endian word and returns the first four hash bytes big-endian.
func Derive(collection Address, tokenID *big.Int) (uint32, error) {
	if err := checkTokenID(tokenID); err != nil {
		return 0, err
	}

	var packed [AddressLength + 32]byte
	copy(packed[:AddressLength], collection[:])
	tokenID.FillBytes(packed[AddressLength:])

	h := sha3.NewLegacyKeccak256()
	h.Write(packed[:])
	sum := h.Sum(nil)
	return binary.BigEndian.Uint32(sum[:4]), nil
}

// DeriveString parses collection and token id and derives the seed.
func DeriveString(collection, tokenID string) (uint32, error) {
	addr, err := ParseAddress(collection)
	if err != nil {
		return 0, err
	}
	id, err := ParseTokenID(tokenID)
	if err != nil {
		return 0, err
	}
	return Derive(addr, id)
}
