package model

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidAddress is returned for identities that are not 20-byte hex addresses.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a caller identity in EIP-55 checksum form. The zero value is "no identity".
type Address string

// ZeroAddress is the empty identity.
const ZeroAddress Address = ""

// ParseAddress accepts a 0x-prefixed 40 hex digit address in any letter case
// and returns its checksummed form.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != 42 || (s[:2] != "0x" && s[:2] != "0X") {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	raw := strings.ToLower(s[2:])
	if _, err := hex.DecodeString(raw); err != nil {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address("0x" + checksum(raw)), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// checksum applies the EIP-55 mixed-case encoding to a lowercase hex string.
func checksum(lower string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// UnmarshalJSON normalises incoming addresses so equality checks are case-insensitive.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = ZeroAddress
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ContainsAddress reports whether list holds a.
func ContainsAddress(list []Address, a Address) bool {
	for _, item := range list {
		if item == a {
			return true
		}
	}
	return false
}
