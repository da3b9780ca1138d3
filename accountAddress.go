package aptos

import (
	"fmt"
	"strings"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/sidkris/aptos-transfer/crypto"
	"github.com/sidkris/aptos-transfer/internal/util"
)

// AccountAddressLength is the fixed length of an address
const AccountAddressLength = 32

// AccountAddress a 32-byte representation of an on-chain address
//
// Implements:
//   - [bcs.Marshaler]
//   - [bcs.Unmarshaler]
//   - [fmt.Stringer]
type AccountAddress [AccountAddressLength]byte

// AccountZero is [AccountAddress] 0x0
var AccountZero = AccountAddress{}

// AccountOne is [AccountAddress] 0x1, home of the framework modules
var AccountOne = AccountAddress{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

// IsSpecial Returns whether the address is a "special" address. Addresses are considered
// special if the first 63 characters of the hex string are zero. In other words, an address
// is special if the first 31 bytes are zero and the last byte is smaller than `0b10000` (16).
// In other words, special is defined as an address that matches the following regex:
// `^0x0{63}[0-9a-f]$`. In short form this means the addresses in the range from `0x0`
// to `0xf` (inclusive) are special.
// For more details see the v1 address standard defined as part of AIP-40:
// https://github.com/aptos-foundation/AIPs/blob/main/aips/aip-40.md
func (aa *AccountAddress) IsSpecial() bool {
	for _, b := range aa[:31] {
		if b != 0 {
			return false
		}
	}
	return aa[31] < 0x10
}

// String Returns the canonical string representation of the [AccountAddress]
//
// Please use [AccountAddress.StringLong] for all indexer queries.
func (aa AccountAddress) String() string {
	if aa.IsSpecial() {
		return fmt.Sprintf("0x%x", aa[31])
	}
	return util.BytesToHex(aa[:])
}

// StringLong Returns the long string representation of the AccountAddress
//
// This is most commonly used for all indexer queries.
func (aa *AccountAddress) StringLong() string {
	return util.BytesToHex(aa[:])
}

// Base58 Returns the base58 representation of the address, as printed by some wallets
func (aa *AccountAddress) Base58() string {
	return base58.Encode(aa[:])
}

// ParseStringRelaxed parses a string into an AccountAddress
//
// Accepts 0x-prefixed hex in short or long form, bare hex, and base58.  A bare string is treated as hex when it only
// contains hex digits, otherwise as base58.
func (aa *AccountAddress) ParseStringRelaxed(text string) error {
	if text == "" {
		return ErrAddressEmpty
	}
	if strings.HasPrefix(text, "0x") {
		return aa.parseHex(text[2:])
	}
	if isHex(text) {
		return aa.parseHex(text)
	}
	decoded := base58.Decode(text)
	if len(decoded) != AccountAddressLength {
		return ErrAddressInvalid
	}
	copy((*aa)[:], decoded)
	return nil
}

func (aa *AccountAddress) parseHex(text string) error {
	if len(text) == 0 {
		return ErrAddressTooShort
	}
	if len(text) > 2*AccountAddressLength {
		return ErrAddressTooLong
	}
	if len(text)%2 != 0 {
		text = "0" + text
	}
	bytes, err := util.ParseHex(text)
	if err != nil {
		return err
	}
	*aa = AccountAddress{}
	copy((*aa)[AccountAddressLength-len(bytes):], bytes)
	return nil
}

func isHex(text string) bool {
	for _, c := range text {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// FromAuthKey converts a [crypto.AuthenticationKey] to an [AccountAddress]
func (aa *AccountAddress) FromAuthKey(authKey *crypto.AuthenticationKey) {
	copy(aa[:], authKey[:])
}

// AuthKey converts the address back to an authentication key
func (aa *AccountAddress) AuthKey() *crypto.AuthenticationKey {
	authKey := &crypto.AuthenticationKey{}
	copy(authKey[:], aa[:])
	return authKey
}

// MarshalBCS Converts the AccountAddress to BCS encoded bytes
func (aa *AccountAddress) MarshalBCS(ser *bcs.Serializer) {
	ser.FixedBytes(aa[:])
}

// UnmarshalBCS Converts the AccountAddress from BCS encoded bytes
func (aa *AccountAddress) UnmarshalBCS(des *bcs.Deserializer) {
	copy(aa[:], des.ReadFixedBytes(AccountAddressLength))
}

// MarshalText renders the long form, so map keys and JSON stay unambiguous
func (aa AccountAddress) MarshalText() ([]byte, error) {
	return []byte(aa.StringLong()), nil
}

// UnmarshalText accepts anything [AccountAddress.ParseStringRelaxed] accepts
func (aa *AccountAddress) UnmarshalText(text []byte) error {
	return aa.ParseStringRelaxed(string(text))
}
