package crypto

import (
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/sidkris/aptos-transfer/internal/util"
)

// AuthenticationKeyLength is the length of a SHA3-256 hash
const AuthenticationKeyLength = 32

// Ed25519Scheme is the scheme byte for single-key Ed25519 authentication keys
const Ed25519Scheme = uint8(0)

// AuthenticationKey is the hash of a public key and its scheme.  The address of an account created from a public key
// is its authentication key.
type AuthenticationKey [AuthenticationKeyLength]byte

// FromPublicKey derives the key as SHA3-256(pubkey || scheme)
func (ak *AuthenticationKey) FromPublicKey(publicKey PublicKey) {
	bytes := util.Sha3256Hash([][]byte{
		publicKey.Bytes(),
		{publicKey.Scheme()},
	})
	copy((*ak)[:], bytes)
}

// Bytes returns a copy of the key
func (ak *AuthenticationKey) Bytes() []byte {
	out := make([]byte, AuthenticationKeyLength)
	copy(out, ak[:])
	return out
}

// FromBytes sets the key from exactly 32 bytes
func (ak *AuthenticationKey) FromBytes(bytes []byte) error {
	if len(bytes) != AuthenticationKeyLength {
		return fmt.Errorf("invalid authentication key, not 32 bytes")
	}
	copy((*ak)[:], bytes)
	return nil
}

// ToHex renders the key as 0x-prefixed hex
func (ak *AuthenticationKey) ToHex() string {
	return util.BytesToHex(ak[:])
}

// FromHex parses a 0x-prefixed or bare hex key
func (ak *AuthenticationKey) FromHex(hexStr string) error {
	bytes, err := util.ParseHex(hexStr)
	if err != nil {
		return err
	}
	return ak.FromBytes(bytes)
}

func (ak *AuthenticationKey) MarshalBCS(ser *bcs.Serializer) {
	ser.FixedBytes(ak[:])
}

func (ak *AuthenticationKey) UnmarshalBCS(des *bcs.Deserializer) {
	copy((*ak)[:], des.ReadFixedBytes(AuthenticationKeyLength))
}
