package crypto

import (
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
)

// AccountAuthenticatorType is the BCS enum tag of an authenticator
type AccountAuthenticatorType uint32

const (
	AccountAuthenticatorEd25519 AccountAuthenticatorType = 0
)

// AccountAuthenticator proves that the sender approved a transaction.
//
// Its layout matches the single sender Ed25519 TransactionAuthenticator, so it is written into a SignedTransaction
// as-is.
type AccountAuthenticator struct {
	Variant AccountAuthenticatorType
	Auth    *Ed25519Authenticator
}

// PubKey returns the public key carried by the authenticator
func (aa *AccountAuthenticator) PubKey() PublicKey {
	return aa.Auth.PubKey
}

// Signature returns the signature carried by the authenticator
func (aa *AccountAuthenticator) Signature() Signature {
	return aa.Auth.Sig
}

// Verify checks the signature against msg
func (aa *AccountAuthenticator) Verify(msg []byte) bool {
	if aa == nil || aa.Auth == nil {
		return false
	}
	return aa.Auth.Verify(msg)
}

func (aa *AccountAuthenticator) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(uint32(aa.Variant))
	if aa.Auth == nil {
		ser.SetError(fmt.Errorf("authenticator has no inner authenticator"))
		return
	}
	aa.Auth.MarshalBCS(ser)
}

func (aa *AccountAuthenticator) UnmarshalBCS(des *bcs.Deserializer) {
	variant := AccountAuthenticatorType(des.Uleb128())
	if des.Error() != nil {
		return
	}
	switch variant {
	case AccountAuthenticatorEd25519:
		aa.Variant = variant
		aa.Auth = &Ed25519Authenticator{}
		aa.Auth.UnmarshalBCS(des)
	default:
		des.SetError(fmt.Errorf("unsupported authenticator variant %d", variant))
	}
}

// Ed25519Authenticator is a public key and a signature made with it
type Ed25519Authenticator struct {
	PubKey *Ed25519PublicKey
	Sig    *Ed25519Signature
}

func (ea *Ed25519Authenticator) Verify(msg []byte) bool {
	if ea.PubKey == nil || ea.Sig == nil {
		return false
	}
	return ea.PubKey.Verify(msg, ea.Sig)
}

func (ea *Ed25519Authenticator) MarshalBCS(ser *bcs.Serializer) {
	ea.PubKey.MarshalBCS(ser)
	ea.Sig.MarshalBCS(ser)
}

func (ea *Ed25519Authenticator) UnmarshalBCS(des *bcs.Deserializer) {
	ea.PubKey = &Ed25519PublicKey{}
	ea.PubKey.UnmarshalBCS(des)
	if des.Error() != nil {
		return
	}
	ea.Sig = &Ed25519Signature{}
	ea.Sig.UnmarshalBCS(des)
}
