package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/sidkris/aptos-transfer/internal/util"
	"golang.org/x/crypto/ed25519"
)

//region Ed25519PrivateKey

// Ed25519PrivateKey is an in-memory Ed25519 signing key.  Implements [Signer].
type Ed25519PrivateKey struct {
	Inner ed25519.PrivateKey
}

// GenerateEd25519PrivateKey generates a key from the given random source, or crypto/rand when none is given.
//
//	key, err := GenerateEd25519PrivateKey()
//
// A deterministic reader can be passed in tests.
func GenerateEd25519PrivateKey(rand ...io.Reader) (privateKey *Ed25519PrivateKey, err error) {
	var source io.Reader
	switch len(rand) {
	case 0:
		source = defaultRand()
	case 1:
		source = rand[0]
	default:
		return nil, fmt.Errorf("GenerateEd25519PrivateKey accepts at most one random source")
	}
	_, priv, err := ed25519.GenerateKey(source)
	if err != nil {
		return nil, err
	}
	return &Ed25519PrivateKey{Inner: priv}, nil
}

func defaultRand() io.Reader {
	return rand.Reader
}

// PubKey returns the public half of the key
func (key *Ed25519PrivateKey) PubKey() PublicKey {
	return key.PublicKey()
}

// PublicKey returns the concrete public key
func (key *Ed25519PrivateKey) PublicKey() *Ed25519PublicKey {
	pubKey := key.Inner.Public().(ed25519.PublicKey)
	return &Ed25519PublicKey{Inner: pubKey}
}

// AuthKey derives the authentication key of the public half
func (key *Ed25519PrivateKey) AuthKey() *AuthenticationKey {
	return key.PublicKey().AuthKey()
}

// SignMessage signs msg with the key
func (key *Ed25519PrivateKey) SignMessage(msg []byte) (sig Signature, err error) {
	sigBytes := ed25519.Sign(key.Inner, msg)
	signature := &Ed25519Signature{}
	copy(signature.Inner[:], sigBytes)
	return signature, nil
}

// Sign signs msg and wraps it in an Ed25519 authenticator
func (key *Ed25519PrivateKey) Sign(msg []byte) (authenticator *AccountAuthenticator, err error) {
	sig, err := key.SignMessage(msg)
	if err != nil {
		return nil, err
	}
	return &AccountAuthenticator{
		Variant: AccountAuthenticatorEd25519,
		Auth: &Ed25519Authenticator{
			PubKey: key.PublicKey(),
			Sig:    sig.(*Ed25519Signature),
		},
	}, nil
}

// SimulationAuthenticator is an authenticator with the public key and an all-zero signature
func (key *Ed25519PrivateKey) SimulationAuthenticator() *AccountAuthenticator {
	return &AccountAuthenticator{
		Variant: AccountAuthenticatorEd25519,
		Auth: &Ed25519Authenticator{
			PubKey: key.PublicKey(),
			Sig:    &Ed25519Signature{},
		},
	}
}

// Bytes returns the 32 byte seed of the key
func (key *Ed25519PrivateKey) Bytes() []byte {
	return key.Inner.Seed()
}

// FromBytes loads a key from its 32 byte seed
func (key *Ed25519PrivateKey) FromBytes(bytes []byte) error {
	if len(bytes) != ed25519.SeedSize {
		return fmt.Errorf("invalid ed25519 private key size %d", len(bytes))
	}
	key.Inner = ed25519.NewKeyFromSeed(bytes)
	return nil
}

// ToHex renders the seed as 0x-prefixed hex
func (key *Ed25519PrivateKey) ToHex() string {
	return util.BytesToHex(key.Bytes())
}

// FromHex loads a key from a hex seed
func (key *Ed25519PrivateKey) FromHex(hexStr string) error {
	bytes, err := util.ParseHex(hexStr)
	if err != nil {
		return err
	}
	return key.FromBytes(bytes)
}

//endregion

//region Ed25519PublicKey

// Ed25519PublicKey is an Ed25519 verifying key.  Implements [PublicKey].
type Ed25519PublicKey struct {
	Inner ed25519.PublicKey
}

func (key *Ed25519PublicKey) Bytes() []byte {
	return key.Inner[:]
}

func (key *Ed25519PublicKey) Scheme() uint8 {
	return Ed25519Scheme
}

func (key *Ed25519PublicKey) AuthKey() *AuthenticationKey {
	out := &AuthenticationKey{}
	out.FromPublicKey(key)
	return out
}

func (key *Ed25519PublicKey) Verify(msg []byte, sig Signature) bool {
	switch sig := sig.(type) {
	case *Ed25519Signature:
		return ed25519.Verify(key.Inner, msg, sig.Inner[:])
	default:
		return false
	}
}

// FromBytes sets the key from exactly 32 bytes
func (key *Ed25519PublicKey) FromBytes(bytes []byte) error {
	if len(bytes) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid ed25519 public key size %d", len(bytes))
	}
	key.Inner = append(ed25519.PublicKey(nil), bytes...)
	return nil
}

func (key *Ed25519PublicKey) ToHex() string {
	return util.BytesToHex(key.Bytes())
}

func (key *Ed25519PublicKey) MarshalBCS(ser *bcs.Serializer) {
	ser.WriteBytes(key.Inner)
}

func (key *Ed25519PublicKey) UnmarshalBCS(des *bcs.Deserializer) {
	kb := des.ReadBytes()
	if des.Error() != nil {
		return
	}
	if err := key.FromBytes(kb); err != nil {
		des.SetError(err)
	}
}

//endregion

//region Ed25519Signature

// Ed25519SignatureLength is the length of a raw Ed25519 signature
const Ed25519SignatureLength = ed25519.SignatureSize

// Ed25519Signature is a raw Ed25519 signature.  The zero value is the simulation signature.
type Ed25519Signature struct {
	Inner [Ed25519SignatureLength]byte
}

func (sig *Ed25519Signature) Bytes() []byte {
	return sig.Inner[:]
}

// IsZero reports whether this is the all-zero simulation signature
func (sig *Ed25519Signature) IsZero() bool {
	return sig.Inner == [Ed25519SignatureLength]byte{}
}

func (sig *Ed25519Signature) ToHex() string {
	return util.BytesToHex(sig.Bytes())
}

func (sig *Ed25519Signature) MarshalBCS(ser *bcs.Serializer) {
	ser.WriteBytes(sig.Inner[:])
}

func (sig *Ed25519Signature) UnmarshalBCS(des *bcs.Deserializer) {
	sb := des.ReadBytes()
	if des.Error() != nil {
		return
	}
	if len(sb) != Ed25519SignatureLength {
		des.SetError(fmt.Errorf("invalid ed25519 signature size %d", len(sb)))
		return
	}
	copy(sig.Inner[:], sb)
}

//endregion
