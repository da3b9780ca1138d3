package crypto

import (
	"github.com/aptos-labs/aptos-go-sdk/bcs"
)

// Signer is anything that can authorize a transaction, in memory or behind an external service.
//
// Implement this to use cold storage or a remote signer, see examples/external_signing.
type Signer interface {
	// Sign signs a message and wraps the signature in an authenticator
	Sign(msg []byte) (authenticator *AccountAuthenticator, err error)

	// SignMessage signs a message and returns the raw signature
	SignMessage(msg []byte) (signature Signature, err error)

	// SimulationAuthenticator creates an authenticator carrying the public key and an all-zero signature.
	// The node refuses to simulate transactions with a valid signature.
	SimulationAuthenticator() *AccountAuthenticator

	// AuthKey derives the authentication key, which is also the address of a freshly created account
	AuthKey() *AuthenticationKey

	// PubKey is the public half of the signing key
	PubKey() PublicKey
}

// PublicKey is the verifying half of a key pair
type PublicKey interface {
	bcs.Marshaler
	bcs.Unmarshaler

	// Bytes is the raw key material
	Bytes() []byte

	// AuthKey derives the authentication key for this public key
	AuthKey() *AuthenticationKey

	// Scheme is the byte appended to the key when deriving the authentication key
	Scheme() uint8

	// Verify checks a signature over msg
	Verify(msg []byte, sig Signature) bool
}

// Signature is a signature produced by a Signer
type Signature interface {
	bcs.Marshaler
	bcs.Unmarshaler

	// Bytes is the raw signature
	Bytes() []byte
}
