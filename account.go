package aptos

import (
	"io"

	"github.com/sidkris/aptos-transfer/crypto"
)

// TransactionSigner is a signer that also knows the on-chain address it signs for
type TransactionSigner interface {
	crypto.Signer

	// AccountAddress returns the address of the signer, this may differ from the AuthKey derived address after key
	// rotation
	AccountAddress() AccountAddress
}

// Account is an address paired with the signing capability for it.  Implements [TransactionSigner].
//
// An account is generated once and never mutated; it belongs to the flow that generated it.
type Account struct {
	Address AccountAddress
	Signer  crypto.Signer
}

// NewEd25519Account creates a fresh Ed25519 key and derives the address from it.  The random source defaults to
// crypto/rand.
func NewEd25519Account(rand ...io.Reader) (*Account, error) {
	privateKey, err := crypto.GenerateEd25519PrivateKey(rand...)
	if err != nil {
		return nil, err
	}
	return NewAccountFromSigner(privateKey)
}

// NewAccountFromSigner wraps an existing signer, e.g. one backed by cold storage.  An auth key can be given for
// accounts whose key was rotated, otherwise the address is derived from the signer's key.
func NewAccountFromSigner(signer crypto.Signer, authKey ...crypto.AuthenticationKey) (*Account, error) {
	out := &Account{Signer: signer}
	switch len(authKey) {
	case 0:
		out.Address.FromAuthKey(signer.AuthKey())
	case 1:
		out.Address.FromAuthKey(&authKey[0])
	default:
		return nil, ErrTooManyAuthKeys
	}
	return out, nil
}

// Sign signs a message, returning an appropriate authenticator for the signer
func (account *Account) Sign(message []byte) (authenticator *crypto.AccountAuthenticator, err error) {
	return account.Signer.Sign(message)
}

// SignMessage signs a message and returns the raw signature
func (account *Account) SignMessage(message []byte) (signature crypto.Signature, err error) {
	return account.Signer.SignMessage(message)
}

// SimulationAuthenticator creates a new authenticator for simulation purposes
func (account *Account) SimulationAuthenticator() *crypto.AccountAuthenticator {
	return account.Signer.SimulationAuthenticator()
}

// PubKey retrieves the public key for signature verification
func (account *Account) PubKey() crypto.PublicKey {
	return account.Signer.PubKey()
}

// AuthKey retrieves the authentication key associated with the signer
func (account *Account) AuthKey() *crypto.AuthenticationKey {
	return account.Signer.AuthKey()
}

// AccountAddress retrieves the account address
func (account *Account) AccountAddress() AccountAddress {
	return account.Address
}
