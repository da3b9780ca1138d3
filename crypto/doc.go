// Package crypto wraps the key material used to authorize Aptos transactions.
//
// Only the single-key Ed25519 scheme is supported. The primitive itself is golang.org/x/crypto/ed25519; this package
// adds the on-chain framing around it: the authentication key an address is derived from, and the BCS layout of the
// authenticator that travels inside a signed transaction.
package crypto
