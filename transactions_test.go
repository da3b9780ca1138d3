package aptos

import (
	"strings"
	"testing"
	"time"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRawTransaction(t *testing.T, sender AccountAddress, recipient AccountAddress) *RawTransaction {
	payload, err := BuildTransfer(recipient, 1_000)
	require.NoError(t, err)
	builder := &TransactionBuilder{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }}
	return builder.AssembleRaw(sender, payload, 7, 4, DefaultMaxGasAmount, DefaultGasUnitPrice, DefaultTimeToLive)
}

func TestRawTransactionBCS(t *testing.T) {
	sender, err := NewEd25519Account()
	require.NoError(t, err)
	rawTxn := testRawTransaction(t, sender.Address, AccountOne)
	assert.Equal(t, uint64(1_700_000_600), rawTxn.ExpirationTimestampSeconds)
	assert.Equal(t, uint64(200_000), rawTxn.MaxFee())

	txnBytes, err := bcs.Serialize(rawTxn)
	require.NoError(t, err)
	// address, then the sequence number little endian
	assert.Equal(t, sender.Address[:], txnBytes[:32])
	assert.Equal(t, []byte{7, 0, 0, 0, 0, 0, 0, 0}, txnBytes[32:40])
	// entry function variant
	assert.Equal(t, byte(TransactionPayloadVariantEntryFunction), txnBytes[40])
	// chain id closes the transaction
	assert.Equal(t, byte(4), txnBytes[len(txnBytes)-1])

	decoded := &RawTransaction{}
	require.NoError(t, bcs.Deserialize(decoded, txnBytes))
	assert.Equal(t, rawTxn, decoded)
	assert.Equal(t, "0x1::aptos_account::transfer", decoded.Payload.Payload.FunctionId())
}

func TestSigningMessagePrefix(t *testing.T) {
	sender, err := NewEd25519Account()
	require.NoError(t, err)
	rawTxn := testRawTransaction(t, sender.Address, AccountOne)

	message, err := rawTxn.SigningMessage()
	require.NoError(t, err)
	prehash := RawTransactionPrehash()
	assert.Len(t, prehash, 32)
	assert.Equal(t, prehash, message[:32])

	txnBytes, err := bcs.Serialize(rawTxn)
	require.NoError(t, err)
	assert.Equal(t, txnBytes, message[32:])
}

func TestSignedTransaction(t *testing.T) {
	sender, err := NewEd25519Account()
	require.NoError(t, err)
	rawTxn := testRawTransaction(t, sender.Address, AccountOne)

	first, err := rawTxn.SignedTransaction(sender)
	require.NoError(t, err)
	second, err := rawTxn.SignedTransaction(sender)
	require.NoError(t, err)
	assert.NoError(t, first.Verify())
	assert.NoError(t, second.Verify())

	firstHash, err := first.Hash()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(firstHash, "0x"))
	assert.Len(t, firstHash, 66)
	secondHash, err := second.Hash()
	require.NoError(t, err)
	// ed25519 signatures are deterministic
	assert.Equal(t, firstHash, secondHash)

	txnBytes, err := bcs.Serialize(first)
	require.NoError(t, err)
	decoded := &SignedTransaction{}
	require.NoError(t, bcs.Deserialize(decoded, txnBytes))
	assert.NoError(t, decoded.Verify())
	decodedHash, err := decoded.Hash()
	require.NoError(t, err)
	assert.Equal(t, firstHash, decodedHash)

	// changing any field breaks the signature
	decoded.Transaction.SequenceNumber++
	assert.ErrorIs(t, decoded.Verify(), ErrSignatureMismatch)
}

func TestSimulationAuthenticatorDoesNotVerify(t *testing.T) {
	sender, err := NewEd25519Account()
	require.NoError(t, err)
	rawTxn := testRawTransaction(t, sender.Address, AccountOne)

	simulation, err := rawTxn.SignedTransactionWithAuthenticator(sender.SimulationAuthenticator())
	require.NoError(t, err)
	assert.ErrorIs(t, simulation.Verify(), ErrSignatureMismatch)
	assert.Equal(t, sender.PubKey().Bytes(), simulation.Authenticator.PubKey().Bytes())

	_, err = rawTxn.SignedTransactionWithAuthenticator(nil)
	assert.Error(t, err)
}

func TestSignedTransactionIncomplete(t *testing.T) {
	_, err := bcs.Serialize(&SignedTransaction{})
	assert.Error(t, err)
	_, err = bcs.Serialize(&RawTransaction{})
	assert.Error(t, err)
}
