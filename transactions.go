package aptos

import (
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/sidkris/aptos-transfer/crypto"
	"github.com/sidkris/aptos-transfer/internal/util"
)

//region ModuleId

// ModuleId the identifier for a module e.g. 0x1::aptos_account
type ModuleId struct {
	Address AccountAddress
	Name    string
}

func (mod ModuleId) String() string {
	return mod.Address.String() + "::" + mod.Name
}

func (mod *ModuleId) MarshalBCS(ser *bcs.Serializer) {
	mod.Address.MarshalBCS(ser)
	ser.WriteString(mod.Name)
}

func (mod *ModuleId) UnmarshalBCS(des *bcs.Deserializer) {
	mod.Address.UnmarshalBCS(des)
	mod.Name = des.ReadString()
}

//endregion

//region EntryFunction

// EntryFunction call a single published entry function, this is the transfer instruction of a transaction
type EntryFunction struct {
	Module   ModuleId
	Function string
	ArgTypes []TypeTag
	Args     [][]byte
}

// FunctionId renders the fully qualified function name, e.g. 0x1::aptos_account::transfer
func (sf *EntryFunction) FunctionId() string {
	return sf.Module.String() + "::" + sf.Function
}

func (sf *EntryFunction) MarshalBCS(ser *bcs.Serializer) {
	sf.Module.MarshalBCS(ser)
	ser.WriteString(sf.Function)
	serializeTypeTags(ser, sf.ArgTypes)
	ser.Uleb128(uint32(len(sf.Args)))
	for _, a := range sf.Args {
		ser.WriteBytes(a)
	}
}

func (sf *EntryFunction) UnmarshalBCS(des *bcs.Deserializer) {
	sf.Module.UnmarshalBCS(des)
	sf.Function = des.ReadString()
	sf.ArgTypes = deserializeTypeTags(des)
	length := des.Uleb128()
	if des.Error() != nil {
		return
	}
	sf.Args = make([][]byte, 0, length)
	for i := uint32(0); i < length; i++ {
		arg := des.ReadBytes()
		if des.Error() != nil {
			return
		}
		sf.Args = append(sf.Args, arg)
	}
}

//endregion

//region TransactionPayload

// TransactionPayloadVariant is the BCS enum tag of a [TransactionPayload]
type TransactionPayloadVariant uint32

const (
	TransactionPayloadVariantScript        TransactionPayloadVariant = 0
	TransactionPayloadVariantModuleBundle  TransactionPayloadVariant = 1 // Deprecated
	TransactionPayloadVariantEntryFunction TransactionPayloadVariant = 2
)

// TransactionPayload the actual instructions of which functions to call on chain.  Only entry functions are supported.
type TransactionPayload struct {
	Payload *EntryFunction
}

func (txn *TransactionPayload) MarshalBCS(ser *bcs.Serializer) {
	if txn == nil || txn.Payload == nil {
		ser.SetError(fmt.Errorf("nil transaction payload"))
		return
	}
	ser.Uleb128(uint32(TransactionPayloadVariantEntryFunction))
	txn.Payload.MarshalBCS(ser)
}

func (txn *TransactionPayload) UnmarshalBCS(des *bcs.Deserializer) {
	variant := TransactionPayloadVariant(des.Uleb128())
	if des.Error() != nil {
		return
	}
	switch variant {
	case TransactionPayloadVariantEntryFunction:
		txn.Payload = &EntryFunction{}
		txn.Payload.UnmarshalBCS(des)
	default:
		des.SetError(fmt.Errorf("unsupported transaction payload variant %d", variant))
	}
}

//endregion

//region RawTransaction

// RawTransactionSalt is hashed into the prefix of every signing message
const RawTransactionSalt = "APTOS::RawTransaction"

// TransactionSalt is hashed into the prefix of every transaction hash
const TransactionSalt = "APTOS::Transaction"

// userTransactionVariant is the Transaction enum tag of a user transaction
const userTransactionVariant = byte(0)

// RawTransaction representation of a transaction's parts prior to signing
//
// The sequence number must equal the sender's next expected value at submission time, otherwise the ledger rejects the
// transaction.
type RawTransaction struct {
	Sender                     AccountAddress
	SequenceNumber             uint64
	Payload                    TransactionPayload
	MaxGasAmount               uint64
	GasUnitPrice               uint64
	ExpirationTimestampSeconds uint64
	ChainId                    uint8
}

// MaxFee is the most the sender can be charged, in base units
func (txn *RawTransaction) MaxFee() uint64 {
	return txn.MaxGasAmount * txn.GasUnitPrice
}

func (txn *RawTransaction) MarshalBCS(ser *bcs.Serializer) {
	txn.Sender.MarshalBCS(ser)
	ser.U64(txn.SequenceNumber)
	txn.Payload.MarshalBCS(ser)
	ser.U64(txn.MaxGasAmount)
	ser.U64(txn.GasUnitPrice)
	ser.U64(txn.ExpirationTimestampSeconds)
	ser.U8(txn.ChainId)
}

func (txn *RawTransaction) UnmarshalBCS(des *bcs.Deserializer) {
	txn.Sender.UnmarshalBCS(des)
	txn.SequenceNumber = des.U64()
	txn.Payload.UnmarshalBCS(des)
	txn.MaxGasAmount = des.U64()
	txn.GasUnitPrice = des.U64()
	txn.ExpirationTimestampSeconds = des.U64()
	txn.ChainId = des.U8()
}

// SigningMessage generates the bytes needed to be signed by a signer
func (txn *RawTransaction) SigningMessage() (message []byte, err error) {
	txnBytes, err := bcs.Serialize(txn)
	if err != nil {
		return
	}
	prehash := RawTransactionPrehash()
	message = make([]byte, len(prehash)+len(txnBytes))
	copy(message, prehash)
	copy(message[len(prehash):], txnBytes)
	return message, nil
}

// SignedTransaction signs the raw transaction with the signer and verifies the produced signature
func (txn *RawTransaction) SignedTransaction(sender crypto.Signer) (*SignedTransaction, error) {
	message, err := txn.SigningMessage()
	if err != nil {
		return nil, err
	}
	auth, err := sender.Sign(message)
	if err != nil {
		return nil, err
	}
	if !auth.Verify(message) {
		return nil, ErrSignatureMismatch
	}
	return txn.SignedTransactionWithAuthenticator(auth)
}

// SignedTransactionWithAuthenticator pairs the raw transaction with an authenticator produced elsewhere
func (txn *RawTransaction) SignedTransactionWithAuthenticator(auth *crypto.AccountAuthenticator) (*SignedTransaction, error) {
	if auth == nil || auth.Auth == nil {
		return nil, fmt.Errorf("missing authenticator")
	}
	return &SignedTransaction{
		Transaction:   txn,
		Authenticator: auth,
	}, nil
}

var (
	rawTransactionPrehash = util.Sha3256Hash([][]byte{[]byte(RawTransactionSalt)})
	transactionPrehash    = util.Sha3256Hash([][]byte{[]byte(TransactionSalt)})
)

// RawTransactionPrehash SHA3-256 of RawTransactionSalt, the domain separator of signing messages
func RawTransactionPrehash() []byte {
	return rawTransactionPrehash
}

//endregion

//region SignedTransaction

// SignedTransaction a raw transaction plus its authenticator for a fully verifiable message
type SignedTransaction struct {
	Transaction   *RawTransaction
	Authenticator *crypto.AccountAuthenticator
}

// Verify checks the authenticator against the signing message of the raw transaction
func (txn *SignedTransaction) Verify() error {
	message, err := txn.Transaction.SigningMessage()
	if err != nil {
		return err
	}
	if !txn.Authenticator.Verify(message) {
		return ErrSignatureMismatch
	}
	return nil
}

// Hash is the transaction hash the ledger assigns on submission, as 0x-prefixed hex
func (txn *SignedTransaction) Hash() (string, error) {
	txnBytes, err := bcs.Serialize(txn)
	if err != nil {
		return "", err
	}
	hash := util.Sha3256Hash([][]byte{transactionPrehash, {userTransactionVariant}, txnBytes})
	return util.BytesToHex(hash), nil
}

func (txn *SignedTransaction) MarshalBCS(ser *bcs.Serializer) {
	if txn.Transaction == nil || txn.Authenticator == nil {
		ser.SetError(fmt.Errorf("incomplete signed transaction"))
		return
	}
	txn.Transaction.MarshalBCS(ser)
	txn.Authenticator.MarshalBCS(ser)
}

func (txn *SignedTransaction) UnmarshalBCS(des *bcs.Deserializer) {
	txn.Transaction = &RawTransaction{}
	txn.Transaction.UnmarshalBCS(des)
	if des.Error() != nil {
		return
	}
	txn.Authenticator = &crypto.AccountAuthenticator{}
	txn.Authenticator.UnmarshalBCS(des)
}

//endregion
