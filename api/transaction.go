package api

import (
	"encoding/json"
	"fmt"
)

// TransactionVariant is the "type" field of a transaction in the REST API
type TransactionVariant string

const (
	TransactionVariantPending TransactionVariant = "pending_transaction"
	TransactionVariantUser    TransactionVariant = "user_transaction"
	TransactionVariantGenesis TransactionVariant = "genesis_transaction"
	TransactionVariantBlock   TransactionVariant = "block_metadata_transaction"
	TransactionVariantUnknown TransactionVariant = "unknown"
)

// Transaction is a transaction of any variant, as returned by /transactions/by_hash.  Inner holds a
// [*PendingTransaction] or a [*UserTransaction]; other variants are kept only by type.
type Transaction struct {
	Type  TransactionVariant
	Inner any
}

// UnmarshalJSON decodes the variant named by "type" into Inner
func (o *Transaction) UnmarshalJSON(b []byte) error {
	type inner struct {
		Type string `json:"type"`
	}
	data := &inner{}
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	o.Type = TransactionVariant(data.Type)
	switch o.Type {
	case TransactionVariantPending:
		o.Inner = &PendingTransaction{}
	case TransactionVariantUser:
		o.Inner = &UserTransaction{}
	case TransactionVariantGenesis, TransactionVariantBlock:
		o.Inner = nil
		return nil
	default:
		o.Type = TransactionVariantUnknown
		o.Inner = nil
		return nil
	}
	return json.Unmarshal(b, o.Inner)
}

// MarshalJSON encodes Inner with its "type" field
func (o *Transaction) MarshalJSON() ([]byte, error) {
	switch inner := o.Inner.(type) {
	case *PendingTransaction:
		return json.Marshal(struct {
			Type TransactionVariant `json:"type"`
			*PendingTransaction
		}{TransactionVariantPending, inner})
	case *UserTransaction:
		return json.Marshal(struct {
			Type TransactionVariant `json:"type"`
			*UserTransaction
		}{TransactionVariantUser, inner})
	default:
		return json.Marshal(map[string]string{"type": string(o.Type)})
	}
}

// Hash of the transaction, if it is a variant that carries one
func (o *Transaction) Hash() string {
	switch inner := o.Inner.(type) {
	case *PendingTransaction:
		return inner.Hash
	case *UserTransaction:
		return inner.Hash
	default:
		return ""
	}
}

// IsPending reports whether the transaction is known but not yet committed
func (o *Transaction) IsPending() bool {
	return o.Type == TransactionVariantPending
}

// UserTransaction converts to a committed [UserTransaction]
func (o *Transaction) UserTransaction() (*UserTransaction, error) {
	if txn, ok := o.Inner.(*UserTransaction); ok {
		return txn, nil
	}
	return nil, fmt.Errorf("transaction type is not user: %s", o.Type)
}

// PendingTransaction is a transaction known to the node's mempool but not committed yet.  It is also the body of a
// successful submission.
//
// Example:
//
//	{
//		"hash": "0x2ae8b3a1...",
//		"sender": "0x8d1f...",
//		"sequence_number": "0",
//		"max_gas_amount": "2000",
//		"gas_unit_price": "100",
//		"expiration_timestamp_secs": "1718000600"
//	}
type PendingTransaction struct {
	Hash                    string `json:"hash"`
	Sender                  string `json:"sender"`
	SequenceNumber          U64    `json:"sequence_number"`
	MaxGasAmount            U64    `json:"max_gas_amount"`
	GasUnitPrice            U64    `json:"gas_unit_price"`
	ExpirationTimestampSecs U64    `json:"expiration_timestamp_secs"`
}

// SubmitTransactionResponse is the body of a successful POST /transactions
type SubmitTransactionResponse = PendingTransaction

// UserTransaction is a committed (or simulated) user transaction
//
// Success and VmStatus describe the outcome; GasUsed is in gas units, multiply by GasUnitPrice for the fee.
type UserTransaction struct {
	Version                 U64    `json:"version"`
	Hash                    string `json:"hash"`
	Sender                  string `json:"sender"`
	SequenceNumber          U64    `json:"sequence_number"`
	MaxGasAmount            U64    `json:"max_gas_amount"`
	GasUnitPrice            U64    `json:"gas_unit_price"`
	GasUsed                 U64    `json:"gas_used"`
	ExpirationTimestampSecs U64    `json:"expiration_timestamp_secs"`
	Success                 bool   `json:"success"`
	VmStatus                string `json:"vm_status"`
	Timestamp               U64    `json:"timestamp"`
}

// Fee is the amount charged to the sender, in base units
func (txn *UserTransaction) Fee() uint64 {
	return txn.GasUsed.ToUint64() * txn.GasUnitPrice.ToUint64()
}
