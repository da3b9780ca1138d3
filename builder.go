package aptos

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Sequencing is what the ledger must tell a sender before a transaction can be assembled
type Sequencing struct {
	SequenceNumber uint64
	ChainId        uint8
}

// TransactionBuilder assembles raw transactions.  Only FetchSequencing and BuildTransaction touch the network.
type TransactionBuilder struct {
	Ledger LedgerClient

	// Now is the clock expirations are computed from, time.Now when nil
	Now func() time.Time
}

// NewTransactionBuilder creates a builder reading sequencing from ledger
func NewTransactionBuilder(ledger LedgerClient) *TransactionBuilder {
	return &TransactionBuilder{Ledger: ledger}
}

func (b *TransactionBuilder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// BuildTransfer the transfer instruction moving amount of AptosCoin to recipient
func (b *TransactionBuilder) BuildTransfer(recipient AccountAddress, amount uint64) (TransactionPayload, error) {
	return BuildTransfer(recipient, amount)
}

// FetchSequencing reads the sender's next sequence number and the chain id.  The sequence number may be consumed by
// another transaction before this one is submitted, in which case submission fails with [ErrStaleSequenceNumber].
func (b *TransactionBuilder) FetchSequencing(ctx context.Context, sender AccountAddress) (Sequencing, error) {
	info, err := b.Ledger.Account(ctx, sender)
	if err != nil {
		return Sequencing{}, err
	}
	seqNumber, err := info.SequenceNumber()
	if err != nil {
		return Sequencing{}, errors.Wrapf(err, "sequence number of %s", sender.String())
	}
	chainId, err := b.Ledger.GetChainId(ctx)
	if err != nil {
		return Sequencing{}, err
	}
	return Sequencing{SequenceNumber: seqNumber, ChainId: chainId}, nil
}

// AssembleRaw puts a raw transaction together, expiring ttl from now.  maxGas * gasPrice is the most the sender can
// be charged; it is not checked against the sender's balance.
func (b *TransactionBuilder) AssembleRaw(
	sender AccountAddress,
	payload TransactionPayload,
	sequenceNumber uint64,
	chainId uint8,
	maxGas uint64,
	gasPrice uint64,
	ttl time.Duration,
) *RawTransaction {
	return &RawTransaction{
		Sender:                     sender,
		SequenceNumber:             sequenceNumber,
		Payload:                    payload,
		MaxGasAmount:               maxGas,
		GasUnitPrice:               gasPrice,
		ExpirationTimestampSeconds: uint64(b.now().Add(ttl).Unix()),
		ChainId:                    chainId,
	}
}

// BuildTransaction builds a raw transaction, fetching whatever the options do not supply.
//
// Accepts SequenceNumber, ChainIdOption, MaxGasAmount, GasUnitPrice, EstimateGasUnitPrice, ExpirationSeconds and
// TimeToLive.  Gas defaults to DefaultMaxGasAmount at DefaultGasUnitPrice, expiring DefaultTimeToLive from now.
func (b *TransactionBuilder) BuildTransaction(ctx context.Context, sender AccountAddress, payload TransactionPayload, options ...any) (*RawTransaction, error) {
	opts, err := parseBuildOptions(options)
	if err != nil {
		return nil, err
	}

	var sequencing Sequencing
	switch {
	case opts.sequenceNumber != nil && opts.chainId != nil:
		sequencing = Sequencing{SequenceNumber: *opts.sequenceNumber, ChainId: *opts.chainId}
	case opts.sequenceNumber != nil:
		chainId, err := b.Ledger.GetChainId(ctx)
		if err != nil {
			return nil, err
		}
		sequencing = Sequencing{SequenceNumber: *opts.sequenceNumber, ChainId: chainId}
	default:
		sequencing, err = b.FetchSequencing(ctx, sender)
		if err != nil {
			return nil, err
		}
		if opts.chainId != nil {
			sequencing.ChainId = *opts.chainId
		}
	}

	gasUnitPrice := opts.gasUnitPrice
	if opts.estimateGasUnitPrice {
		estimate, err := b.Ledger.EstimateGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		gasUnitPrice = estimate.GasEstimate
	}

	rawTxn := b.AssembleRaw(sender, payload, sequencing.SequenceNumber, sequencing.ChainId, opts.maxGasAmount, gasUnitPrice, opts.ttl)
	rawTxn.ExpirationTimestampSeconds = opts.expirationFrom(b.now())
	return rawTxn, nil
}

// BuildTransaction builds a raw transaction against ledger with the default clock
//
//	payload, _ := aptos.BuildTransfer(receiver, 1_000)
//	rawTxn, err := aptos.BuildTransaction(ctx, client, sender.AccountAddress(), payload, aptos.SequenceNumber(3))
func BuildTransaction(ctx context.Context, ledger LedgerClient, sender AccountAddress, payload TransactionPayload, options ...any) (*RawTransaction, error) {
	return NewTransactionBuilder(ledger).BuildTransaction(ctx, sender, payload, options...)
}
