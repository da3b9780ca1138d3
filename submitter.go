package aptos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sidkris/aptos-transfer/api"
)

// TransactionReceipt is the ledger's final word on a transaction.  GasUsed is what was actually charged, which may
// differ from a simulation's estimate.
type TransactionReceipt struct {
	Hash           string
	Success        bool
	VmStatus       string
	GasUsed        uint64
	GasUnitPrice   uint64
	Version        uint64
	SequenceNumber uint64
}

// ActualFee is GasUsed * GasUnitPrice, in base units
func (r *TransactionReceipt) ActualFee() uint64 {
	return r.GasUsed * r.GasUnitPrice
}

func receiptFromUserTransaction(txn *api.UserTransaction) *TransactionReceipt {
	return &TransactionReceipt{
		Hash:           txn.Hash,
		Success:        txn.Success,
		VmStatus:       txn.VmStatus,
		GasUsed:        txn.GasUsed.ToUint64(),
		GasUnitPrice:   txn.GasUnitPrice.ToUint64(),
		Version:        txn.Version.ToUint64(),
		SequenceNumber: txn.SequenceNumber.ToUint64(),
	}
}

// Submitter sends signed transactions and follows them to finalization
type Submitter struct {
	Ledger LedgerClient
}

// NewSubmitter creates a submitter over ledger
func NewSubmitter(ledger LedgerClient) *Submitter {
	return &Submitter{Ledger: ledger}
}

// Submit hands the transaction to the ledger and returns its hash.  A hash does not mean the transaction succeeded.
// A sequence number that was already used is [ErrStaleSequenceNumber]; nothing is retried.
func (s *Submitter) Submit(ctx context.Context, signedTxn *SignedTransaction) (string, error) {
	response, err := s.Ledger.SubmitTransaction(ctx, signedTxn)
	if err != nil {
		return "", err
	}
	return response.Hash, nil
}

// AwaitFinalization checks the transaction every pollInterval until it is committed, successfully or not.
//
// When timeout elapses first the result is [ErrConfirmationTimeout] and the outcome is unknown: the transaction may
// still commit.  With a timeout of zero the status is checked once.  A hash the ledger does not know yet is assumed
// not indexed and waited on.  Cancelling ctx stops polling and returns ctx's error.  A non-positive pollInterval
// polls every [DefaultPollPeriod].
func (s *Submitter) AwaitFinalization(ctx context.Context, hash string, pollInterval time.Duration, timeout time.Duration) (*TransactionReceipt, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollPeriod
	}
	if timeout <= 0 {
		receipt, err := s.checkFinal(ctx, hash)
		if err != nil || receipt != nil {
			return receipt, err
		}
		return nil, errors.Wrapf(ErrConfirmationTimeout, "transaction %s not final", hash)
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := s.checkFinal(pollCtx, hash)
		if receipt != nil {
			return receipt, nil
		}
		if err != nil && pollCtx.Err() == nil {
			return nil, err
		}
		select {
		case <-pollCtx.Done():
		case <-ticker.C:
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(ErrConfirmationTimeout, "transaction %s after %s", hash, timeout)
	}
}

// checkFinal returns the receipt of a committed transaction, nil while it is pending or not yet indexed
func (s *Submitter) checkFinal(ctx context.Context, hash string) (*TransactionReceipt, error) {
	txn, err := s.Ledger.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) || IsNotFound(err) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if txn.IsPending() {
		return nil, nil
	}
	userTxn, err := txn.UserTransaction()
	if err != nil {
		return nil, err
	}
	return receiptFromUserTransaction(userTxn), nil
}

// FetchReceipt returns the receipt of a committed transaction.  An unknown or still pending hash is
// [ErrTransactionNotFound].
func (s *Submitter) FetchReceipt(ctx context.Context, hash string) (*TransactionReceipt, error) {
	txn, err := s.Ledger.TransactionByHash(ctx, hash)
	if err != nil {
		if IsNotFound(err) && !errors.Is(err, ErrTransactionNotFound) {
			return nil, errors.Wrap(ErrTransactionNotFound, err.Error())
		}
		return nil, err
	}
	if txn.IsPending() {
		return nil, errors.Wrapf(ErrTransactionNotFound, "transaction %s is pending", hash)
	}
	userTxn, err := txn.UserTransaction()
	if err != nil {
		return nil, errors.Wrap(ErrTransactionNotFound, err.Error())
	}
	return receiptFromUserTransaction(userTxn), nil
}
