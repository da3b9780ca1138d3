package aptos

import (
	"context"

	"github.com/pkg/errors"
)

// TransactionSignerService signs raw transactions for accounts, assembling them first when given a bare payload
type TransactionSignerService struct {
	Builder *TransactionBuilder
}

// NewTransactionSignerService creates a signer that fetches the chain id from ledger when it has to assemble
func NewTransactionSignerService(ledger LedgerClient) *TransactionSignerService {
	return &TransactionSignerService{Builder: NewTransactionBuilder(ledger)}
}

// Sign signs rawTxn with account's key.  The signature is verified before it is returned; a signature that does not
// verify is [ErrSignatureMismatch].
func (s *TransactionSignerService) Sign(account TransactionSigner, rawTxn *RawTransaction) (*SignedTransaction, error) {
	if rawTxn.Sender != account.AccountAddress() {
		return nil, errors.Errorf("transaction sender %s is not the signing account %s", rawTxn.Sender.String(), account.AccountAddress().String())
	}
	return rawTxn.SignedTransaction(account)
}

// SignPayload assembles payload at sequenceNumber and signs it.  Options are those of
// [TransactionBuilder.BuildTransaction]; the chain id is fetched unless given.
func (s *TransactionSignerService) SignPayload(ctx context.Context, account TransactionSigner, payload TransactionPayload, sequenceNumber uint64, options ...any) (*SignedTransaction, error) {
	opts := append(append([]any{}, options...), SequenceNumber(sequenceNumber))
	rawTxn, err := s.Builder.BuildTransaction(ctx, account.AccountAddress(), payload, opts...)
	if err != nil {
		return nil, err
	}
	return s.Sign(account, rawTxn)
}
