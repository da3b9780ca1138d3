package aptos

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// Balance is an account's AptosCoin holding, in base units, as of LedgerVersion.  LedgerVersion is 0 when the node
// did not report one.
type Balance struct {
	Amount        uint64
	LedgerVersion uint64
}

// AccountProvisioner creates accounts, funds them from the faucet and reads their balances
type AccountProvisioner struct {
	Ledger LedgerClient
	Faucet FaucetClient

	// Rand is the entropy source for new keys, crypto/rand when nil
	Rand io.Reader

	// PollOptions are passed on when awaiting the faucet's transactions, e.g. PollTimeout
	PollOptions []any
}

// NewAccountProvisioner creates a provisioner over a ledger and a faucet.  The faucet may be nil if no account is
// going to be funded.
func NewAccountProvisioner(ledger LedgerClient, faucet FaucetClient) *AccountProvisioner {
	return &AccountProvisioner{Ledger: ledger, Faucet: faucet}
}

// Generate creates a fresh Ed25519 account locally.  The account does not exist on the ledger until it is funded or
// receives a transfer.
func (p *AccountProvisioner) Generate() (*Account, error) {
	var account *Account
	var err error
	if p.Rand != nil {
		account, err = NewEd25519Account(p.Rand)
	} else {
		account, err = NewEd25519Account()
	}
	if err != nil {
		return nil, errors.Wrap(err, "generate account")
	}
	return account, nil
}

// Fund asks the faucet for amount and waits until the faucet's transactions are committed, so the credit is
// observable by the next balance query.  Any failure is [ErrFunding].
func (p *AccountProvisioner) Fund(ctx context.Context, address AccountAddress, amount uint64) error {
	if p.Faucet == nil {
		return errors.Wrap(ErrFunding, "no faucet configured")
	}
	hashes, err := p.Faucet.Fund(ctx, address, amount)
	if err != nil {
		if errors.Is(err, ErrFunding) {
			return err
		}
		return errors.Wrap(ErrFunding, err.Error())
	}
	for _, hash := range hashes {
		txn, err := p.Ledger.WaitForTransaction(ctx, hash, p.PollOptions...)
		if err != nil {
			return errors.Wrapf(ErrFunding, "faucet transaction %s: %v", hash, err)
		}
		if !txn.Success {
			return errors.Wrapf(ErrFunding, "faucet transaction %s failed: %s", hash, txn.VmStatus)
		}
	}
	return nil
}

// QueryBalance reads the current balance of address.  [ErrAccountNotFound] when the ledger does not know the account.
func (p *AccountProvisioner) QueryBalance(ctx context.Context, address AccountAddress) (Balance, error) {
	return p.Ledger.AccountBalance(ctx, address)
}
