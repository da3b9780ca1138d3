package aptos

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// SimulationResult is the ledger's prediction for a transaction.  EstimatedGasUnits is an estimate, the committed
// transaction may use a different amount.
type SimulationResult struct {
	EstimatedGasUnits uint64
	GasUnitPrice      uint64
	Success           bool
	VmStatus          string

	// FailureReason is the vm status when Success is false, empty otherwise
	FailureReason string
}

// EstimatedFee is EstimatedGasUnits * GasUnitPrice, in base units
func (sr *SimulationResult) EstimatedFee() uint64 {
	return sr.EstimatedGasUnits * sr.GasUnitPrice
}

// Simulator dry-runs transactions.  Simulation never changes ledger state.
type Simulator struct {
	Ledger  LedgerClient
	Builder *TransactionBuilder
}

// NewSimulator creates a simulator over ledger
func NewSimulator(ledger LedgerClient) *Simulator {
	return &Simulator{Ledger: ledger, Builder: NewTransactionBuilder(ledger)}
}

// Simulate builds a transaction for payload with fresh sequencing and dry-runs it.  Options are those of
// [TransactionBuilder.BuildTransaction].
//
// A predicted failure is not an error, it is reported in the result.
func (s *Simulator) Simulate(ctx context.Context, sender TransactionSigner, payload TransactionPayload, options ...any) (*SimulationResult, error) {
	rawTxn, err := s.Builder.BuildTransaction(ctx, sender.AccountAddress(), payload, options...)
	if err != nil {
		return nil, err
	}
	return s.SimulateRaw(ctx, sender, rawTxn)
}

// SimulateRaw dry-runs an already assembled transaction.  The transaction carries the sender's public key and an
// all zero signature, which the ledger requires for simulation.
func (s *Simulator) SimulateRaw(ctx context.Context, sender TransactionSigner, rawTxn *RawTransaction) (*SimulationResult, error) {
	signedTxn, err := rawTxn.SignedTransactionWithAuthenticator(sender.SimulationAuthenticator())
	if err != nil {
		return nil, err
	}
	userTxns, err := s.Ledger.SimulateTransaction(ctx, signedTxn)
	if err != nil {
		return nil, err
	}
	if len(userTxns) != 1 {
		return nil, fmt.Errorf("simulation returned %d transactions, expected 1", len(userTxns))
	}
	userTxn := userTxns[0]
	result := &SimulationResult{
		EstimatedGasUnits: userTxn.GasUsed.ToUint64(),
		GasUnitPrice:      userTxn.GasUnitPrice.ToUint64(),
		Success:           userTxn.Success,
		VmStatus:          userTxn.VmStatus,
	}
	if !result.Success {
		result.FailureReason = userTxn.VmStatus
	}
	return result, nil
}

// PredictedFailure is [ErrSimulationPredictsFailure] with the reason, or nil when the simulation succeeded
func (sr *SimulationResult) PredictedFailure() error {
	if sr.Success {
		return nil
	}
	return errors.Wrap(ErrSimulationPredictsFailure, sr.FailureReason)
}
