package aptos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sidkris/aptos-transfer/internal/journal"
	"github.com/sidkris/aptos-transfer/internal/metrics"
)

// Recorder keeps track of transactions as they move through their states.  Implemented by the badger journal.
type Recorder interface {
	Record(entry journal.Entry) error
}

// TransferRequest describes one transfer.  Zero gas and timing fields take the package defaults.
type TransferRequest struct {
	Sender    TransactionSigner
	Recipient AccountAddress
	Amount    uint64

	MaxGasAmount uint64
	GasUnitPrice uint64
	TimeToLive   time.Duration

	// Simulate dry-runs the transaction before signing it
	Simulate bool
	// AbortOnPredictedFailure stops the flow with ErrSimulationPredictsFailure when the dry run predicts failure
	AbortOnPredictedFailure bool

	PollInterval time.Duration
	// Timeout bounds the wait for finalization.  Zero or negative checks the status once.
	Timeout time.Duration
}

// TransferReport is everything a transfer observed.  Estimated values come from the simulation and actual values
// from the receipt; they are never mixed.
type TransferReport struct {
	Sender    AccountAddress
	Recipient AccountAddress
	Amount    uint64

	SenderBalanceBefore    Balance
	RecipientBalanceBefore Balance
	// RecipientExisted is false when the recipient was created by this transfer
	RecipientExisted bool

	Transaction *RawTransaction
	Simulation  *SimulationResult
	Hash        string
	Receipt     *TransactionReceipt
	States      StateHistory

	SenderBalanceAfter    Balance
	RecipientBalanceAfter Balance
}

// SenderSpend is how much the sender's balance went down, transfer and fee together
func (r *TransferReport) SenderSpend() uint64 {
	if r.SenderBalanceBefore.Amount < r.SenderBalanceAfter.Amount {
		return 0
	}
	return r.SenderBalanceBefore.Amount - r.SenderBalanceAfter.Amount
}

// RecipientGain is how much the recipient's balance went up
func (r *TransferReport) RecipientGain() uint64 {
	if r.RecipientBalanceAfter.Amount < r.RecipientBalanceBefore.Amount {
		return 0
	}
	return r.RecipientBalanceAfter.Amount - r.RecipientBalanceBefore.Amount
}

// EstimatedFee is the simulation's fee prediction, 0 when no simulation ran
func (r *TransferReport) EstimatedFee() uint64 {
	if r.Simulation == nil {
		return 0
	}
	return r.Simulation.EstimatedFee()
}

// ActualFee is the fee charged by the ledger, 0 before a receipt exists
func (r *TransferReport) ActualFee() uint64 {
	if r.Receipt == nil {
		return 0
	}
	return r.Receipt.ActualFee()
}

// TransferFlow runs build, simulate, sign, submit and confirm for one transfer at a time.  A flow holds no state
// between runs, but two runs for the same sender must not overlap or they race for the sequence number.
type TransferFlow struct {
	Provisioner *AccountProvisioner
	Builder     *TransactionBuilder
	Simulator   *Simulator
	Signer      *TransactionSignerService
	Submitter   *Submitter

	Logger  zerolog.Logger
	Metrics *metrics.Flow
	Journal Recorder
}

// NewTransferFlow wires every component over ledger and faucet.  The faucet may be nil if nothing is funded.
func NewTransferFlow(ledger LedgerClient, faucet FaucetClient) *TransferFlow {
	builder := NewTransactionBuilder(ledger)
	return &TransferFlow{
		Provisioner: NewAccountProvisioner(ledger, faucet),
		Builder:     builder,
		Simulator:   &Simulator{Ledger: ledger, Builder: builder},
		Signer:      &TransactionSignerService{Builder: builder},
		Submitter:   NewSubmitter(ledger),
		Logger:      zerolog.Nop(),
	}
}

// stage runs fn as the named stage, timing it and wrapping its error
func (f *TransferFlow) stage(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	f.Metrics.ObserveStage(string(stage), err, time.Since(start))
	if err != nil {
		f.Logger.Error().Err(err).Str("stage", string(stage)).Msg("Transfer stage failed")
		return stageError(stage, err)
	}
	return nil
}

func (f *TransferFlow) record(entry journal.Entry) {
	if f.Journal == nil {
		return
	}
	if err := f.Journal.Record(entry); err != nil {
		f.Logger.Warn().Err(err).Str("hash", entry.Hash).Msg("Failed to journal transaction")
	}
}

// Run performs the transfer.  Every failure aborts and is a *StageError naming the stage; errors.Is reaches the
// cause.  On error the partial report is returned too.
func (f *TransferFlow) Run(ctx context.Context, request TransferRequest) (*TransferReport, error) {
	if request.Sender == nil {
		return nil, stageError(StageBuild, errors.New("no sender"))
	}
	applyTransferDefaults(&request)
	sender := request.Sender.AccountAddress()
	report := &TransferReport{
		Sender:    sender,
		Recipient: request.Recipient,
		Amount:    request.Amount,
	}

	err := f.stage(StageBalance, func() error {
		var err error
		report.SenderBalanceBefore, err = f.Provisioner.QueryBalance(ctx, sender)
		if err != nil {
			return err
		}
		report.RecipientBalanceBefore, report.RecipientExisted, err = f.recipientBalance(ctx, request.Recipient)
		return err
	})
	if err != nil {
		return report, err
	}
	f.Logger.Info().
		Str("sender", sender.String()).
		Uint64("senderBalance", report.SenderBalanceBefore.Amount).
		Str("recipient", request.Recipient.String()).
		Uint64("recipientBalance", report.RecipientBalanceBefore.Amount).
		Msg("Initial balances")

	var payload TransactionPayload
	err = f.stage(StageBuild, func() error {
		var err error
		payload, err = f.Builder.BuildTransfer(request.Recipient, request.Amount)
		if err != nil {
			return err
		}
		sequencing, err := f.Builder.FetchSequencing(ctx, sender)
		if err != nil {
			return err
		}
		report.Transaction = f.Builder.AssembleRaw(sender, payload, sequencing.SequenceNumber, sequencing.ChainId,
			request.MaxGasAmount, request.GasUnitPrice, request.TimeToLive)
		return report.States.Advance(StateBuilt)
	})
	if err != nil {
		return report, err
	}
	f.Logger.Info().
		Str("function", payload.Payload.FunctionId()).
		Uint64("sequenceNumber", report.Transaction.SequenceNumber).
		Uint64("maxGasAmount", report.Transaction.MaxGasAmount).
		Uint64("gasUnitPrice", report.Transaction.GasUnitPrice).
		Time("expiration", time.Unix(int64(report.Transaction.ExpirationTimestampSeconds), 0)).
		Msg("Transaction built")

	if request.Simulate {
		err = f.stage(StageSimulate, func() error {
			var err error
			report.Simulation, err = f.Simulator.SimulateRaw(ctx, request.Sender, report.Transaction)
			if err != nil {
				return err
			}
			if request.AbortOnPredictedFailure {
				if err = report.Simulation.PredictedFailure(); err != nil {
					return err
				}
			}
			return report.States.Advance(StateSimulated)
		})
		if err != nil {
			return report, err
		}
		f.Logger.Info().
			Uint64("estimatedGasUnits", report.Simulation.EstimatedGasUnits).
			Uint64("estimatedFee", report.Simulation.EstimatedFee()).
			Bool("wouldSucceed", report.Simulation.Success).
			Str("vmStatus", report.Simulation.VmStatus).
			Msg("Transaction simulated")
	}

	var signedTxn *SignedTransaction
	err = f.stage(StageSign, func() error {
		var err error
		signedTxn, err = f.Signer.Sign(request.Sender, report.Transaction)
		if err != nil {
			return err
		}
		report.Hash, err = signedTxn.Hash()
		if err != nil {
			return err
		}
		return report.States.Advance(StateSigned)
	})
	if err != nil {
		return report, err
	}
	f.Logger.Info().Str("hash", report.Hash).Msg("Transaction signed")
	f.record(f.journalEntry(report))

	err = f.stage(StageSubmit, func() error {
		hash, err := f.Submitter.Submit(ctx, signedTxn)
		if err != nil {
			return err
		}
		if hash != report.Hash {
			f.Logger.Warn().Str("local", report.Hash).Str("ledger", hash).Msg("Ledger reported a different transaction hash")
			report.Hash = hash
		}
		return report.States.Advance(StateSubmitted)
	})
	if err != nil {
		return report, err
	}
	f.Logger.Info().Str("hash", report.Hash).Msg("Transaction submitted")
	f.record(f.journalEntry(report))

	err = f.stage(StageAwait, func() error {
		var err error
		report.Receipt, err = f.Submitter.AwaitFinalization(ctx, report.Hash, request.PollInterval, request.Timeout)
		if err != nil {
			return err
		}
		if report.Receipt.Success {
			return report.States.Advance(StateCommitted)
		}
		return report.States.Advance(StateRejected)
	})
	if err != nil {
		return report, err
	}
	f.Logger.Info().
		Str("hash", report.Receipt.Hash).
		Bool("success", report.Receipt.Success).
		Str("vmStatus", report.Receipt.VmStatus).
		Uint64("gasUsed", report.Receipt.GasUsed).
		Uint64("fee", report.Receipt.ActualFee()).
		Msg("Transaction finalized")
	f.record(f.journalEntry(report))

	err = f.stage(StageBalance, func() error {
		var err error
		report.SenderBalanceAfter, err = f.Provisioner.QueryBalance(ctx, sender)
		if err != nil {
			return err
		}
		report.RecipientBalanceAfter, _, err = f.recipientBalance(ctx, request.Recipient)
		return err
	})
	if err != nil {
		return report, err
	}
	f.Logger.Info().
		Uint64("senderBalance", report.SenderBalanceAfter.Amount).
		Uint64("senderSpend", report.SenderSpend()).
		Uint64("recipientBalance", report.RecipientBalanceAfter.Amount).
		Uint64("recipientGain", report.RecipientGain()).
		Msg("Final balances")
	return report, nil
}

// recipientBalance reads a balance that may legitimately not exist yet, a transfer creates the recipient
func (f *TransferFlow) recipientBalance(ctx context.Context, recipient AccountAddress) (Balance, bool, error) {
	balance, err := f.Provisioner.QueryBalance(ctx, recipient)
	if errors.Is(err, ErrAccountNotFound) {
		return Balance{}, false, nil
	}
	return balance, err == nil, err
}

func (f *TransferFlow) journalEntry(report *TransferReport) journal.Entry {
	entry := journal.Entry{
		Hash:           report.Hash,
		Sender:         report.Sender.String(),
		Recipient:      report.Recipient.String(),
		Amount:         report.Amount,
		SequenceNumber: report.Transaction.SequenceNumber,
		GasUnitPrice:   report.Transaction.GasUnitPrice,
		State:          string(report.States.Current()),
	}
	if report.Receipt != nil {
		entry.Success = report.Receipt.Success
		entry.VmStatus = report.Receipt.VmStatus
		entry.GasUsed = report.Receipt.GasUsed
		entry.Version = report.Receipt.Version
	}
	return entry
}

func applyTransferDefaults(request *TransferRequest) {
	if request.MaxGasAmount == 0 {
		request.MaxGasAmount = DefaultMaxGasAmount
	}
	if request.GasUnitPrice == 0 {
		request.GasUnitPrice = DefaultGasUnitPrice
	}
	if request.TimeToLive <= 0 {
		request.TimeToLive = DefaultTimeToLive
	}
	if request.PollInterval <= 0 {
		request.PollInterval = DefaultPollPeriod
	}
}

// Tutorial amounts: fund the sender with 1 APT and move 1000 octas
const (
	TutorialFundAmount     = uint64(100_000_000)
	TutorialTransferAmount = uint64(1_000)
)

// TutorialRequest configures RunTutorial.  Zero amounts take the tutorial values; Transfer carries gas and timing.
// A zero Transfer.Timeout waits up to DefaultPollTimeout for the transfer to commit, a negative one checks the
// status once.
type TutorialRequest struct {
	FundAmount     uint64
	TransferAmount uint64
	Transfer       TransferRequest
}

// TutorialReport is the outcome of RunTutorial, including the generated accounts
type TutorialReport struct {
	Sender    *Account
	Recipient *Account
	*TransferReport
}

// RunTutorial generates a sender and a recipient, funds the sender from the faucet and transfers to the recipient,
// which starts with nothing.
func (f *TransferFlow) RunTutorial(ctx context.Context, request TutorialRequest) (*TutorialReport, error) {
	if request.FundAmount == 0 {
		request.FundAmount = TutorialFundAmount
	}
	if request.TransferAmount == 0 {
		request.TransferAmount = TutorialTransferAmount
	}
	if request.Transfer.Timeout == 0 {
		request.Transfer.Timeout = DefaultPollTimeout
	}

	out := &TutorialReport{}
	err := f.stage(StageProvision, func() error {
		var err error
		if out.Sender, err = f.Provisioner.Generate(); err != nil {
			return err
		}
		out.Recipient, err = f.Provisioner.Generate()
		return err
	})
	if err != nil {
		return out, err
	}
	f.Logger.Info().
		Str("sender", out.Sender.Address.String()).
		Str("recipient", out.Recipient.Address.String()).
		Msg("Accounts generated")

	err = f.stage(StageFund, func() error {
		return f.Provisioner.Fund(ctx, out.Sender.Address, request.FundAmount)
	})
	if err != nil {
		return out, err
	}
	f.Logger.Info().Uint64("amount", request.FundAmount).Msg("Sender funded")

	transfer := request.Transfer
	transfer.Sender = out.Sender
	transfer.Recipient = out.Recipient.Address
	transfer.Amount = request.TransferAmount
	out.TransferReport, err = f.Run(ctx, transfer)
	return out, err
}
