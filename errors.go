package aptos

import (
	"fmt"

	"github.com/pkg/errors"
)

// Address parsing errors
var (
	ErrAddressEmpty    = errors.New("address is empty")
	ErrAddressTooShort = errors.New("address too short")
	ErrAddressTooLong  = errors.New("address too long")
	ErrAddressInvalid  = errors.New("address is neither hex nor a 32 byte base58 string")
)

// ErrTooManyAuthKeys more than one auth key was given to NewAccountFromSigner
var ErrTooManyAuthKeys = errors.New("at most one authentication key may be given")

// Transfer lifecycle errors.  Every error returned by the lifecycle components wraps exactly one of these when the
// cause is known, so callers can branch with errors.Is.
var (
	// ErrFunding the faucet rejected the request or did not answer in time
	ErrFunding = errors.New("funding failed")

	// ErrAccountNotFound the ledger has never seen the address
	ErrAccountNotFound = errors.New("account not found")

	// ErrStaleSequenceNumber the sequence number was already consumed, build, sign and submit again
	ErrStaleSequenceNumber = errors.New("stale sequence number")

	// ErrSimulationPredictsFailure the dry run says the transaction would fail.  Simulators never return it on their
	// own, it is raised by callers that choose to stop on a bad prediction.
	ErrSimulationPredictsFailure = errors.New("simulation predicts failure")

	// ErrSignatureMismatch a produced signature does not verify.  This is a defect, not a runtime condition.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrConfirmationTimeout the transaction was not finalized in time, its outcome is unknown
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrTransactionNotFound the ledger has no finalized transaction with that hash
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Stage names the step of a transfer that failed
type Stage string

const (
	StageProvision Stage = "provision"
	StageFund      Stage = "fund"
	StageBalance   Stage = "balance"
	StageBuild     Stage = "build"
	StageSimulate  Stage = "simulate"
	StageSign      Stage = "sign"
	StageSubmit    Stage = "submit"
	StageAwait     Stage = "await"
	StageReceipt   Stage = "receipt"
)

// StageError ties a failure to the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (se *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", se.Stage, se.Err)
}

func (se *StageError) Unwrap() error {
	return se.Err
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// FundingError is [ErrFunding] with its cause kept reachable, e.g. the faucet's *HttpError for its status code
type FundingError struct {
	Cause error
}

func (fe *FundingError) Error() string {
	return fmt.Sprintf("%v: %v", ErrFunding, fe.Cause)
}

func (fe *FundingError) Unwrap() []error {
	return []error{ErrFunding, fe.Cause}
}
