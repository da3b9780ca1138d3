// Package ledgersim is an in-memory ledger speaking the node REST API and the faucet's mint endpoint.  It checks
// signed transactions the way a node does (chain id, expiration, sequence number, signature, authentication key),
// charges gas, and commits accepted transactions after a configurable delay.
//
// Commits happen lazily: any request first commits every pending transaction whose delay has elapsed.
package ledgersim

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/rs/zerolog"
	aptos "github.com/sidkris/aptos-transfer"
	"github.com/sidkris/aptos-transfer/api"
	"github.com/sidkris/aptos-transfer/crypto"
	"github.com/sidkris/aptos-transfer/internal/metrics"
	"github.com/sidkris/aptos-transfer/internal/util"
)

// Gas schedule, in gas units
const (
	GasTransferExisting    = uint64(9)
	GasTransferNewAccount  = uint64(504)
	GasFunctionUnsupported = uint64(5)
)

// VM status strings of committed transactions
const (
	VmStatusSuccess             = "Executed successfully"
	VmStatusOutOfGas            = "Out of gas"
	VmStatusInsufficientBalance = "Move abort in 0x1::coin: EINSUFFICIENT_BALANCE(0x10006): Not enough coins to complete transaction"
	VmStatusLinkerError         = "LINKER_ERROR"
)

// Validation status codes a submission can be rejected with
const (
	StatusInvalidSignature        = "INVALID_SIGNATURE"
	StatusInvalidAuthKey          = "INVALID_AUTH_KEY"
	StatusSequenceNumberTooOld    = "SEQUENCE_NUMBER_TOO_OLD"
	StatusSequenceNumberTooNew    = "SEQUENCE_NUMBER_TOO_NEW"
	StatusInsufficientBalanceFee  = "INSUFFICIENT_BALANCE_FOR_TRANSACTION_FEE"
	StatusTransactionExpired      = "TRANSACTION_EXPIRED"
	StatusSendingAccountMissing   = "SENDING_ACCOUNT_DOES_NOT_EXIST"
	StatusBadChainId              = "BAD_CHAIN_ID"
	StatusMaxGasUnitsBelowMinimum = "MAX_GAS_UNITS_BELOW_MIN_TRANSACTION_GAS_UNITS"
)

var vmErrorCodes = map[string]uint64{
	StatusInvalidSignature:        1,
	StatusInvalidAuthKey:          2,
	StatusSequenceNumberTooOld:    3,
	StatusSequenceNumberTooNew:    4,
	StatusInsufficientBalanceFee:  5,
	StatusTransactionExpired:      6,
	StatusSendingAccountMissing:   7,
	StatusBadChainId:              16,
	StatusMaxGasUnitsBelowMinimum: 14,
}

// ValidationError is a submission the ledger refuses to accept
type ValidationError struct {
	Status string
}

func (ve *ValidationError) Error() string {
	return "Invalid transaction: Type: Validation Code: " + ve.Status
}

// VmErrorCode is the numeric code of Status
func (ve *ValidationError) VmErrorCode() uint64 {
	return vmErrorCodes[ve.Status]
}

// Config of a simulated ledger
type Config struct {
	ChainId uint8
	// CommitDelay is how long a submitted transaction stays pending
	CommitDelay time.Duration
	// GasUnitPrice is the estimate served by /estimate_gas_price
	GasUnitPrice uint64
	// Now is the ledger clock, time.Now when nil
	Now     func() time.Time
	Logger  zerolog.Logger
	Metrics *metrics.Ledger
}

type accountState struct {
	authKey        crypto.AuthenticationKey
	sequenceNumber uint64
	balance        uint64
}

type txnRecord struct {
	hash        string
	sender      aptos.AccountAddress
	raw         *aptos.RawTransaction
	submittedAt time.Time
	committed   bool
	result      *api.UserTransaction

	// faucet mints have no raw transaction
	mintTo     aptos.AccountAddress
	mintAmount uint64
}

// Ledger is the simulated chain.  Safe for concurrent use.
type Ledger struct {
	config Config

	mu        sync.Mutex
	accounts  map[aptos.AccountAddress]*accountState
	txns      map[string]*txnRecord
	pending   []*txnRecord
	version   uint64
	mintCount uint64
}

// New creates an empty ledger.  A zero ChainId becomes 4, the localnet id; a zero GasUnitPrice becomes 100.
func New(config Config) *Ledger {
	if config.ChainId == 0 {
		config.ChainId = 4
	}
	if config.GasUnitPrice == 0 {
		config.GasUnitPrice = 100
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Ledger{
		config:   config,
		accounts: make(map[aptos.AccountAddress]*accountState),
		txns:     make(map[string]*txnRecord),
	}
}

// ChainId of the ledger
func (l *Ledger) ChainId() uint8 {
	return l.config.ChainId
}

// Version is the latest committed ledger version
func (l *Ledger) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()
	return l.version
}

// Balance returns the committed balance of address and whether the account exists
func (l *Ledger) Balance(address aptos.AccountAddress) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()
	account, ok := l.accounts[address]
	if !ok {
		return 0, false
	}
	return account.balance, true
}

// SequenceNumber returns the committed sequence number of address and whether the account exists
func (l *Ledger) SequenceNumber(address aptos.AccountAddress) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()
	account, ok := l.accounts[address]
	if !ok {
		return 0, false
	}
	return account.sequenceNumber, true
}

// Mint queues a faucet transaction crediting amount to address, creating the account if needed
func (l *Ledger) Mint(address aptos.AccountAddress, amount uint64) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()

	l.mintCount++
	counter := make([]byte, 8)
	binary.LittleEndian.PutUint64(counter, l.mintCount)
	hash := util.BytesToHex(util.Sha3256Hash([][]byte{[]byte("ledgersim::mint"), address[:], counter}))
	record := &txnRecord{
		hash:        hash,
		sender:      aptos.AccountOne,
		submittedAt: l.config.Now(),
		mintTo:      address,
		mintAmount:  amount,
	}
	l.txns[hash] = record
	l.pending = append(l.pending, record)
	l.config.Logger.Debug().Str("hash", hash).Str("address", address.String()).Uint64("amount", amount).Msg("Mint queued")
	l.commitDueLocked()
	return hash
}

// Submit validates a signed transaction and queues it.  Rejections are *ValidationError.
func (l *Ledger) Submit(signedTxn *aptos.SignedTransaction) (*api.PendingTransaction, error) {
	hash, err := signedTxn.Hash()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()

	if _, ok := l.txns[hash]; ok {
		return nil, &ValidationError{Status: StatusSequenceNumberTooOld}
	}
	if err = l.validateLocked(signedTxn, false); err != nil {
		return nil, err
	}

	raw := signedTxn.Transaction
	record := &txnRecord{
		hash:        hash,
		sender:      raw.Sender,
		raw:         raw,
		submittedAt: l.config.Now(),
	}
	l.txns[hash] = record
	l.pending = append(l.pending, record)
	l.config.Logger.Info().Str("hash", hash).Str("sender", raw.Sender.String()).Uint64("sequenceNumber", raw.SequenceNumber).Msg("Transaction accepted")

	pending := pendingView(record)
	l.commitDueLocked()
	return pending, nil
}

// Simulate executes a transaction carrying a simulation authenticator without changing any state
func (l *Ledger) Simulate(signedTxn *aptos.SignedTransaction) (*api.UserTransaction, error) {
	hash, err := signedTxn.Hash()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()

	if err = l.validateLocked(signedTxn, true); err != nil {
		return nil, err
	}
	scratch := make(map[aptos.AccountAddress]*accountState, len(l.accounts))
	for address, account := range l.accounts {
		copied := *account
		scratch[address] = &copied
	}
	for _, record := range l.pending {
		applyLocked(scratch, record)
	}
	result := applyLocked(scratch, &txnRecord{hash: hash, sender: signedTxn.Transaction.Sender, raw: signedTxn.Transaction})
	result.Version = api.U64(l.version + uint64(len(l.pending)) + 1)
	return result, nil
}

// Transaction returns the committed or pending transaction with hash
func (l *Ledger) Transaction(hash string) (*api.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()

	record, ok := l.txns[hash]
	if !ok {
		return nil, false
	}
	if !record.committed {
		return &api.Transaction{Type: api.TransactionVariantPending, Inner: pendingView(record)}, true
	}
	result := *record.result
	return &api.Transaction{Type: api.TransactionVariantUser, Inner: &result}, true
}

// CommitDueAt is when the transaction with hash commits; zero when unknown or already committed
func (l *Ledger) CommitDueAt(hash string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.txns[hash]
	if !ok || record.committed {
		return time.Time{}
	}
	return record.submittedAt.Add(l.config.CommitDelay)
}

// Account returns the committed sequence number and authentication key of address
func (l *Ledger) Account(address aptos.AccountAddress) (uint64, crypto.AuthenticationKey, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitDueLocked()
	account, ok := l.accounts[address]
	if !ok {
		return 0, crypto.AuthenticationKey{}, false
	}
	return account.sequenceNumber, account.authKey, true
}

// validateLocked applies the submission checks.  Simulations must carry an invalid signature, submissions a valid one.
func (l *Ledger) validateLocked(signedTxn *aptos.SignedTransaction, simulation bool) error {
	raw := signedTxn.Transaction
	if raw.ChainId != l.config.ChainId {
		return &ValidationError{Status: StatusBadChainId}
	}
	if raw.ExpirationTimestampSeconds <= uint64(l.config.Now().Unix()) {
		return &ValidationError{Status: StatusTransactionExpired}
	}
	account, ok := l.accounts[raw.Sender]
	if !ok {
		return &ValidationError{Status: StatusSendingAccountMissing}
	}

	signatureValid := signedTxn.Verify() == nil
	if simulation && signatureValid {
		return fmt.Errorf("simulated transactions must not have a valid signature")
	}
	if !simulation && !signatureValid {
		return &ValidationError{Status: StatusInvalidSignature}
	}
	auth := signedTxn.Authenticator
	if auth == nil || auth.Auth == nil || auth.Auth.PubKey == nil || *auth.Auth.PubKey.AuthKey() != account.authKey {
		return &ValidationError{Status: StatusInvalidAuthKey}
	}

	expected := account.sequenceNumber
	for _, record := range l.pending {
		if record.raw != nil && record.sender == raw.Sender {
			expected++
		}
	}
	switch {
	case raw.SequenceNumber < expected:
		return &ValidationError{Status: StatusSequenceNumberTooOld}
	case raw.SequenceNumber > expected:
		return &ValidationError{Status: StatusSequenceNumberTooNew}
	}
	if raw.MaxGasAmount < GasFunctionUnsupported {
		return &ValidationError{Status: StatusMaxGasUnitsBelowMinimum}
	}
	if high, maxFee := bits.Mul64(raw.MaxGasAmount, raw.GasUnitPrice); high != 0 || maxFee > account.balance {
		return &ValidationError{Status: StatusInsufficientBalanceFee}
	}
	return nil
}

// commitDueLocked commits pending transactions in submission order once their delay elapsed
func (l *Ledger) commitDueLocked() {
	now := l.config.Now()
	for len(l.pending) > 0 {
		record := l.pending[0]
		if now.Before(record.submittedAt.Add(l.config.CommitDelay)) {
			return
		}
		l.pending = l.pending[1:]
		l.version++
		record.result = applyLocked(l.accounts, record)
		record.result.Version = api.U64(l.version)
		record.result.Timestamp = api.U64(now.UnixMicro())
		record.committed = true
		l.config.Metrics.ObserveCommit(record.result.Success, l.version)
		l.config.Logger.Info().
			Str("hash", record.hash).
			Uint64("version", l.version).
			Bool("success", record.result.Success).
			Uint64("gasUsed", record.result.GasUsed.ToUint64()).
			Msg("Transaction committed")
	}
}

// applyLocked executes record against accounts and returns its outcome
func applyLocked(accounts map[aptos.AccountAddress]*accountState, record *txnRecord) *api.UserTransaction {
	if record.raw == nil {
		credit(accounts, record.mintTo, record.mintAmount)
		return &api.UserTransaction{
			Hash:     record.hash,
			Sender:   aptos.AccountOne.StringLong(),
			Success:  true,
			VmStatus: VmStatusSuccess,
		}
	}

	raw := record.raw
	result := &api.UserTransaction{
		Hash:                    record.hash,
		Sender:                  raw.Sender.StringLong(),
		SequenceNumber:          api.U64(raw.SequenceNumber),
		MaxGasAmount:            api.U64(raw.MaxGasAmount),
		GasUnitPrice:            api.U64(raw.GasUnitPrice),
		ExpirationTimestampSecs: api.U64(raw.ExpirationTimestampSeconds),
	}
	sender := accounts[raw.Sender]
	sender.sequenceNumber++

	transfers, ok := decodeTransfers(raw.Payload.Payload)
	gasUsed := GasFunctionUnsupported
	if ok {
		gasUsed = 0
		for _, transfer := range transfers {
			if _, exists := accounts[transfer.to]; exists {
				gasUsed += GasTransferExisting
			} else {
				gasUsed += GasTransferNewAccount
			}
		}
	}

	charge := func(units uint64) {
		fee := units * raw.GasUnitPrice
		if fee > sender.balance {
			fee = sender.balance
		}
		sender.balance -= fee
		result.GasUsed = api.U64(units)
	}

	switch {
	case !ok:
		charge(gasUsed)
		result.VmStatus = VmStatusLinkerError
	case gasUsed > raw.MaxGasAmount:
		charge(raw.MaxGasAmount)
		result.VmStatus = VmStatusOutOfGas
	default:
		total := gasUsed * raw.GasUnitPrice
		for _, transfer := range transfers {
			total += transfer.amount
		}
		if total > sender.balance {
			charge(gasUsed)
			result.VmStatus = VmStatusInsufficientBalance
			break
		}
		charge(gasUsed)
		for _, transfer := range transfers {
			sender.balance -= transfer.amount
			credit(accounts, transfer.to, transfer.amount)
		}
		result.Success = true
		result.VmStatus = VmStatusSuccess
	}
	return result
}

func credit(accounts map[aptos.AccountAddress]*accountState, to aptos.AccountAddress, amount uint64) {
	account, ok := accounts[to]
	if !ok {
		account = &accountState{authKey: crypto.AuthenticationKey(to)}
		accounts[to] = account
	}
	account.balance += amount
}

type transfer struct {
	to     aptos.AccountAddress
	amount uint64
}

// decodeTransfers understands the aptos_account transfer functions; anything else is not executable here
func decodeTransfers(entryFunction *aptos.EntryFunction) ([]transfer, bool) {
	if entryFunction == nil || entryFunction.Module.Address != aptos.AccountOne || entryFunction.Module.Name != "aptos_account" {
		return nil, false
	}
	switch entryFunction.Function {
	case "transfer", "transfer_coins":
		if entryFunction.Function == "transfer_coins" && (len(entryFunction.ArgTypes) != 1 || entryFunction.ArgTypes[0].String() != aptos.AptosCoinTypeTag.String()) {
			return nil, false
		}
		if len(entryFunction.Args) != 2 || len(entryFunction.Args[0]) != aptos.AccountAddressLength {
			return nil, false
		}
		var to aptos.AccountAddress
		copy(to[:], entryFunction.Args[0])
		des := bcs.NewDeserializer(entryFunction.Args[1])
		amount := des.U64()
		if des.Error() != nil || des.Remaining() != 0 {
			return nil, false
		}
		return []transfer{{to: to, amount: amount}}, true
	case "batch_transfer":
		if len(entryFunction.Args) != 2 {
			return nil, false
		}
		destDes := bcs.NewDeserializer(entryFunction.Args[0])
		count := destDes.Uleb128()
		amountDes := bcs.NewDeserializer(entryFunction.Args[1])
		if amountDes.Uleb128() != count || destDes.Error() != nil || amountDes.Error() != nil {
			return nil, false
		}
		transfers := make([]transfer, 0, count)
		for i := uint32(0); i < count; i++ {
			var to aptos.AccountAddress
			to.UnmarshalBCS(destDes)
			amount := amountDes.U64()
			if destDes.Error() != nil || amountDes.Error() != nil {
				return nil, false
			}
			transfers = append(transfers, transfer{to: to, amount: amount})
		}
		return transfers, true
	default:
		return nil, false
	}
}

func pendingView(record *txnRecord) *api.PendingTransaction {
	out := &api.PendingTransaction{
		Hash:   record.hash,
		Sender: record.sender.StringLong(),
	}
	if record.raw != nil {
		out.SequenceNumber = api.U64(record.raw.SequenceNumber)
		out.MaxGasAmount = api.U64(record.raw.MaxGasAmount)
		out.GasUnitPrice = api.U64(record.raw.GasUnitPrice)
		out.ExpirationTimestampSecs = api.U64(record.raw.ExpirationTimestampSeconds)
	}
	return out
}
