// Package journal keeps a local record of submitted transactions in badger, keyed by transaction hash, so a transfer
// whose confirmation timed out can be looked up again later.
package journal

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const keyPrefix = "txn:"

// ErrNotFound no entry is recorded for the hash
var ErrNotFound = errors.New("journal entry not found")

// Entry is the last known state of one transaction
type Entry struct {
	Hash           string    `json:"hash"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient,omitempty"`
	Amount         uint64    `json:"amount"`
	SequenceNumber uint64    `json:"sequence_number"`
	State          string    `json:"state"`
	Success        bool      `json:"success"`
	VmStatus       string    `json:"vm_status,omitempty"`
	GasUsed        uint64    `json:"gas_used,omitempty"`
	GasUnitPrice   uint64    `json:"gas_unit_price"`
	Version        uint64    `json:"version,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Journal is a badger backed store of entries
type Journal struct {
	db     *badger.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens or creates a journal in dir.  An empty dir keeps the journal in memory.
func Open(dir string, logger zerolog.Logger) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %q", dir)
	}
	return New(db, logger), nil
}

// New wraps an already open badger database
func New(db *badger.DB, logger zerolog.Logger) *Journal {
	return &Journal{db: db, logger: logger, now: time.Now}
}

// Record stores entry, merging it over an existing entry for the same hash.  CreatedAt is kept from the first record.
func (j *Journal) Record(entry Entry) error {
	if entry.Hash == "" {
		return errors.New("journal entry without hash")
	}
	key := []byte(keyPrefix + strings.ToLower(entry.Hash))
	err := j.db.Update(func(txn *badger.Txn) error {
		now := j.now()
		entry.CreatedAt = now
		item, err := txn.Get(key)
		switch {
		case err == nil:
			previous := Entry{}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &previous)
			}); err != nil {
				return err
			}
			entry.CreatedAt = previous.CreatedAt
			mergeMissing(&entry, &previous)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		entry.UpdatedAt = now
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		j.logger.Error().Err(err).Str("hash", entry.Hash).Msg("Failed to record transaction")
		return err
	}
	j.logger.Debug().Str("hash", entry.Hash).Str("state", entry.State).Msg("Transaction recorded")
	return nil
}

// mergeMissing fills fields a later record does not know yet from the previous one
func mergeMissing(entry *Entry, previous *Entry) {
	if entry.Sender == "" {
		entry.Sender = previous.Sender
	}
	if entry.Recipient == "" {
		entry.Recipient = previous.Recipient
	}
	if entry.Amount == 0 {
		entry.Amount = previous.Amount
	}
	if entry.SequenceNumber == 0 {
		entry.SequenceNumber = previous.SequenceNumber
	}
	if entry.GasUnitPrice == 0 {
		entry.GasUnitPrice = previous.GasUnitPrice
	}
}

// Get returns the entry for hash, [ErrNotFound] if none was recorded
func (j *Journal) Get(hash string) (Entry, error) {
	entry := Entry{}
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + strings.ToLower(hash)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, errors.Wrap(ErrNotFound, hash)
	}
	return entry, err
}

// List returns every entry, oldest first
func (j *Journal) List() ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		iter := txn.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(keyPrefix)
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var entry Entry
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		j.logger.Error().Err(err).Msg("Failed to list transactions")
		return nil, err
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].CreatedAt.Before(entries[b].CreatedAt)
	})
	return entries, nil
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}
