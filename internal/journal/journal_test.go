package journal

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	j, err := Open("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}

func TestJournal_RecordAndGet(t *testing.T) {
	j := openTestJournal(t)

	err := j.Record(Entry{Hash: "0xABCD", Sender: "0x1", SequenceNumber: 3, State: "submitted", GasUnitPrice: 100})
	require.NoError(t, err)

	entry, err := j.Get("0xabcd")
	require.NoError(t, err)
	assert.Equal(t, "0x1", entry.Sender)
	assert.Equal(t, "submitted", entry.State)
	assert.Equal(t, uint64(3), entry.SequenceNumber)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestJournal_RecordMergesUpdates(t *testing.T) {
	j := openTestJournal(t)
	start := time.Unix(1_700_000_000, 0)
	j.now = func() time.Time { return start }

	require.NoError(t, j.Record(Entry{Hash: "0x01", Sender: "0x1", Recipient: "0x2", Amount: 1_000, SequenceNumber: 7, State: "submitted", GasUnitPrice: 100}))

	j.now = func() time.Time { return start.Add(time.Minute) }
	require.NoError(t, j.Record(Entry{Hash: "0x01", State: "committed", Success: true, VmStatus: "Executed successfully", GasUsed: 9, Version: 42}))

	entry, err := j.Get("0x01")
	require.NoError(t, err)
	assert.Equal(t, "committed", entry.State)
	assert.Equal(t, "0x1", entry.Sender)
	assert.Equal(t, "0x2", entry.Recipient)
	assert.Equal(t, uint64(1_000), entry.Amount)
	assert.Equal(t, uint64(7), entry.SequenceNumber)
	assert.Equal(t, uint64(100), entry.GasUnitPrice)
	assert.Equal(t, uint64(9), entry.GasUsed)
	assert.True(t, entry.CreatedAt.Equal(start))
	assert.True(t, entry.UpdatedAt.Equal(start.Add(time.Minute)))
}

func TestJournal_GetUnknown(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.Get("0xdead")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestJournal_RecordWithoutHash(t *testing.T) {
	j := openTestJournal(t)
	assert.Error(t, j.Record(Entry{State: "signed"}))
}

func TestJournal_ListOrdersByCreation(t *testing.T) {
	j := openTestJournal(t)
	base := time.Unix(1_700_000_000, 0)
	for i, hash := range []string{"0x0c", "0x0a", "0x0b"} {
		at := base.Add(time.Duration(i) * time.Second)
		j.now = func() time.Time { return at }
		require.NoError(t, j.Record(Entry{Hash: hash, State: "submitted"}))
	}

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "0x0c", entries[0].Hash)
	assert.Equal(t, "0x0a", entries[1].Hash)
	assert.Equal(t, "0x0b", entries[2].Hash)
}
