package aptos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateHistory(t *testing.T) {
	var history StateHistory
	assert.Equal(t, TransactionState(""), history.Current())

	require.NoError(t, history.Advance(StateBuilt))
	require.NoError(t, history.Advance(StateSimulated))
	require.NoError(t, history.Advance(StateSigned))
	require.NoError(t, history.Advance(StateSubmitted))
	assert.False(t, history.Current().IsTerminal())
	require.NoError(t, history.Advance(StateCommitted))
	assert.True(t, history.Current().IsTerminal())

	assert.Error(t, history.Advance(StateRejected))
	assert.Len(t, history, 5)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateBuilt.CanTransition(StateSigned))
	assert.True(t, StateSubmitted.CanTransition(StateRejected))
	assert.False(t, StateSigned.CanTransition(StateSimulated))
	assert.False(t, StateBuilt.CanTransition(StateSubmitted))
	assert.False(t, StateCommitted.CanTransition(StateBuilt))
	assert.False(t, StateRejected.CanTransition(StateSubmitted))

	var history StateHistory
	assert.Error(t, history.Advance(StateSigned))
	assert.Empty(t, history)
}
