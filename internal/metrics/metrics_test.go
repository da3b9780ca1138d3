package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_ObserveStage(t *testing.T) {
	registry := prometheus.NewRegistry()
	flow, err := NewFlow(registry)
	require.NoError(t, err)

	flow.ObserveStage("submit", nil, 10*time.Millisecond)
	flow.ObserveStage("submit", nil, 20*time.Millisecond)
	flow.ObserveStage("submit", errors.New("boom"), time.Millisecond)

	assert.Equal(t, float64(2), flow.StageCount("submit", OutcomeSuccess))
	assert.Equal(t, float64(1), flow.StageCount("submit", OutcomeFailure))
	assert.Equal(t, float64(0), flow.StageCount("sign", OutcomeSuccess))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestFlow_DoubleRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewFlow(registry)
	require.NoError(t, err)
	_, err = NewFlow(registry)
	assert.Error(t, err)
}

func TestNilCollectorsAreNoOps(t *testing.T) {
	var flow *Flow
	var ledger *Ledger
	assert.NotPanics(t, func() {
		flow.ObserveStage("build", nil, time.Second)
		ledger.ObserveRequest("/v1", "2xx")
		ledger.ObserveCommit(true, 1)
	})
	assert.Equal(t, float64(0), flow.StageCount("build", OutcomeSuccess))
	assert.Equal(t, float64(0), ledger.CommittedCount(OutcomeSuccess))
}

func TestLedger_ObserveCommit(t *testing.T) {
	ledger, err := NewLedger(nil)
	require.NoError(t, err)

	ledger.ObserveCommit(true, 5)
	ledger.ObserveCommit(false, 6)
	ledger.ObserveCommit(true, 7)

	assert.Equal(t, float64(2), ledger.CommittedCount(OutcomeSuccess))
	assert.Equal(t, float64(1), ledger.CommittedCount(OutcomeFailure))
}
