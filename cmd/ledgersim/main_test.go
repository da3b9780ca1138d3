package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sidkris/aptos-transfer/internal/ledgersim"
	"github.com/sidkris/aptos-transfer/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	ledgerMetrics, err := metrics.NewLedger(registry)
	require.NoError(t, err)
	server := httptest.NewServer(newHandler(ledgersim.New(ledgersim.Config{Metrics: ledgerMetrics}), registry))
	defer server.Close()

	response, err := http.Get(server.URL + "/v1/-/healthy")
	require.NoError(t, err)
	_ = response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)

	response, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "aptos_transfer_ledgersim_requests_total"), string(body))
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--listen", ":9090", "--chain-id", "7"}))
	listen, err := cmd.Flags().GetString(flagListen)
	require.NoError(t, err)
	assert.Equal(t, ":9090", listen)
	chainId, err := cmd.Flags().GetUint8(flagChainId)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), chainId)
}
