package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sidkris/aptos-transfer/internal/config"
	"github.com/sidkris/aptos-transfer/internal/ledgersim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs one command line, the subcommand first and the shared flags after it
func execute(t *testing.T, common []string, args ...string) (string, error) {
	t.Helper()
	args = append(args, common...)
	a := newApp()
	root := newRootCommand(a)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	a.close()
	return out.String(), err
}

func TestTransferCommands(t *testing.T) {
	server := httptest.NewServer(ledgersim.NewServer(ledgersim.New(ledgersim.Config{})).Router())
	defer server.Close()
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "transfer.prom")
	common := []string{
		"--network", "ledgersim",
		"--node-url", server.URL + "/v1",
		"--faucet-url", server.URL,
		"--journal", filepath.Join(dir, "journal"),
		"--log-level", "error",
	}

	out, err := execute(t, common, "run", "--amount", "5000", "--timeout", "5s", "--metrics-textfile", metricsFile)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Committed: version")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "received 5000")

	hash := regexp.MustCompile(`Hash:\s+(0x[0-9a-f]+)`).FindStringSubmatch(out)
	require.Len(t, hash, 2)
	recipient := regexp.MustCompile(`Recipient: (0x[0-9a-f]+)`).FindStringSubmatch(out)
	require.Len(t, recipient, 2)

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "aptos_transfer_flow_stages_total")

	out, err = execute(t, common, "history")
	require.NoError(t, err, out)
	assert.Contains(t, out, hash[1])
	assert.Contains(t, out, "committed")

	out, err = execute(t, common, "status", hash[1])
	require.NoError(t, err, out)
	assert.Contains(t, out, "Journal: committed")
	assert.Contains(t, out, "success")

	out, err = execute(t, common, "balance", recipient[1])
	require.NoError(t, err, out)
	assert.Contains(t, out, ": 5000 at version")

	out, err = execute(t, common, "balance", "0xabc")
	require.NoError(t, err, out)
	assert.Contains(t, out, "account does not exist")
}

func TestSendRequiresKey(t *testing.T) {
	_, err := execute(t, []string{"--network", "localnet", "--log-level", "error"}, "send", "0x1")
	assert.ErrorContains(t, err, "no sender key")
}

func TestResolveNetwork(t *testing.T) {
	network, err := resolveNetwork(config.Network{Name: "testnet"})
	require.NoError(t, err)
	assert.Equal(t, uint8(2), network.ChainId)
	assert.Equal(t, "https://api.testnet.aptoslabs.com/v1", network.NodeUrl)

	network, err = resolveNetwork(config.Network{Name: "localnet", NodeUrl: "http://node:8080/v1", ChainId: 9})
	require.NoError(t, err)
	assert.Equal(t, "http://node:8080/v1", network.NodeUrl)
	assert.Equal(t, "http://127.0.0.1:8081", network.FaucetUrl)
	assert.Equal(t, uint8(9), network.ChainId)

	_, err = resolveNetwork(config.Network{Name: "private"})
	assert.Error(t, err)
}
