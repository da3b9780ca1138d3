package aptos

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestClient() (*Client, error) {
	return NewClient(DevnetConfig)
}

func TestNamedConfig(t *testing.T) {
	names := []string{"devnet", "testnet", "localnet"}
	for _, name := range names {
		assert.Equal(t, name, NamedNetworks[name].Name)
	}
	assert.Equal(t, uint8(4), NamedNetworks["localnet"].ChainId)
}

func TestClientHeaderValue(t *testing.T) {
	assert.NotEmpty(t, ClientHeaderValue)
	assert.True(t, strings.HasPrefix(ClientHeaderValue, "aptos-transfer/"))
}

func TestNewClient_Args(t *testing.T) {
	_, err := NewClient(LocalnetConfig, &http.Client{}, &http.Client{})
	assert.Error(t, err)

	_, err = NewClient(LocalnetConfig, 5)
	assert.ErrorContains(t, err, "bad type")

	_, err = NewClient(NetworkConfig{Name: "broken", NodeUrl: "://nowhere"})
	assert.Error(t, err)

	client, err := NewClient(LocalnetConfig, &http.Client{Timeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, client.Node())
}

func TestClientConfig(t *testing.T) {
	_, err := NewClient(TestnetConfig)
	assert.NoError(t, err)

	_, err = NewClient(DevnetConfig)
	assert.NoError(t, err)

	// no faucet for a private node
	client, err := NewClient(NetworkConfig{
		Name:    "private",
		ChainId: 7,
		NodeUrl: "https://fullnode.example.org/v1",
	})
	require.NoError(t, err)
	client.SetHeader("Authorization", "Bearer abcdefg")
	client.RemoveHeader("Authorization")
	client.SetTimeout(5 * time.Second)

	// the chain id is configured, so no request is made
	chainId, err := client.GetChainId(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(7), chainId)
}

func TestClientFundWithoutFaucet(t *testing.T) {
	client, err := NewClient(NetworkConfig{Name: "private", ChainId: 7, NodeUrl: "https://fullnode.example.org/v1"})
	require.NoError(t, err)

	_, err = client.Fund(context.Background(), AccountOne, 100)
	assert.ErrorIs(t, err, ErrFunding)
}

// Test_DevnetTransfer runs the whole tutorial against devnet.  Set APTOS_TRANSFER_LIVE to enable it.
func Test_DevnetTransfer(t *testing.T) {
	if testing.Short() || os.Getenv("APTOS_TRANSFER_LIVE") == "" {
		t.Skip("live network test")
	}
	client, err := createTestClient()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	info, err := client.Info(ctx)
	require.NoError(t, err)
	assert.Greater(t, uint64(info.BlockHeight), uint64(0))

	flow := NewTransferFlow(client, client)
	report, err := flow.RunTutorial(ctx, TutorialRequest{})
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, report.States.Current())
	assert.Equal(t, report.Amount, report.RecipientGain())
}
