package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "devnet", cfg.Network.Name)
	assert.Equal(t, uint64(100_000_000), cfg.Transfer.FundAmount)
	assert.Equal(t, uint64(1_000), cfg.Transfer.Amount)
	assert.Equal(t, uint64(2_000), cfg.Transfer.MaxGasAmount)
	assert.Equal(t, uint64(100), cfg.Transfer.GasUnitPrice)
	assert.Equal(t, 600*time.Second, cfg.Transfer.TTL)
	assert.True(t, cfg.Transfer.Simulate)
	assert.Equal(t, time.Second, cfg.Confirm.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Confirm.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer.yaml")
	content := `
network:
  name: localnet
  node_url: http://127.0.0.1:8080/v1
  chain_id: 4
transfer:
  amount: 5000
  ttl: 2m
confirm:
  timeout: 0s
log:
  formatter: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "localnet", cfg.Network.Name)
	assert.Equal(t, "http://127.0.0.1:8080/v1", cfg.Network.NodeUrl)
	assert.Equal(t, uint8(4), cfg.Network.ChainId)
	assert.Equal(t, uint64(5_000), cfg.Transfer.Amount)
	assert.Equal(t, 2*time.Minute, cfg.Transfer.TTL)
	assert.Equal(t, time.Duration(0), cfg.Confirm.Timeout)
	assert.Equal(t, "json", cfg.Log.Formatter)
	// untouched keys keep their defaults
	assert.Equal(t, uint64(2_000), cfg.Transfer.MaxGasAmount)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APTOS_TRANSFER_TRANSFER_GAS_UNIT_PRICE", "150")
	t.Setenv("APTOS_TRANSFER_NETWORK_NAME", "testnet")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, uint64(150), cfg.Transfer.GasUnitPrice)
	assert.Equal(t, "testnet", cfg.Network.Name)
}

func TestLoad_Invalid(t *testing.T) {
	v := New()
	v.Set(KeyMaxGasAmount, 0)
	_, err := Load(v, "")
	assert.Error(t, err)

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
