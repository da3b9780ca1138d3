package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_HealthCheckResponse(t *testing.T) {
	testJson := `{
		"message": "aptos-node:ok"
	}`
	data := &HealthCheckResponse{}
	err := json.Unmarshal([]byte(testJson), &data)
	assert.NoError(t, err)
	assert.Equal(t, "aptos-node:ok", data.Message)
}

func Test_Error(t *testing.T) {
	testJson := `{
		"message": "Invalid transaction: Type: Validation Code: SEQUENCE_NUMBER_TOO_OLD",
		"error_code": "vm_error",
		"vm_error_code": 3
	}`
	data := &Error{}
	err := json.Unmarshal([]byte(testJson), &data)
	assert.NoError(t, err)
	assert.Equal(t, ErrorCodeVmError, data.ErrorCode)
	assert.Equal(t, uint64(3), *data.VmErrorCode)

	noVmCode := &Error{}
	err = json.Unmarshal([]byte(`{"message":"x","error_code":"account_not_found","vm_error_code":null}`), noVmCode)
	assert.NoError(t, err)
	assert.Nil(t, noVmCode.VmErrorCode)
}

func Test_GasEstimate(t *testing.T) {
	testJson := `{
		"deprioritized_gas_estimate": 100,
		"gas_estimate": 100,
		"prioritized_gas_estimate": 150
	}`
	data := &GasEstimate{}
	err := json.Unmarshal([]byte(testJson), &data)
	assert.NoError(t, err)
	assert.Equal(t, uint64(100), data.GasEstimate)
	assert.Equal(t, uint64(150), data.PrioritizedGasEstimate)
}

func Test_U64(t *testing.T) {
	var v U64
	assert.NoError(t, json.Unmarshal([]byte(`"18446744073709551615"`), &v))
	assert.Equal(t, uint64(18446744073709551615), v.ToUint64())

	assert.NoError(t, json.Unmarshal([]byte(`42`), &v))
	assert.Equal(t, U64(42), v)

	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))

	out, err := json.Marshal(U64(7))
	assert.NoError(t, err)
	assert.Equal(t, `"7"`, string(out))
}

func Test_NodeInfo(t *testing.T) {
	testJson := `{
		"chain_id": 4,
		"epoch": "2",
		"ledger_version": "3135",
		"oldest_ledger_version": "0",
		"ledger_timestamp": "1718000000000000",
		"node_role": "full_node",
		"oldest_block_height": "0",
		"block_height": "1502",
		"git_hash": "abcdef"
	}`
	data := &NodeInfo{}
	err := json.Unmarshal([]byte(testJson), &data)
	assert.NoError(t, err)
	assert.Equal(t, uint8(4), data.ChainId)
	assert.Equal(t, U64(3135), data.LedgerVersion)
	assert.Equal(t, U64(1502), data.BlockHeight)
	assert.Equal(t, "full_node", data.NodeRole)
}
