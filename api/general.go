package api

// HealthCheckResponse is the response to a health check request
//
// Example:
//
//	{
//		"message": "aptos-node:ok"
//	}
type HealthCheckResponse struct {
	Message string `json:"message"` // Message is the human-readable message, usually "aptos-node:ok"
}

// Error is the body the node returns with every non-2xx response
//
// Example:
//
//	{
//		"message": "Account not found by Address(0x1234) and Ledger version(1)",
//		"error_code": "account_not_found",
//		"vm_error_code": null
//	}
type Error struct {
	Message     string  `json:"message"`
	ErrorCode   string  `json:"error_code"`
	VmErrorCode *uint64 `json:"vm_error_code,omitempty"`
}

// Error codes the node uses that the client reacts to
const (
	ErrorCodeAccountNotFound     = "account_not_found"
	ErrorCodeResourceNotFound    = "resource_not_found"
	ErrorCodeTransactionNotFound = "transaction_not_found"
	ErrorCodeVmError             = "vm_error"
	ErrorCodeInvalidInput        = "invalid_input"
	ErrorCodeInvalidTransaction  = "invalid_transaction_update"
	ErrorCodeInternalError       = "internal_error"
)

// GasEstimate is the response of /estimate_gas_price
//
// Example:
//
//	{
//		"deprioritized_gas_estimate": 100,
//		"gas_estimate": 100,
//		"prioritized_gas_estimate": 150
//	}
type GasEstimate struct {
	DeprioritizedGasEstimate uint64 `json:"deprioritized_gas_estimate"`
	GasEstimate              uint64 `json:"gas_estimate"`
	PrioritizedGasEstimate   uint64 `json:"prioritized_gas_estimate"`
}

// ViewRequest is the body of a /view call
type ViewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// NodeInfo is the response of GET /v1, a snapshot of the ledger the node serves
//
// Example:
//
//	{
//		"chain_id": 4,
//		"epoch": "2",
//		"ledger_version": "3135",
//		"oldest_ledger_version": "0",
//		"ledger_timestamp": "1718000000000000",
//		"node_role": "full_node",
//		"oldest_block_height": "0",
//		"block_height": "1502"
//	}
type NodeInfo struct {
	ChainId             uint8  `json:"chain_id"`
	Epoch               U64    `json:"epoch"`
	LedgerVersion       U64    `json:"ledger_version"`
	OldestLedgerVersion U64    `json:"oldest_ledger_version"`
	LedgerTimestamp     U64    `json:"ledger_timestamp"`
	NodeRole            string `json:"node_role"`
	OldestBlockHeight   U64    `json:"oldest_block_height"`
	BlockHeight         U64    `json:"block_height"`
}
