package aptos

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sidkris/aptos-transfer/api"
)

// NetworkConfig a configuration for the Client and which network to use.  Use one of the preconfigured
// [DevnetConfig], [TestnetConfig] or [LocalnetConfig] unless you have your own full node.
//
// If ChainId is 0, the ChainId will be fetched on-chain.
// If FaucetUrl is an empty string "", no faucet client is made and funding fails.
type NetworkConfig struct {
	Name      string
	ChainId   uint8
	NodeUrl   string
	FaucetUrl string
}

// DevnetConfig is for use with devnet.  Devnet resets regularly, so the chain id is always fetched.
var DevnetConfig = NetworkConfig{
	Name:      "devnet",
	NodeUrl:   "https://api.devnet.aptoslabs.com/v1",
	FaucetUrl: "https://faucet.devnet.aptoslabs.com",
}

// TestnetConfig is for use with testnet.  Testnet does not reset.
var TestnetConfig = NetworkConfig{
	Name:      "testnet",
	ChainId:   2,
	NodeUrl:   "https://api.testnet.aptoslabs.com/v1",
	FaucetUrl: "https://faucet.testnet.aptoslabs.com",
}

// LocalnetConfig is for use with a localnet, created by `aptos node run-localnet` or by the ledgersim command
var LocalnetConfig = NetworkConfig{
	Name:      "localnet",
	ChainId:   4,
	NodeUrl:   "http://127.0.0.1:8080/v1",
	FaucetUrl: "http://127.0.0.1:8081",
}

// NamedNetworks Map from network name to NetworkConfig
var NamedNetworks map[string]NetworkConfig

func init() {
	NamedNetworks = make(map[string]NetworkConfig, 3)
	setNN := func(nc NetworkConfig) {
		NamedNetworks[nc.Name] = nc
	}
	setNN(DevnetConfig)
	setNN(TestnetConfig)
	setNN(LocalnetConfig)
}

// LedgerClient is everything the transfer lifecycle needs from a node.  Its main implementation is [NodeClient].
//
// Every call takes a context; cancelling it abandons the request.
type LedgerClient interface {
	// Info retrieves the node info about the network and its current state
	Info(ctx context.Context) (info api.NodeInfo, err error)

	// Account retrieves the sequence number and authentication key of an account
	Account(ctx context.Context, address AccountAddress) (info AccountInfo, err error)

	// AccountBalance retrieves the AptosCoin balance of an account
	AccountBalance(ctx context.Context, address AccountAddress) (balance Balance, err error)

	// GetChainId retrieves the chain id of the network
	GetChainId(ctx context.Context) (chainId uint8, err error)

	// EstimateGasPrice retrieves the gas unit price estimates of the network
	EstimateGasPrice(ctx context.Context) (info api.GasEstimate, err error)

	// SimulateTransaction dry-runs a transaction carrying a simulation authenticator
	SimulateTransaction(ctx context.Context, signedTxn *SignedTransaction) (data []*api.UserTransaction, err error)

	// SubmitTransaction submits an already signed transaction
	SubmitTransaction(ctx context.Context, signedTxn *SignedTransaction) (data *api.SubmitTransactionResponse, err error)

	// TransactionByHash gets a transaction, which may be pending or committed
	TransactionByHash(ctx context.Context, txnHash string) (data *api.Transaction, err error)

	// WaitForTransaction waits for one transaction to be committed, accepting PollPeriod and PollTimeout
	WaitForTransaction(ctx context.Context, txnHash string, options ...any) (data *api.UserTransaction, err error)
}

// FaucetClient mints test coins on non-production networks.  Its main implementation is [HttpFaucetClient].
type FaucetClient interface {
	// Fund asks the faucet to credit address, returning the hashes of the faucet's transactions
	Fund(ctx context.Context, address AccountAddress, amount uint64) (txnHashes []string, err error)
}

// Client is a facade over the node and faucet clients, as the user doesn't actually care where the data comes from.
//
// To create a new client, please use [NewClient].  An example below for devnet:
//
//	client, err := NewClient(DevnetConfig)
//
// Implements [LedgerClient] and [FaucetClient]
type Client struct {
	nodeClient   *NodeClient
	faucetClient *HttpFaucetClient
}

// NewClient creates a new client with a specific network config.  An *http.Client may be passed to share a transport.
func NewClient(config NetworkConfig, options ...any) (client *Client, err error) {
	var httpClient *http.Client = nil
	for i, arg := range options {
		switch value := arg.(type) {
		case *http.Client:
			if httpClient != nil {
				err = fmt.Errorf("NewClient only accepts one http.Client")
				return
			}
			httpClient = value
		default:
			err = fmt.Errorf("NewClient arg %d bad type %T", i+1, arg)
			return
		}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	nodeClient, err := NewNodeClientWithHttpClient(config.NodeUrl, config.ChainId, httpClient)
	if err != nil {
		return nil, err
	}
	// Faucet may not be present
	var faucetClient *HttpFaucetClient = nil
	if config.FaucetUrl != "" {
		faucetClient, err = NewFaucetClientWithHttpClient(config.FaucetUrl, httpClient)
		if err != nil {
			return nil, err
		}
	}
	return &Client{nodeClient, faucetClient}, nil
}

// Node exposes the underlying node client
func (client *Client) Node() *NodeClient {
	return client.nodeClient
}

// SetTimeout adjusts the HTTP client timeout
//
//	client.SetTimeout(5 * time.Millisecond)
func (client *Client) SetTimeout(timeout time.Duration) {
	client.nodeClient.SetTimeout(timeout)
}

// SetHeader sets the header for all future node requests
//
//	client.SetHeader("Authorization", "Bearer abcde")
func (client *Client) SetHeader(key string, value string) {
	client.nodeClient.SetHeader(key, value)
}

// RemoveHeader removes the header from being automatically set all future requests.
func (client *Client) RemoveHeader(key string) {
	client.nodeClient.RemoveHeader(key)
}

// Info retrieves the node info about the network and its current state
func (client *Client) Info(ctx context.Context) (info api.NodeInfo, err error) {
	return client.nodeClient.Info(ctx)
}

// HealthCheck checks the node is serving, optionally that its ledger is at most durationSecs old
func (client *Client) HealthCheck(ctx context.Context, durationSecs ...uint64) (api.HealthCheckResponse, error) {
	return client.nodeClient.HealthCheck(ctx, durationSecs...)
}

// Account retrieves the sequence number and authentication key of an account
func (client *Client) Account(ctx context.Context, address AccountAddress) (info AccountInfo, err error) {
	return client.nodeClient.Account(ctx, address)
}

// AccountBalance retrieves the AptosCoin balance of an account
func (client *Client) AccountBalance(ctx context.Context, address AccountAddress) (balance Balance, err error) {
	return client.nodeClient.AccountBalance(ctx, address)
}

// GetChainId retrieves the chain id of the network, cached after the first call or taken from the config
func (client *Client) GetChainId(ctx context.Context) (chainId uint8, err error) {
	return client.nodeClient.GetChainId(ctx)
}

// EstimateGasPrice retrieves the gas estimate from the network.
func (client *Client) EstimateGasPrice(ctx context.Context) (info api.GasEstimate, err error) {
	return client.nodeClient.EstimateGasPrice(ctx)
}

// SimulateTransaction dry-runs a transaction carrying a simulation authenticator
func (client *Client) SimulateTransaction(ctx context.Context, signedTxn *SignedTransaction) (data []*api.UserTransaction, err error) {
	return client.nodeClient.SimulateTransaction(ctx, signedTxn)
}

// SubmitTransaction submits an already signed transaction to the blockchain
func (client *Client) SubmitTransaction(ctx context.Context, signedTxn *SignedTransaction) (data *api.SubmitTransactionResponse, err error) {
	return client.nodeClient.SubmitTransaction(ctx, signedTxn)
}

// TransactionByHash gets info on a transaction, which may be pending or recently committed
func (client *Client) TransactionByHash(ctx context.Context, txnHash string) (data *api.Transaction, err error) {
	return client.nodeClient.TransactionByHash(ctx, txnHash)
}

// WaitForTransaction do a long-GET for one transaction and wait for it to complete
//
//	data, err := client.WaitForTransaction(ctx, "0x1234")
func (client *Client) WaitForTransaction(ctx context.Context, txnHash string, options ...any) (data *api.UserTransaction, err error) {
	return client.nodeClient.WaitForTransaction(ctx, txnHash, options...)
}

// PollForTransactions waits for all hashes to be committed, accepting PollPeriod and PollTimeout
//
//	hashes := []string{"0x1234", "0x4567"}
//	err := client.PollForTransactions(ctx, hashes, PollPeriod(500*time.Millisecond), PollTimeout(5*time.Second))
func (client *Client) PollForTransactions(ctx context.Context, txnHashes []string, options ...any) error {
	return client.nodeClient.PollForTransactions(ctx, txnHashes, options...)
}

// Fund uses the faucet to fund an address, only applies to non-production networks
func (client *Client) Fund(ctx context.Context, address AccountAddress, amount uint64) (txnHashes []string, err error) {
	if client.faucetClient == nil {
		return nil, errors.Wrap(ErrFunding, "no faucet configured")
	}
	return client.faucetClient.Fund(ctx, address, amount)
}

// BuildTransaction builds a raw transaction from the payload, fetching the sequence number and chain id unless given
// as options
//
//	payload, _ := aptos.BuildTransfer(receiver, 1_000)
//	rawTxn, err := client.BuildTransaction(ctx, sender.AccountAddress(), payload, aptos.MaxGasAmount(2_000))
func (client *Client) BuildTransaction(ctx context.Context, sender AccountAddress, payload TransactionPayload, options ...any) (rawTxn *RawTransaction, err error) {
	return BuildTransaction(ctx, client, sender, payload, options...)
}
