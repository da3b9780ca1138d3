package aptos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/pkg/errors"
	"github.com/sidkris/aptos-transfer/api"
)

// ClientHeader is the header key for the client name, sent with every request
const ClientHeader = "x-aptos-client"

// LedgerVersionHeader carries the ledger version a read was served at
const LedgerVersionHeader = "X-Aptos-Ledger-Version"

// ContentTypeAptosSignedTxnBcs is the content type of a BCS encoded signed transaction
const ContentTypeAptosSignedTxnBcs = "application/x.aptos.signed_transaction+bcs"

// ClientHeaderValue is the value of ClientHeader, the module path and version of the running binary
var ClientHeaderValue = "aptos-transfer/unk"

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if strings.HasSuffix(dep.Path, "/aptos-transfer") {
				ClientHeaderValue = "aptos-transfer/" + dep.Version
				return
			}
		}
		if info.Main.Version != "" {
			ClientHeaderValue = "aptos-transfer/" + info.Main.Version
		}
	}
}

// NodeClient talks to the REST API of a full node.  Implements [LedgerClient].
//
// Methods are safe for concurrent use.
type NodeClient struct {
	client  *http.Client
	baseUrl url.URL

	mu      sync.RWMutex
	chainId uint8
	headers map[string]string
}

// NewNodeClient creates a client for the node REST API rooted at rpcUrl, e.g. https://api.devnet.aptoslabs.com/v1.
// A chainId of 0 is fetched on first use.
func NewNodeClient(rpcUrl string, chainId uint8) (*NodeClient, error) {
	return NewNodeClientWithHttpClient(rpcUrl, chainId, &http.Client{Timeout: 60 * time.Second})
}

// NewNodeClientWithHttpClient creates a client with a caller provided http.Client
func NewNodeClientWithHttpClient(rpcUrl string, chainId uint8, client *http.Client) (*NodeClient, error) {
	baseUrl, err := url.Parse(rpcUrl)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid node url %q", rpcUrl)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("invalid node url %q: scheme and host required", rpcUrl)
	}
	return &NodeClient{
		client:  client,
		baseUrl: *baseUrl,
		chainId: chainId,
		headers: map[string]string{ClientHeader: ClientHeaderValue},
	}, nil
}

// SetTimeout adjusts the HTTP client timeout
func (rc *NodeClient) SetTimeout(timeout time.Duration) {
	rc.client.Timeout = timeout
}

// SetHeader sets the header for all future requests
//
//	client.SetHeader("Authorization", "Bearer abcde")
func (rc *NodeClient) SetHeader(key string, value string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.headers[key] = value
}

// RemoveHeader removes the header from being automatically set all future requests.
func (rc *NodeClient) RemoveHeader(key string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.headers, key)
}

// Info retrieves the node info about the network and its current state
func (rc *NodeClient) Info(ctx context.Context) (info api.NodeInfo, err error) {
	_, err = rc.getJSON(ctx, rc.endpoint(""), &info)
	if err != nil {
		return info, errors.Wrap(err, "node info")
	}
	rc.mu.Lock()
	if rc.chainId == 0 {
		rc.chainId = info.ChainId
	}
	rc.mu.Unlock()
	return info, nil
}

// HealthCheck checks the node is serving.  When durationSecs is given the node also fails if its ledger is older
// than that many seconds.
func (rc *NodeClient) HealthCheck(ctx context.Context, durationSecs ...uint64) (response api.HealthCheckResponse, err error) {
	au := rc.endpoint("-/healthy")
	if len(durationSecs) > 0 {
		params := url.Values{}
		params.Set("duration_secs", strconv.FormatUint(durationSecs[0], 10))
		au.RawQuery = params.Encode()
	}
	_, err = rc.getJSON(ctx, au, &response)
	return response, err
}

// Account retrieves the sequence number and authentication key of an account.  [ErrAccountNotFound] when the ledger
// has never seen the address.
func (rc *NodeClient) Account(ctx context.Context, address AccountAddress) (info AccountInfo, err error) {
	_, err = rc.getJSON(ctx, rc.endpoint("accounts", address.String()), &info)
	if err != nil {
		return info, errors.Wrapf(err, "account %s", address.String())
	}
	return info, nil
}

// AccountBalance reads the AptosCoin balance through the coin::balance view function.  The view answers 0 for any
// address, so the account is looked up first: [ErrAccountNotFound] when the ledger has never seen it.
func (rc *NodeClient) AccountBalance(ctx context.Context, address AccountAddress) (balance Balance, err error) {
	if _, err = rc.Account(ctx, address); err != nil {
		return balance, errors.Wrap(err, "balance")
	}
	request := api.ViewRequest{
		Function:      "0x1::coin::balance",
		TypeArguments: []string{AptosCoinTypeTag.String()},
		Arguments:     []any{address.StringLong()},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return balance, err
	}
	var values []api.U64
	header, err := rc.postJSON(ctx, rc.endpoint("view"), "application/json", body, &values)
	if err != nil {
		return balance, errors.Wrapf(err, "balance of %s", address.String())
	}
	if len(values) != 1 {
		return balance, fmt.Errorf("balance of %s: expected one value, got %d", address.String(), len(values))
	}
	balance.Amount = values[0].ToUint64()
	if version := header.Get(LedgerVersionHeader); version != "" {
		balance.LedgerVersion, _ = strconv.ParseUint(version, 10, 64)
	}
	return balance, nil
}

// GetChainId retrieves the chain id of the network, cached after the first call
func (rc *NodeClient) GetChainId(ctx context.Context) (chainId uint8, err error) {
	rc.mu.RLock()
	chainId = rc.chainId
	rc.mu.RUnlock()
	if chainId != 0 {
		return chainId, nil
	}
	info, err := rc.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.ChainId, nil
}

// EstimateGasPrice retrieves the node's gas unit price estimates
func (rc *NodeClient) EstimateGasPrice(ctx context.Context) (info api.GasEstimate, err error) {
	_, err = rc.getJSON(ctx, rc.endpoint("estimate_gas_price"), &info)
	if err != nil {
		return info, errors.Wrap(err, "estimate gas price")
	}
	return info, nil
}

// SimulateTransaction dry-runs a transaction carrying a simulation authenticator.  The node rejects simulations
// carrying a valid signature.
func (rc *NodeClient) SimulateTransaction(ctx context.Context, signedTxn *SignedTransaction) (data []*api.UserTransaction, err error) {
	txnBytes, err := bcs.Serialize(signedTxn)
	if err != nil {
		return nil, err
	}
	_, err = rc.postJSON(ctx, rc.endpoint("transactions", "simulate"), ContentTypeAptosSignedTxnBcs, txnBytes, &data)
	if err != nil {
		return nil, errors.Wrap(err, "simulate transaction")
	}
	return data, nil
}

// SubmitTransaction submits an already signed transaction.  Acceptance only means the node will try to commit it.
func (rc *NodeClient) SubmitTransaction(ctx context.Context, signedTxn *SignedTransaction) (data *api.SubmitTransactionResponse, err error) {
	txnBytes, err := bcs.Serialize(signedTxn)
	if err != nil {
		return nil, err
	}
	data = &api.SubmitTransactionResponse{}
	_, err = rc.postJSON(ctx, rc.endpoint("transactions"), ContentTypeAptosSignedTxnBcs, txnBytes, data)
	if err != nil {
		return nil, errors.Wrap(err, "submit transaction")
	}
	return data, nil
}

// TransactionByHash gets a transaction, which may be pending or committed
//
//	data, err := client.TransactionByHash(ctx, "0xabcd")
//	if errors.Is(err, aptos.ErrTransactionNotFound) {
//		// not indexed yet, or never submitted
//	} else if data.IsPending() {
//		// known to the mempool, but not committed yet
//	}
func (rc *NodeClient) TransactionByHash(ctx context.Context, txnHash string) (data *api.Transaction, err error) {
	data = &api.Transaction{}
	_, err = rc.getJSON(ctx, rc.endpoint("transactions", "by_hash", txnHash), data)
	if err != nil {
		return nil, errors.Wrapf(err, "transaction %s", txnHash)
	}
	return data, nil
}

// WaitForTransaction does a long-GET for one transaction and keeps waiting until it is committed.  Accepts
// PollPeriod and PollTimeout.  A hash the node has not indexed yet is waited on, not reported missing.
//
//	data, err := client.WaitForTransaction(ctx, "0x1234", aptos.PollTimeout(10*time.Second))
func (rc *NodeClient) WaitForTransaction(ctx context.Context, txnHash string, options ...any) (data *api.UserTransaction, err error) {
	opts, err := parsePollOptions(options)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	ticker := time.NewTicker(opts.period)
	defer ticker.Stop()
	for {
		txn := &api.Transaction{}
		_, err = rc.getJSON(ctx, rc.endpoint("transactions", "wait_by_hash", txnHash), txn)
		switch {
		case err == nil && !txn.IsPending():
			return txn.UserTransaction()
		case err != nil && ctx.Err() != nil:
			return nil, errors.Wrapf(ErrConfirmationTimeout, "transaction %s", txnHash)
		case err != nil && !IsNotFound(err):
			return nil, errors.Wrapf(err, "wait for transaction %s", txnHash)
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ErrConfirmationTimeout, "transaction %s", txnHash)
		case <-ticker.C:
		}
	}
}

// PollForTransactions waits for every hash to be committed, polling at PollPeriod up to PollTimeout
func (rc *NodeClient) PollForTransactions(ctx context.Context, txnHashes []string, options ...any) error {
	opts, err := parsePollOptions(options)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	ticker := time.NewTicker(opts.period)
	defer ticker.Stop()
	hashSet := make(map[string]bool, len(txnHashes))
	for _, hash := range txnHashes {
		hashSet[hash] = true
	}
	for len(hashSet) > 0 {
		for hash := range hashSet {
			txn, err := rc.TransactionByHash(ctx, hash)
			if err == nil && !txn.IsPending() {
				delete(hashSet, hash)
			} else if err != nil && !IsNotFound(err) && ctx.Err() == nil {
				return err
			}
		}
		if len(hashSet) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ErrConfirmationTimeout, "%d transactions still pending", len(hashSet))
		case <-ticker.C:
		}
	}
	return nil
}

//region http plumbing

func (rc *NodeClient) endpoint(elems ...string) *url.URL {
	return rc.baseUrl.JoinPath(elems...)
}

func (rc *NodeClient) setHeaders(request *http.Request) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	for key, value := range rc.headers {
		request.Header.Set(key, value)
	}
}

func (rc *NodeClient) getJSON(ctx context.Context, getUrl *url.URL, out any) (http.Header, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, getUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	return rc.do(request, out)
}

func (rc *NodeClient) postJSON(ctx context.Context, postUrl *url.URL, contentType string, body []byte, out any) (http.Header, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, postUrl.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", contentType)
	return rc.do(request, out)
}

func (rc *NodeClient) do(request *http.Request, out any) (http.Header, error) {
	rc.setHeaders(request)
	request.Header.Set("Accept", "application/json")
	response, err := rc.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode >= 400 {
		return response.Header, NewHttpError(response)
	}
	blob, err := io.ReadAll(response.Body)
	if err != nil {
		return response.Header, errors.Wrap(err, "error getting response data")
	}
	if err = json.Unmarshal(blob, out); err != nil {
		return response.Header, errors.Wrapf(err, "decoding %s response", request.URL.Path)
	}
	return response.Header, nil
}

//endregion
