package aptos

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// HttpFaucetClient talks to a devnet or localnet faucet.  Implements [FaucetClient].
type HttpFaucetClient struct {
	client *http.Client
	url    url.URL
}

// NewFaucetClient creates a faucet client for faucetUrl, e.g. https://faucet.devnet.aptoslabs.com
func NewFaucetClient(faucetUrl string) (*HttpFaucetClient, error) {
	return NewFaucetClientWithHttpClient(faucetUrl, &http.Client{Timeout: 60 * time.Second})
}

// NewFaucetClientWithHttpClient creates a faucet client with a caller provided http.Client
func NewFaucetClientWithHttpClient(faucetUrl string, client *http.Client) (*HttpFaucetClient, error) {
	parsed, err := url.Parse(faucetUrl)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid faucet url %q", faucetUrl)
	}
	return &HttpFaucetClient{client: client, url: *parsed}, nil
}

// Fund asks the faucet to mint amount to address.  It returns the hashes of the faucet's transactions, which still
// have to be awaited before the credit is visible.  Any rejection is [ErrFunding].
func (faucetClient *HttpFaucetClient) Fund(ctx context.Context, address AccountAddress, amount uint64) (txnHashes []string, err error) {
	mintUrl := faucetClient.url.JoinPath("mint")
	params := url.Values{}
	params.Set("amount", strconv.FormatUint(amount, 10))
	params.Set("address", address.StringLong())
	mintUrl.RawQuery = params.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, mintUrl.String(), nil)
	if err != nil {
		return nil, errors.Wrap(ErrFunding, err.Error())
	}
	request.Header.Set(ClientHeader, ClientHeaderValue)
	response, err := faucetClient.client.Do(request)
	if err != nil {
		return nil, &FundingError{Cause: errors.Wrap(err, "faucet request")}
	}
	defer response.Body.Close()
	if response.StatusCode >= 400 {
		return nil, &FundingError{Cause: NewHttpError(response)}
	}
	blob, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrFunding, "faucet response: %v", err)
	}
	if err = json.Unmarshal(blob, &txnHashes); err != nil {
		return nil, errors.Wrapf(ErrFunding, "faucet response %q: %v", string(blob), err)
	}
	return txnHashes, nil
}
