package aptos_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	aptos "github.com/sidkris/aptos-transfer"
	"github.com/sidkris/aptos-transfer/internal/ledgersim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFaucetProvisioner(t *testing.T, handler http.Handler) (*aptos.HttpFaucetClient, *aptos.AccountProvisioner) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	faucet, err := aptos.NewFaucetClient(server.URL)
	require.NoError(t, err)
	node, err := aptos.NewNodeClient(server.URL+"/v1", 4)
	require.NoError(t, err)
	return faucet, aptos.NewAccountProvisioner(node, faucet)
}

func TestFaucetRateLimited(t *testing.T) {
	faucet, provisioner := newFaucetProvisioner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limit exceeded","error_code":"rate_limited"}`))
	}))

	_, err := faucet.Fund(context.Background(), aptos.AccountOne, 100)
	assert.ErrorIs(t, err, aptos.ErrFunding)
	var httpErr *aptos.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, "rate limit exceeded", httpErr.Message)

	err = provisioner.Fund(context.Background(), aptos.AccountOne, 100)
	assert.ErrorIs(t, err, aptos.ErrFunding)
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestFaucetRejectsInvalidAddress(t *testing.T) {
	router := ledgersim.NewServer(ledgersim.New(ledgersim.Config{})).Router()
	// the client only sends valid addresses, so garble it on the way in
	_, provisioner := newFaucetProvisioner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		query.Set("address", "not-an-address")
		r.URL.RawQuery = query.Encode()
		router.ServeHTTP(w, r)
	}))

	err := provisioner.Fund(context.Background(), aptos.AccountOne, 100)
	assert.ErrorIs(t, err, aptos.ErrFunding)
	var httpErr *aptos.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
}

func TestFaucetStalls(t *testing.T) {
	faucet, provisioner := newFaucetProvisioner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := faucet.Fund(ctx, aptos.AccountOne, 100)
	assert.ErrorIs(t, err, aptos.ErrFunding)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = provisioner.Fund(ctx, aptos.AccountOne, 100)
	assert.ErrorIs(t, err, aptos.ErrFunding)
}

func TestFundNeverCommits(t *testing.T) {
	client, _ := newSimulatedClient(t, ledgersim.Config{CommitDelay: time.Hour})
	provisioner := aptos.NewAccountProvisioner(client, client)
	provisioner.PollOptions = []any{aptos.PollPeriod(10 * time.Millisecond), aptos.PollTimeout(50 * time.Millisecond)}
	account, err := provisioner.Generate()
	require.NoError(t, err)

	start := time.Now()
	err = provisioner.Fund(context.Background(), account.Address, 100)
	assert.ErrorIs(t, err, aptos.ErrFunding)
	assert.Less(t, time.Since(start), 5*time.Second)
}
