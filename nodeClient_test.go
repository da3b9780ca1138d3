package aptos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newNodeStub answers like a full node: /view returns a balance for any address, /accounts only knows known
func newNodeStub(t *testing.T, known AccountAddress, balance string) *NodeClient {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(LedgerVersionHeader, "42")
		switch {
		case r.URL.Path == "/v1/view":
			_, _ = w.Write([]byte(`["` + balance + `"]`))
		case r.URL.Path == "/v1/accounts/"+known.String():
			_, _ = w.Write([]byte(`{"sequence_number":"3","authentication_key":"` + known.StringLong() + `"}`))
		case strings.HasPrefix(r.URL.Path, "/v1/accounts/"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Account not found","error_code":"account_not_found"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	client, err := NewNodeClient(server.URL+"/v1", 4)
	require.NoError(t, err)
	return client
}

func TestAccountBalance_UnknownAccount(t *testing.T) {
	var known AccountAddress
	require.NoError(t, known.ParseStringRelaxed("0xabc"))
	client := newNodeStub(t, known, "0")

	var unknown AccountAddress
	require.NoError(t, unknown.ParseStringRelaxed("0xdef"))
	_, err := client.AccountBalance(context.Background(), unknown)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	provisioner := NewAccountProvisioner(client, nil)
	_, err = provisioner.QueryBalance(context.Background(), unknown)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	balance, err := client.AccountBalance(context.Background(), known)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance.Amount)
	assert.Equal(t, uint64(42), balance.LedgerVersion)
}

func TestAccountBalance_KnownAccount(t *testing.T) {
	var known AccountAddress
	require.NoError(t, known.ParseStringRelaxed("0xabc"))
	client := newNodeStub(t, known, "1234")

	balance, err := client.AccountBalance(context.Background(), known)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), balance.Amount)
}
