package aptos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{"account", http.StatusNotFound, `{"message":"Account not found by Address(0x1)","error_code":"account_not_found"}`, ErrAccountNotFound},
		{"transaction", http.StatusNotFound, `{"message":"Transaction not found","error_code":"transaction_not_found"}`, ErrTransactionNotFound},
		{"stale", http.StatusBadRequest, `{"message":"Invalid transaction: Type: Validation Code: SEQUENCE_NUMBER_TOO_OLD","error_code":"vm_error","vm_error_code":3}`, ErrStaleSequenceNumber},
		{"signature", http.StatusBadRequest, `{"message":"Invalid transaction: Type: Validation Code: INVALID_SIGNATURE","error_code":"vm_error","vm_error_code":1}`, ErrSignatureMismatch},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer server.Close()

			client, err := NewNodeClient(server.URL+"/v1", 4)
			require.NoError(t, err)
			_, err = client.TransactionByHash(context.Background(), "0x1")
			assert.ErrorIs(t, err, test.expected)

			var httpErr *HttpError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, test.status, httpErr.StatusCode)
			assert.Equal(t, http.MethodGet, httpErr.Method)
			assert.NotEmpty(t, httpErr.ErrorCode)
			assert.Equal(t, test.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestHttpErrorUnknownBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client, err := NewNodeClient(server.URL+"/v1", 4)
	require.NoError(t, err)
	_, err = client.EstimateGasPrice(context.Background())
	require.Error(t, err)
	var httpErr *HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Nil(t, httpErr.Unwrap())
	assert.Contains(t, httpErr.Error(), "upstream unavailable")
	assert.False(t, IsNotFound(err))
}

func TestNodeClientSendsHeaders(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"aptos-node:ok"}`))
	}))
	defer server.Close()

	client, err := NewNodeClient(server.URL+"/v1", 4)
	require.NoError(t, err)
	client.SetHeader("Authorization", "Bearer abcde")
	_, err = client.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abcde", seen.Get("Authorization"))
	assert.Equal(t, ClientHeaderValue, seen.Get(ClientHeader))

	client.RemoveHeader("Authorization")
	_, err = client.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Empty(t, seen.Get("Authorization"))
}
