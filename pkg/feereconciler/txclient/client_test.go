/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_BlockTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cosmos/tx/v1beta1/txs/A1B2C3", r.URL.Path)

		fmt.Fprint(w, `{"tx_response":{"txhash":"A1B2C3","timestamp":"2024-05-01T10:30:00Z"}}`)
	}))
	defer server.Close()

	client := New(&Config{Endpoints: map[string]string{"testnet": server.URL}})

	timestamp, err := client.BlockTimestamp(context.Background(), "testnet", "A1B2C3")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), timestamp.UTC())

	t.Run("unknown network", func(t *testing.T) {
		_, err = client.BlockTimestamp(context.Background(), "devnet", "A1B2C3")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no ledger endpoint")
	})
}

func TestClient_BlockTimestampErrors(t *testing.T) {
	t.Run("endpoint failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := New(&Config{Endpoints: map[string]string{"testnet": server.URL}})

		_, err := client.BlockTimestamp(context.Background(), "testnet", "A1B2C3")
		require.Error(t, err)
		require.Contains(t, err.Error(), "status 500")
	})

	t.Run("response without timestamp", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"tx_response":{}}`)
		}))
		defer server.Close()

		client := New(&Config{Endpoints: map[string]string{"testnet": server.URL}})

		_, err := client.BlockTimestamp(context.Background(), "testnet", "A1B2C3")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no timestamp")
	})

	t.Run("malformed timestamp", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"tx_response":{"timestamp":"yesterday"}}`)
		}))
		defer server.Close()

		client := New(&Config{Endpoints: map[string]string{"testnet": server.URL}})

		_, err := client.BlockTimestamp(context.Background(), "testnet", "A1B2C3")
		require.Error(t, err)
		require.Contains(t, err.Error(), "parse tx timestamp")
	})
}
