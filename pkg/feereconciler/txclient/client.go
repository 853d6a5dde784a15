/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package txclient fetches transaction block timestamps from the ledger's
// transaction-by-hash REST endpoint. Each target network has its own
// endpoint.
package txclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/trustbloc/logutil-go/pkg/log"
)

var logger = log.New("ledger-txclient")

const txByHashPath = "/cosmos/tx/v1beta1/txs/"

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the client.
type Config struct {
	// Endpoints maps a network name to its REST API base URL.
	Endpoints map[string]string
	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient httpClient
}

// Client resolves block timestamps per network.
type Client struct {
	endpoints  map[string]string
	httpClient httpClient
}

// New returns a new transaction client.
func New(config *Config) *Client {
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		endpoints:  config.Endpoints,
		httpClient: client,
	}
}

// BlockTimestamp returns the block time of the given transaction.
func (c *Client) BlockTimestamp(ctx context.Context, network, txHash string) (time.Time, error) {
	baseURL, ok := c.endpoints[network]
	if !ok {
		return time.Time{}, fmt.Errorf("no ledger endpoint configured for network %q", network)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+txByHashPath+txHash, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("build tx request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch tx %s: %w", txHash, err)
	}

	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			logger.Warnc(ctx, "failed to close response body", log.WithError(errClose))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return time.Time{}, fmt.Errorf("read tx response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("tx endpoint returned status %d for %s", resp.StatusCode, txHash)
	}

	raw := gjson.GetBytes(body, "tx_response.timestamp").String()
	if raw == "" {
		return time.Time{}, fmt.Errorf("tx response for %s carries no timestamp", txHash)
	}

	timestamp, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse tx timestamp %q: %w", raw, err)
	}

	return timestamp, nil
}
