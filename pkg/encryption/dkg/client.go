/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dkg is an HTTP client for the distributed key generation service
// that produces symmetric content keys for encrypted status lists.
package dkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/internal/logfields"
)

var logger = log.New("dkg-client")

const keysPath = "/v1/keys"

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the client.
type Config struct {
	// BaseURL is the DKG service base URL.
	BaseURL string
	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient httpClient
}

// Client requests symmetric keys from a DKG network.
type Client struct {
	baseURL    string
	httpClient httpClient
}

// New returns a new DKG client.
func New(config *Config) *Client {
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: client,
	}
}

type keyRequest struct {
	Network string `json:"network"`
}

// RequestKey asks the DKG network scoped to the given ledger network for a
// fresh symmetric content key. The key is returned to the caller and not
// retained.
func (c *Client) RequestKey(ctx context.Context, network string) ([]byte, error) {
	reqBody, err := json.Marshal(&keyRequest{Network: network})
	if err != nil {
		return nil, fmt.Errorf("marshal key request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+keysPath, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build key request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dkg key request: %w", err)
	}

	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			logger.Warnc(ctx, "failed to close response body", log.WithError(errClose))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dkg response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("dkg key request returned status %d", resp.StatusCode)
	}

	encoded := gjson.GetBytes(body, "key").String()
	if encoded == "" {
		return nil, fmt.Errorf("dkg response carries no key")
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode dkg key: %w", err)
	}

	logger.Debugc(ctx, "received symmetric key from dkg", logfields.WithNetwork(network))

	return key, nil
}
