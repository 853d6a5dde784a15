/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpgateway implements the resource.Gateway contract against a DID
// resolver/registrar REST API.
package httpgateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/internal/logfields"
	"github.com/credstatus/csl-service/pkg/resource"
	"github.com/credstatus/csl-service/pkg/statuslist"
)

var logger = log.New("resource-httpgateway")

const (
	identifiersPath    = "/1.0/identifiers/"
	createResourcePath = "/1.0/create-resource"

	linkedResourceMetadataPath = "didDocumentMetadata.linkedResourceMetadata"
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the gateway.
type Config struct {
	// ResolverURL is the base URL of the DID resolver.
	ResolverURL string
	// RegistrarURL is the base URL of the DID registrar used for publication.
	RegistrarURL string
	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient httpClient
}

// Gateway is an HTTP implementation of resource.Gateway.
type Gateway struct {
	resolverURL  string
	registrarURL string
	httpClient   httpClient
}

// New returns a new HTTP resource gateway.
func New(config *Config) *Gateway {
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Gateway{
		resolverURL:  config.ResolverURL,
		registrarURL: config.RegistrarURL,
		httpClient:   client,
	}
}

type createResourceRequest struct {
	DID               string                        `json:"did"`
	Name              string                        `json:"name"`
	ResourceType      string                        `json:"resourceType"`
	Version           string                        `json:"version,omitempty"`
	Data              string                        `json:"data"`
	AlsoKnownAs       []statuslist.AlsoKnownAs      `json:"alsoKnownAs,omitempty"`
	Encrypted         bool                          `json:"encrypted,omitempty"`
	PaymentConditions []statuslist.PaymentCondition `json:"paymentConditions,omitempty"`
}

// Publish anchors a new resource version through the registrar.
func (g *Gateway) Publish(ctx context.Context, issuerDID string, payload []byte,
	opts *resource.PublishOptions) (*resource.Metadata, error) {
	reqBody, err := json.Marshal(&createResourceRequest{
		DID:               issuerDID,
		Name:              opts.Name,
		ResourceType:      opts.ResourceType,
		Version:           opts.Version,
		Data:              base64.StdEncoding.EncodeToString(payload),
		AlsoKnownAs:       opts.AlsoKnownAs,
		Encrypted:         opts.Encrypted,
		PaymentConditions: opts.PaymentConditions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal create resource request: %w", err)
	}

	body, err := g.post(ctx, g.registrarURL+createResourcePath, reqBody)
	if err != nil {
		return nil, err
	}

	metadata := parseMetadata(gjson.GetBytes(body, "resource"))
	if metadata.ResourceID == "" {
		return nil, fmt.Errorf("%w: registrar response carries no resource metadata", statuslist.ErrLedger)
	}

	logger.Debugc(ctx, "published resource version",
		logfields.WithIssuerDID(issuerDID), logfields.WithResourceID(metadata.ResourceID))

	return metadata, nil
}

// DereferenceCollection resolves the issuer DID and filters its linked
// resource metadata by the query.
func (g *Gateway) DereferenceCollection(ctx context.Context, issuerDID string,
	query *resource.CollectionQuery) ([]*resource.Metadata, error) {
	body, err := g.get(ctx, g.resolverURL+identifiersPath+url.PathEscape(issuerDID))
	if err != nil {
		return nil, err
	}

	var out []*resource.Metadata

	for _, entry := range gjson.GetBytes(body, linkedResourceMetadataPath).Array() {
		metadata := parseMetadata(entry)

		if query != nil {
			if query.Name != "" && metadata.ResourceName != query.Name {
				continue
			}

			if query.ResourceType != "" && metadata.ResourceType != query.ResourceType {
				continue
			}
		}

		out = append(out, metadata)
	}

	return out, nil
}

// DereferenceResource fetches one resource version's payload.
func (g *Gateway) DereferenceResource(ctx context.Context, issuerDID, resourceID string) ([]byte, error) {
	return g.get(ctx, g.resolverURL+identifiersPath+url.PathEscape(issuerDID)+"/resources/"+url.PathEscape(resourceID))
}

func (g *Gateway) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", statuslist.ErrLedger, err)
	}

	return g.do(req)
}

func (g *Gateway) post(ctx context.Context, rawURL string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", statuslist.ErrLedger, err)
	}

	req.Header.Set("Content-Type", "application/json")

	return g.do(req)
}

func (g *Gateway) do(req *http.Request) ([]byte, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %s", statuslist.ErrLedger, req.Method, req.URL.Path, err)
	}

	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			logger.Warnc(req.Context(), "failed to close response body", log.WithError(errClose))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %s", statuslist.ErrLedger, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", statuslist.ErrNotFound, req.URL.Path)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s %s returned status %d", statuslist.ErrLedger,
			req.Method, req.URL.Path, resp.StatusCode)
	}

	return body, nil
}

func parseMetadata(entry gjson.Result) *resource.Metadata {
	metadata := &resource.Metadata{
		ResourceID:        entry.Get("resourceId").String(),
		ResourceName:      entry.Get("resourceName").String(),
		ResourceType:      entry.Get("resourceType").String(),
		ResourceVersion:   entry.Get("resourceVersion").String(),
		PreviousVersionID: entry.Get("previousVersionId").String(),
		NextVersionID:     entry.Get("nextVersionId").String(),
		Encrypted:         entry.Get("encrypted").Bool(),
	}

	if created, err := time.Parse(time.RFC3339, entry.Get("created").String()); err == nil {
		metadata.Created = created
	}

	if conditions := entry.Get("paymentConditions"); conditions.Exists() {
		if err := json.Unmarshal([]byte(conditions.Raw), &metadata.PaymentConditions); err != nil {
			logger.Warn("failed to parse payment conditions metadata", log.WithError(err))
		}
	}

	return metadata
}
