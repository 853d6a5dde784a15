/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resource defines the narrow contract to the ledger's DID-Linked
// Resource collection. The core publishes immutable versioned payloads and
// reads back per-version metadata; everything else about DIDs is an external
// concern.
package resource

import (
	"context"
	"time"

	"github.com/credstatus/csl-service/pkg/statuslist"
)

// Metadata mirrors one didDocumentMetadata.linkedResourceMetadata[] entry.
type Metadata struct {
	ResourceID        string                        `json:"resourceId"`
	ResourceName      string                        `json:"resourceName"`
	ResourceType      string                        `json:"resourceType"`
	ResourceVersion   string                        `json:"resourceVersion,omitempty"`
	Created           time.Time                     `json:"created"`
	PreviousVersionID string                        `json:"previousVersionId,omitempty"`
	NextVersionID     string                        `json:"nextVersionId,omitempty"`
	Encrypted         bool                          `json:"encrypted,omitempty"`
	PaymentConditions []statuslist.PaymentCondition `json:"paymentConditions,omitempty"`
}

// PublishOptions carries the caller-assigned identity of a new version.
// Supplying a stable Version label makes Publish idempotent-safe against
// caller retries; otherwise duplicate publication is the caller's problem.
type PublishOptions struct {
	Name              string
	ResourceType      string
	Version           string
	PreviousVersionID string
	Encrypted         bool
	PaymentConditions []statuslist.PaymentCondition
	AlsoKnownAs       []statuslist.AlsoKnownAs
}

// CollectionQuery selects resources within an issuer's collection.
type CollectionQuery struct {
	Name         string
	ResourceType string
}

// Gateway publishes and fetches DID-Linked Resources.
type Gateway interface {
	// Publish anchors a new immutable resource version and returns its
	// ledger-assigned metadata.
	Publish(ctx context.Context, issuerDID string, payload []byte, opts *PublishOptions) (*Metadata, error)

	// DereferenceCollection resolves the issuer DID and returns the linked
	// resource metadata matching the query, all versions included.
	DereferenceCollection(ctx context.Context, issuerDID string, query *CollectionQuery) ([]*Metadata, error)

	// DereferenceResource fetches one resource version's payload.
	DereferenceResource(ctx context.Context, issuerDID, resourceID string) ([]byte, error)
}
