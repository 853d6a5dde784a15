/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package versionchain maintains the previousVersionId/nextVersionId linkage
// between published versions of a named status list. Chain correctness
// depends on resolve-then-append being effectively atomic, so every mutation
// runs under a per-list exclusion keyed by issuer DID and list name. Updates
// to different lists proceed in parallel.
package versionchain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/internal/logfields"
	"github.com/credstatus/csl-service/pkg/resource"
	"github.com/credstatus/csl-service/pkg/statuslist"
)

var logger = log.New("statuslist-versionchain")

// Chain resolves and extends per-list version chains through the resource
// gateway.
type Chain struct {
	gateway resource.Gateway

	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a new version chain over the given gateway.
func New(gateway resource.Gateway) *Chain {
	return &Chain{
		gateway: gateway,
		locks:   make(map[string]*sync.Mutex),
	}
}

// ResolveHead returns the head version of the (issuerDID, name, resourceType)
// chain: the version with no nextVersionId. When no version carries the
// pointer, the most recently created version wins the tie-break. Returns
// statuslist.ErrNotFound when the chain has no versions at all.
func (c *Chain) ResolveHead(ctx context.Context, issuerDID, name, resourceType string) (*resource.Metadata, error) {
	versions, err := c.gateway.DereferenceCollection(ctx, issuerDID, &resource.CollectionQuery{
		Name:         name,
		ResourceType: resourceType,
	})
	if err != nil {
		return nil, err
	}

	return selectHead(versions, issuerDID, name)
}

// History returns the chain ordered head first, walking previousVersionId
// until the genesis version.
func (c *Chain) History(ctx context.Context, issuerDID, name, resourceType string) ([]*resource.Metadata, error) {
	versions, err := c.gateway.DereferenceCollection(ctx, issuerDID, &resource.CollectionQuery{
		Name:         name,
		ResourceType: resourceType,
	})
	if err != nil {
		return nil, err
	}

	head, err := selectHead(versions, issuerDID, name)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*resource.Metadata, len(versions))
	for _, v := range versions {
		byID[v.ResourceID] = v
	}

	var history []*resource.Metadata

	for v := head; v != nil; v = byID[v.PreviousVersionID] {
		history = append(history, v)

		if len(history) > len(versions) {
			return nil, fmt.Errorf("%w: version chain of list %q contains a cycle",
				statuslist.ErrLedger, name)
		}
	}

	return history, nil
}

// MutateFunc builds the next version's payload from the current head. A nil
// head means the chain does not exist yet.
type MutateFunc func(head *resource.Metadata) ([]byte, *resource.PublishOptions, error)

// Create publishes the genesis version of a new chain. It fails with
// statuslist.ErrValidation if the chain already has versions.
func (c *Chain) Create(ctx context.Context, issuerDID, name, resourceType string,
	fn MutateFunc) (*resource.Metadata, error) {
	unlock := c.lock(issuerDID, name)
	defer unlock()

	_, err := c.ResolveHead(ctx, issuerDID, name, resourceType)
	if err == nil {
		return nil, fmt.Errorf("%w: status list %q already exists for %s",
			statuslist.ErrValidation, name, issuerDID)
	}

	if !errors.Is(err, statuslist.ErrNotFound) {
		return nil, err
	}

	payload, opts, err := fn(nil)
	if err != nil {
		return nil, err
	}

	return c.publish(ctx, issuerDID, payload, opts)
}

// Append resolves the head and publishes the version produced by fn as the
// new head, in one atomic step from the caller's perspective. The publish
// call is the only point that mutates the old head's nextVersionId.
func (c *Chain) Append(ctx context.Context, issuerDID, name, resourceType string,
	fn MutateFunc) (*resource.Metadata, error) {
	unlock := c.lock(issuerDID, name)
	defer unlock()

	head, err := c.ResolveHead(ctx, issuerDID, name, resourceType)
	if err != nil {
		return nil, err
	}

	payload, opts, err := fn(head)
	if err != nil {
		return nil, err
	}

	opts.PreviousVersionID = head.ResourceID

	return c.publish(ctx, issuerDID, payload, opts)
}

func (c *Chain) publish(ctx context.Context, issuerDID string, payload []byte,
	opts *resource.PublishOptions) (*resource.Metadata, error) {
	metadata, err := c.gateway.Publish(ctx, issuerDID, payload, opts)
	if err != nil {
		return nil, err
	}

	logger.Debugc(ctx, "appended status list version",
		logfields.WithIssuerDID(issuerDID),
		logfields.WithStatusListName(opts.Name),
		logfields.WithResourceID(metadata.ResourceID),
		logfields.WithVersion(opts.Version))

	return metadata, nil
}

// lock acquires the per-list mutex and returns its release func. The lock is
// always released on return paths, including timeouts surfaced by the
// gateway.
func (c *Chain) lock(issuerDID, name string) func() {
	key := issuerDID + "/" + name

	c.mutex.Lock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	c.mutex.Unlock()

	m.Lock()

	return m.Unlock
}

func selectHead(versions []*resource.Metadata, issuerDID, name string) (*resource.Metadata, error) {
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: no status list %q for %s", statuslist.ErrNotFound, name, issuerDID)
	}

	var candidates []*resource.Metadata

	for _, v := range versions {
		if v.NextVersionID == "" {
			candidates = append(candidates, v)
		}
	}

	if len(candidates) == 0 {
		// Missing pointers; fall back to creation time.
		candidates = versions
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Created.After(candidates[j].Created)
	})

	return candidates[0], nil
}
