/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package versionchain

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/credstatus/csl-service/pkg/resource"
	"github.com/credstatus/csl-service/pkg/statuslist"
)

const (
	testDID  = "did:cheqd:testnet:7bf81a20-633c-4cc7-bc4a-5a45801005e0"
	testName = "employment-status"
	testType = "BitstringStatusList"
)

func TestChain_CreateAndResolveHead(t *testing.T) {
	gateway := newFakeGateway()
	chain := New(gateway)

	_, err := chain.ResolveHead(context.Background(), testDID, testName, testType)
	require.ErrorIs(t, err, statuslist.ErrNotFound)

	created, err := chain.Create(context.Background(), testDID, testName, testType,
		func(head *resource.Metadata) ([]byte, *resource.PublishOptions, error) {
			require.Nil(t, head)

			return []byte("v1"), &resource.PublishOptions{
				Name:         testName,
				ResourceType: testType,
				Version:      uuid.NewString(),
			}, nil
		})
	require.NoError(t, err)
	require.NotEmpty(t, created.ResourceID)

	head, err := chain.ResolveHead(context.Background(), testDID, testName, testType)
	require.NoError(t, err)
	require.Equal(t, created.ResourceID, head.ResourceID)

	t.Run("create on existing chain fails", func(t *testing.T) {
		_, err = chain.Create(context.Background(), testDID, testName, testType,
			func(*resource.Metadata) ([]byte, *resource.PublishOptions, error) {
				return nil, nil, nil
			})
		require.ErrorIs(t, err, statuslist.ErrValidation)
		require.Contains(t, err.Error(), "already exists")
	})
}

func TestChain_Append(t *testing.T) {
	gateway := newFakeGateway()
	chain := New(gateway)

	mustCreate(t, chain)

	const appends = 5

	for i := 0; i < appends; i++ {
		_, err := chain.Append(context.Background(), testDID, testName, testType,
			func(head *resource.Metadata) ([]byte, *resource.PublishOptions, error) {
				require.NotNil(t, head)

				return []byte(fmt.Sprintf("v%d", i+2)), &resource.PublishOptions{
					Name:         testName,
					ResourceType: testType,
					Version:      uuid.NewString(),
				}, nil
			})
		require.NoError(t, err)
	}

	// walking previousVersionId from the head reaches the genesis version
	// in exactly N+1 steps, and exactly one version has no nextVersionId.
	history, err := chain.History(context.Background(), testDID, testName, testType)
	require.NoError(t, err)
	require.Len(t, history, appends+1)
	require.Empty(t, history[len(history)-1].PreviousVersionID)

	heads := 0
	for _, v := range gateway.versions(testDID) {
		if v.NextVersionID == "" {
			heads++
		}
	}
	require.Equal(t, 1, heads)
}

func TestChain_AppendNotFound(t *testing.T) {
	chain := New(newFakeGateway())

	_, err := chain.Append(context.Background(), testDID, testName, testType,
		func(*resource.Metadata) ([]byte, *resource.PublishOptions, error) {
			return nil, nil, nil
		})
	require.ErrorIs(t, err, statuslist.ErrNotFound)
}

func TestChain_ResolveHeadFallback(t *testing.T) {
	gateway := newFakeGateway()

	// two versions, neither carrying a nextVersionId pointer: the most
	// recently created one wins the tie-break.
	gateway.add(testDID, &resource.Metadata{
		ResourceID:   "older",
		ResourceName: testName,
		ResourceType: testType,
		Created:      time.Now().Add(-time.Hour),
	}, []byte("older"))
	gateway.add(testDID, &resource.Metadata{
		ResourceID:   "newer",
		ResourceName: testName,
		ResourceType: testType,
		Created:      time.Now(),
	}, []byte("newer"))

	head, err := New(gateway).ResolveHead(context.Background(), testDID, testName, testType)
	require.NoError(t, err)
	require.Equal(t, "newer", head.ResourceID)
}

func TestChain_ConcurrentAppends(t *testing.T) {
	gateway := newFakeGateway()
	chain := New(gateway)

	mustCreate(t, chain)

	const goroutines = 8

	var wg sync.WaitGroup

	errCh := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := chain.Append(context.Background(), testDID, testName, testType,
				func(head *resource.Metadata) ([]byte, *resource.PublishOptions, error) {
					return []byte("racer"), &resource.PublishOptions{
						Name:         testName,
						ResourceType: testType,
						Version:      uuid.NewString(),
					}, nil
				})
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	// post-condition: a single unambiguous head and an intact chain.
	history, err := chain.History(context.Background(), testDID, testName, testType)
	require.NoError(t, err)
	require.Len(t, history, goroutines+1)

	heads := 0
	for _, v := range gateway.versions(testDID) {
		if v.NextVersionID == "" {
			heads++
		}
	}
	require.Equal(t, 1, heads)
}

func mustCreate(t *testing.T, chain *Chain) {
	t.Helper()

	_, err := chain.Create(context.Background(), testDID, testName, testType,
		func(*resource.Metadata) ([]byte, *resource.PublishOptions, error) {
			return []byte("v1"), &resource.PublishOptions{
				Name:         testName,
				ResourceType: testType,
				Version:      uuid.NewString(),
			}, nil
		})
	require.NoError(t, err)
}

// fakeGateway simulates the ledger's resource collection: publish assigns a
// resource ID, links previousVersionId/nextVersionId and timestamps the
// version.
type fakeGateway struct {
	mutex    sync.Mutex
	metadata map[string][]*resource.Metadata
	payloads map[string][]byte
	clock    time.Time
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		metadata: make(map[string][]*resource.Metadata),
		payloads: make(map[string][]byte),
		clock:    time.Now(),
	}
}

func (f *fakeGateway) Publish(_ context.Context, issuerDID string, payload []byte,
	opts *resource.PublishOptions) (*resource.Metadata, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.clock = f.clock.Add(time.Second)

	metadata := &resource.Metadata{
		ResourceID:        uuid.NewString(),
		ResourceName:      opts.Name,
		ResourceType:      opts.ResourceType,
		ResourceVersion:   opts.Version,
		Created:           f.clock,
		PreviousVersionID: opts.PreviousVersionID,
		Encrypted:         opts.Encrypted,
		PaymentConditions: opts.PaymentConditions,
	}

	if opts.PreviousVersionID != "" {
		for _, v := range f.metadata[issuerDID] {
			if v.ResourceID == opts.PreviousVersionID {
				v.NextVersionID = metadata.ResourceID
			}
		}
	}

	f.metadata[issuerDID] = append(f.metadata[issuerDID], metadata)
	f.payloads[metadata.ResourceID] = payload

	return metadata, nil
}

func (f *fakeGateway) DereferenceCollection(_ context.Context, issuerDID string,
	query *resource.CollectionQuery) ([]*resource.Metadata, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var out []*resource.Metadata

	for _, v := range f.metadata[issuerDID] {
		if query != nil {
			if query.Name != "" && v.ResourceName != query.Name {
				continue
			}

			if query.ResourceType != "" && v.ResourceType != query.ResourceType {
				continue
			}
		}

		copied := *v
		out = append(out, &copied)
	}

	return out, nil
}

func (f *fakeGateway) DereferenceResource(_ context.Context, _, resourceID string) ([]byte, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	payload, ok := f.payloads[resourceID]
	if !ok {
		return nil, statuslist.ErrNotFound
	}

	return payload, nil
}

func (f *fakeGateway) add(issuerDID string, metadata *resource.Metadata, payload []byte) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.metadata[issuerDID] = append(f.metadata[issuerDID], metadata)
	f.payloads[metadata.ResourceID] = payload
}

func (f *fakeGateway) versions(issuerDID string) []*resource.Metadata {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return append([]*resource.Metadata{}, f.metadata[issuerDID]...)
}
