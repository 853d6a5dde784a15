/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/credstatus/csl-service/pkg/service/statuslist"
)

func TestWrapper(t *testing.T) {
	svc := &recordingService{}
	w := Wrap(svc, trace.NewNoopTracerProvider().Tracer(""))

	t.Run("CreateUnencrypted", func(t *testing.T) {
		_, err := w.CreateUnencrypted(context.Background(), &statuslist.CreateListRequest{})
		require.NoError(t, err)
	})

	t.Run("CreateEncrypted", func(t *testing.T) {
		_, err := w.CreateEncrypted(context.Background(), &statuslist.CreateEncryptedListRequest{})
		require.NoError(t, err)
	})

	t.Run("Update", func(t *testing.T) {
		_, err := w.Update(context.Background(), &statuslist.UpdateRequest{})
		require.NoError(t, err)
	})

	t.Run("UpdateMany", func(t *testing.T) {
		_, err := w.UpdateMany(context.Background(), []*statuslist.UpdateRequest{{}})
		require.NoError(t, err)
	})

	t.Run("Check", func(t *testing.T) {
		_, err := w.Check(context.Background(), &statuslist.CheckRequest{})
		require.NoError(t, err)
	})

	t.Run("Search", func(t *testing.T) {
		_, err := w.Search(context.Background(), &statuslist.SearchRequest{})
		require.NoError(t, err)
	})

	require.Equal(t, []string{
		"CreateUnencrypted", "CreateEncrypted", "Update", "UpdateMany", "Check", "Search",
	}, svc.calls)
}

type recordingService struct {
	calls []string
}

func (r *recordingService) CreateUnencrypted(context.Context,
	*statuslist.CreateListRequest) (*statuslist.CreateResult, error) {
	r.calls = append(r.calls, "CreateUnencrypted")

	return &statuslist.CreateResult{}, nil
}

func (r *recordingService) CreateEncrypted(context.Context,
	*statuslist.CreateEncryptedListRequest) (*statuslist.CreateResult, error) {
	r.calls = append(r.calls, "CreateEncrypted")

	return &statuslist.CreateResult{}, nil
}

func (r *recordingService) Update(context.Context,
	*statuslist.UpdateRequest) (*statuslist.UpdateResult, error) {
	r.calls = append(r.calls, "Update")

	return &statuslist.UpdateResult{}, nil
}

func (r *recordingService) UpdateMany(context.Context,
	[]*statuslist.UpdateRequest) ([]*statuslist.UpdateResult, error) {
	r.calls = append(r.calls, "UpdateMany")

	return nil, nil
}

func (r *recordingService) Check(context.Context,
	*statuslist.CheckRequest) (*statuslist.CheckResult, error) {
	r.calls = append(r.calls, "Check")

	return &statuslist.CheckResult{}, nil
}

func (r *recordingService) Search(context.Context,
	*statuslist.SearchRequest) (*statuslist.SearchResult, error) {
	r.calls = append(r.calls, "Search")

	return &statuslist.SearchResult{}, nil
}
