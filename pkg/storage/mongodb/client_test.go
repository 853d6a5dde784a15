/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestClientOpts(t *testing.T) {
	op := &clientOpts{}

	WithTimeout(5 * time.Second)(op)
	require.Equal(t, 5*time.Second, op.timeout)

	provider := trace.NewNoopTracerProvider()

	WithTraceProvider(provider)(op)
	require.Equal(t, provider, op.traceProvider)
}

func TestNew_WithTraceProvider(t *testing.T) {
	// connections are established lazily, so instrumented client
	// construction succeeds without a live server.
	client, err := New("mongodb://localhost:27017", "csl_service",
		WithTimeout(time.Second),
		WithTraceProvider(trace.NewNoopTracerProvider()),
	)
	require.NoError(t, err)
	require.NotNil(t, client.Database())

	require.NoError(t, client.Close())
}
