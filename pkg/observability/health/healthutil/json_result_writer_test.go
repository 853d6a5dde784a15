/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package healthutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/stretchr/testify/require"

	"github.com/credstatus/csl-service/pkg/observability/health/healthutil"
)

func TestResultWriter_Write(t *testing.T) {
	writer := healthutil.NewJSONResultWriter(map[string]healthutil.ResponseTimeState{
		"mongodb": {
			LastResponseTime:    time.Millisecond,
			AverageResponseTime: 2 * time.Millisecond,
		},
	})

	rw := httptest.NewRecorder()

	err := writer.Write(&health.CheckerResult{
		Status: health.StatusUp,
		Details: &map[string]health.CheckResult{
			"mongodb": {
				Status: health.StatusUp,
			},
			"redis": {
				Status: health.StatusDown,
			},
		},
	}, http.StatusOK, rw, nil)

	require.NoError(t, err)
	require.Equal(t, "application/json", rw.Header().Get("Content-Type"))
	require.Contains(t, rw.Body.String(), `"last_response_time":"1ms"`)
	require.Contains(t, rw.Body.String(), `"avg_response_time":"2ms"`)
	require.Contains(t, rw.Body.String(), `"redis"`)
}

func TestResultWriter_NoDetails(t *testing.T) {
	writer := healthutil.NewJSONResultWriter(map[string]healthutil.ResponseTimeState{})

	rw := httptest.NewRecorder()

	err := writer.Write(&health.CheckerResult{Status: health.StatusUp}, http.StatusOK, rw, nil)

	require.NoError(t, err)
	require.NotContains(t, rw.Body.String(), "components")
}

func TestResponseTimeInterceptor(t *testing.T) {
	times := map[string]healthutil.ResponseTimeState{}

	checker := health.NewChecker(
		health.WithDisabledAutostart(),
		health.WithInterceptors(healthutil.ResponseTimeInterceptor(times)),
		health.WithCheck(health.Check{
			Name: "noop",
			Check: func(_ context.Context) error {
				return nil
			},
		}),
	)

	result := checker.Check(context.Background())

	require.Equal(t, health.StatusUp, result.Status)
	require.Contains(t, times, "noop")
	require.NotZero(t, times["noop"].LastResponseTime)
}
