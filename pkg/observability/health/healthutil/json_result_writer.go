/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package healthutil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alexliesenfeld/health"
)

type healthStatus struct {
	Status     health.AvailabilityStatus `json:"status"`
	Components map[string]checkResult    `json:"components,omitempty"`
}

type checkResult struct {
	health.CheckResult
	LastResponseTime    string `json:"last_response_time,omitempty"`
	AverageResponseTime string `json:"avg_response_time,omitempty"`
}

// JSONResultWriter renders health checker results, decorated with the
// response times collected by ResponseTimeInterceptor.
type JSONResultWriter struct {
	responseTimes map[string]ResponseTimeState
}

// NewJSONResultWriter creates a new JSONResultWriter backed by m.
func NewJSONResultWriter(m map[string]ResponseTimeState) *JSONResultWriter {
	return &JSONResultWriter{
		responseTimes: m,
	}
}

// Write implements the health.ResultWriter contract.
func (rw *JSONResultWriter) Write(result *health.CheckerResult, status int,
	w http.ResponseWriter, _ *http.Request) error {
	r := &healthStatus{Status: result.Status}

	if result.Details != nil {
		r.Components = map[string]checkResult{}

		for name, cr := range *result.Details {
			entry := checkResult{CheckResult: cr}

			if t, ok := rw.responseTimes[name]; ok {
				entry.LastResponseTime = t.LastResponseTime.String()
				entry.AverageResponseTime = t.AverageResponseTime.String()
			}

			r.Components[name] = entry
		}
	}

	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal health response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(b)

	return err
}
