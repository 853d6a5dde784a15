/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package noop

import (
	"time"

	"github.com/credstatus/csl-service/pkg/observability/metrics"
)

// NoMetrics provides default no operation implementation for the Metrics interface.
type NoMetrics struct{}

// GetMetrics returns metrics implementation.
func GetMetrics() metrics.Metrics {
	return &NoMetrics{}
}

func (n *NoMetrics) StatusListCreateTime(_ time.Duration)    {}
func (n *NoMetrics) StatusListUpdateTime(_ time.Duration)    {}
func (n *NoMetrics) StatusListCheckTime(_ time.Duration)     {}
func (n *NoMetrics) StatusListSearchTime(_ time.Duration)    {}
func (n *NoMetrics) FeePaymentReconcileTime(_ time.Duration) {}
