/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"
)

// Logger used by different metrics provider.
var Logger = log.New("metrics-provider")

// Constants used by different metrics provider.
const (
	// Namespace Organization namespace.
	Namespace = "csl"

	// Service operations.
	Service                       = "service"
	StatusListCreateTimeMetric    = "statuslist_create_seconds"
	StatusListUpdateTimeMetric    = "statuslist_update_seconds"
	StatusListCheckTimeMetric     = "statuslist_check_seconds"
	StatusListSearchTimeMetric    = "statuslist_search_seconds"
	FeePaymentReconcileTimeMetric = "fee_payment_reconcile_seconds"
)

// Provider is an interface for metrics provider.
type Provider interface {
	// Create creates a metrics provider instance
	Create() error
	// Destroy destroys the metrics provider instance
	Destroy() error
	// Metrics providers metrics
	Metrics() Metrics
}

// Metrics is an interface for the metrics to be supported by the provider.
type Metrics interface {
	StatusListCreateTime(value time.Duration)
	StatusListUpdateTime(value time.Duration)
	StatusListCheckTime(value time.Duration)
	StatusListSearchTime(value time.Duration)
	FeePaymentReconcileTime(value time.Duration)
}
