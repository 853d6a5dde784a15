/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/pkg/observability/metrics"
)

var logger = metrics.Logger

var (
	createOnce sync.Once       //nolint:gochecknoglobals
	instance   metrics.Metrics //nolint:gochecknoglobals
)

type promProvider struct {
	httpServer *http.Server
}

// NewPrometheusProvider creates new instance of Prometheus Metrics Provider.
func NewPrometheusProvider(httpServer *http.Server) metrics.Provider {
	return &promProvider{httpServer: httpServer}
}

// Create creates/initializes the prometheus metrics provider.
func (pp *promProvider) Create() error {
	if pp.httpServer == nil {
		return nil
	}

	if err := pp.httpServer.ListenAndServe(); err != nil {
		return fmt.Errorf("start metrics HTTP server: %w", err)
	}

	return nil
}

// Metrics returns supported metrics.
func (pp *promProvider) Metrics() metrics.Metrics {
	return GetMetrics()
}

// Destroy destroys the prometheus metrics provider.
func (pp *promProvider) Destroy() error {
	if pp.httpServer != nil {
		return pp.httpServer.Shutdown(context.Background())
	}

	return nil
}

// GetMetrics returns metrics implementation.
func GetMetrics() metrics.Metrics {
	createOnce.Do(func() {
		instance = NewMetrics()
	})

	return instance
}

// PromMetrics manages the metrics for the status list service.
type PromMetrics struct {
	createTime    prometheus.Histogram
	updateTime    prometheus.Histogram
	checkTime     prometheus.Histogram
	searchTime    prometheus.Histogram
	reconcileTime prometheus.Histogram
}

// NewMetrics creates instance of prometheus metrics.
func NewMetrics() metrics.Metrics {
	pm := &PromMetrics{
		createTime:    newCreateTime(),
		updateTime:    newUpdateTime(),
		checkTime:     newCheckTime(),
		searchTime:    newSearchTime(),
		reconcileTime: newReconcileTime(),
	}

	registerMetrics(pm)

	return pm
}

// StatusListCreateTime records the time it takes to create a status list.
func (pm *PromMetrics) StatusListCreateTime(value time.Duration) {
	pm.createTime.Observe(value.Seconds())

	logger.Debug("status list create time", log.WithDuration(value))
}

// StatusListUpdateTime records the time it takes to update a status list.
func (pm *PromMetrics) StatusListUpdateTime(value time.Duration) {
	pm.updateTime.Observe(value.Seconds())

	logger.Debug("status list update time", log.WithDuration(value))
}

// StatusListCheckTime records the time it takes to check an entry in a status list.
func (pm *PromMetrics) StatusListCheckTime(value time.Duration) {
	pm.checkTime.Observe(value.Seconds())

	logger.Debug("status list check time", log.WithDuration(value))
}

// StatusListSearchTime records the time it takes to search a status list collection.
func (pm *PromMetrics) StatusListSearchTime(value time.Duration) {
	pm.searchTime.Observe(value.Seconds())

	logger.Debug("status list search time", log.WithDuration(value))
}

// FeePaymentReconcileTime records the time it takes to reconcile fee payments from a transaction.
func (pm *PromMetrics) FeePaymentReconcileTime(value time.Duration) {
	pm.reconcileTime.Observe(value.Seconds())

	logger.Debug("fee payment reconcile time", log.WithDuration(value))
}

func registerMetrics(pm *PromMetrics) {
	prometheus.MustRegister(
		pm.createTime, pm.updateTime, pm.checkTime, pm.searchTime, pm.reconcileTime,
	)
}

func newHistogram(subsystem, name, help string, labels prometheus.Labels) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   metrics.Namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	})
}

func newCreateTime() prometheus.Histogram {
	return newHistogram(
		metrics.Service, metrics.StatusListCreateTimeMetric,
		"The time (in seconds) it takes to create a status list.",
		nil,
	)
}

func newUpdateTime() prometheus.Histogram {
	return newHistogram(
		metrics.Service, metrics.StatusListUpdateTimeMetric,
		"The time (in seconds) it takes to update status list entries.",
		nil,
	)
}

func newCheckTime() prometheus.Histogram {
	return newHistogram(
		metrics.Service, metrics.StatusListCheckTimeMetric,
		"The time (in seconds) it takes to check a status list entry.",
		nil,
	)
}

func newSearchTime() prometheus.Histogram {
	return newHistogram(
		metrics.Service, metrics.StatusListSearchTimeMetric,
		"The time (in seconds) it takes to search a status list collection.",
		nil,
	)
}

func newReconcileTime() prometheus.Histogram {
	return newHistogram(
		metrics.Service, metrics.FeePaymentReconcileTimeMetric,
		"The time (in seconds) it takes to reconcile fee payments from a ledger transaction.",
		nil,
	)
}
