/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package noop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)

	require.NotPanics(t, func() {
		m.StatusListCreateTime(time.Second)
		m.StatusListUpdateTime(time.Second)
		m.StatusListCheckTime(time.Second)
		m.StatusListSearchTime(time.Second)
		m.FeePaymentReconcileTime(time.Second)
	})
}
