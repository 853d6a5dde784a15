/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package attributeutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		attr := JSON("key", map[string]string{"field": "value"})
		require.Equal(t, "key", string(attr.Key))
		require.Equal(t, `{"field":"value"}`, attr.Value.AsString())
	})

	t.Run("Success with redacted field", func(t *testing.T) {
		attr := JSON("key", map[string]string{"field": "value", "secret": "s3cr3t"}, WithRedacted("secret"))
		require.Equal(t, `{"field":"value","secret":"[REDACTED]"}`, attr.Value.AsString())
	})

	t.Run("Marshal error", func(t *testing.T) {
		attr := JSON("key", func() {})
		require.Equal(t, "key", string(attr.Key))
		require.Empty(t, attr.Value.AsString())
	})
}
