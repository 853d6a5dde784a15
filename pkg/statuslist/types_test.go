/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/credstatus/csl-service/pkg/bitstring"
)

func TestAction_Purpose(t *testing.T) {
	tests := []struct {
		action  Action
		purpose Purpose
	}{
		{ActionRevoke, PurposeRevocation},
		{ActionSuspend, PurposeSuspension},
		{ActionReinstate, PurposeSuspension},
	}

	for _, test := range tests {
		purpose, err := test.action.Purpose()
		require.NoError(t, err)
		require.Equal(t, test.purpose, purpose)
	}

	_, err := Action("destroy").Purpose()
	require.ErrorIs(t, err, ErrValidation)
}

func TestAction_TargetValue(t *testing.T) {
	require.EqualValues(t, 1, ActionRevoke.TargetValue())
	require.EqualValues(t, 1, ActionSuspend.TargetValue())
	require.EqualValues(t, 0, ActionReinstate.TargetValue())
}

func TestValidateFeeAmount(t *testing.T) {
	for _, amount := range []string{"1", "0.5", "0.50", "100.25", "9000"} {
		require.NoError(t, ValidateFeeAmount(amount), amount)
	}

	for _, amount := range []string{"", "0", "0.00", "-1", "1,5", "0.555", "abc", "1.2.3"} {
		require.ErrorIs(t, ValidateFeeAmount(amount), ErrValidation, amount)
	}
}

func TestValidatePurposes(t *testing.T) {
	t.Run("StatusList2021", func(t *testing.T) {
		require.NoError(t, ValidatePurposes(StatusList2021, []Purpose{PurposeRevocation}))
		require.NoError(t, ValidatePurposes(StatusList2021, []Purpose{PurposeSuspension}))

		require.ErrorIs(t, ValidatePurposes(StatusList2021, nil), ErrValidation)
		require.ErrorIs(t, ValidatePurposes(StatusList2021,
			[]Purpose{PurposeRevocation, PurposeSuspension}), ErrValidation)
		require.ErrorIs(t, ValidatePurposes(StatusList2021, []Purpose{PurposeMessage}), ErrValidation)
	})

	t.Run("BitstringStatusList", func(t *testing.T) {
		require.NoError(t, ValidatePurposes(BitstringStatusList, []Purpose{PurposeRevocation}))
		require.NoError(t, ValidatePurposes(BitstringStatusList, []Purpose{
			PurposeRevocation, PurposeSuspension, PurposeMessage, PurposeRefresh,
		}))

		require.ErrorIs(t, ValidatePurposes(BitstringStatusList,
			[]Purpose{PurposeRevocation, PurposeRevocation}), ErrValidation)
		require.ErrorIs(t, ValidatePurposes(BitstringStatusList, []Purpose{"expiry"}), ErrValidation)
	})

	t.Run("unknown list type", func(t *testing.T) {
		require.ErrorIs(t, ValidatePurposes("RevocationList2020", []Purpose{PurposeRevocation}), ErrValidation)
	})
}

func TestValidateEncoding(t *testing.T) {
	require.NoError(t, ValidateEncoding(BitstringStatusList, bitstring.Base64URL))
	require.ErrorIs(t, ValidateEncoding(BitstringStatusList, bitstring.Hex), ErrValidation)

	for _, encoding := range []bitstring.Encoding{bitstring.Base64URL, bitstring.Base64, bitstring.Hex} {
		require.NoError(t, ValidateEncoding(StatusList2021, encoding))
	}

	require.ErrorIs(t, ValidateEncoding(StatusList2021, "base32"), ErrValidation)
}

func TestResourceType(t *testing.T) {
	require.Equal(t, "StatusList2021Revocation",
		ResourceType(StatusList2021, []Purpose{PurposeRevocation}))
	require.Equal(t, "StatusList2021Suspension",
		ResourceType(StatusList2021, []Purpose{PurposeSuspension}))
	require.Equal(t, "BitstringStatusListCredential",
		ResourceType(BitstringStatusList, []Purpose{PurposeRevocation}))
	require.Equal(t, "BitstringStatusListCredential",
		ResourceType(BitstringStatusList, []Purpose{PurposeMessage, PurposeRefresh}))
}
