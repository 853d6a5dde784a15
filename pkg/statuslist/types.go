/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package statuslist defines the credential status list data model: list
// types, status purposes, payment conditions, fee payment records and the
// in-memory document representing one published list version.
package statuslist

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/credstatus/csl-service/pkg/bitstring"
)

// ListType identifies the credential status list format.
type ListType string

const (
	// StatusList2021 is the single-purpose, 1-bit W3C format.
	StatusList2021 = ListType("StatusList2021")
	// BitstringStatusList is the VC DM 2.0 multi-bit, multi-purpose format.
	BitstringStatusList = ListType("BitstringStatusList")
)

// Purpose is the semantic meaning of a status entry.
type Purpose string

const (
	PurposeRevocation = Purpose("revocation")
	PurposeSuspension = Purpose("suspension")
	PurposeMessage    = Purpose("message")
	PurposeRefresh    = Purpose("refresh")
)

// DefaultLength is the number of entries allocated for a new list when the
// caller does not supply one. 131072 entries keeps the 1-bit encoded form at
// 16KiB, the minimum the W3C formats recommend for herd privacy.
const DefaultLength = 131072

// Action is a bulk status mutation.
type Action string

const (
	ActionRevoke    = Action("revoke")
	ActionSuspend   = Action("suspend")
	ActionReinstate = Action("reinstate")
)

// Purpose returns the status purpose an action operates on.
func (a Action) Purpose() (Purpose, error) {
	switch a {
	case ActionRevoke:
		return PurposeRevocation, nil
	case ActionSuspend, ActionReinstate:
		return PurposeSuspension, nil
	default:
		return "", fmt.Errorf("%w: unsupported status action %q", ErrValidation, a)
	}
}

// TargetValue returns the entry value an action writes.
func (a Action) TargetValue() uint8 {
	if a == ActionReinstate {
		return 0
	}

	return 1
}

// StatusMessage maps a raw entry value to a named status.
type StatusMessage struct {
	// Status is the hex form of the entry value, e.g. "0x0".
	Status string `json:"status"`
	// Message is the human-readable meaning.
	Message string `json:"message"`
}

// AlsoKnownAs is an alternative URI for a published list.
type AlsoKnownAs struct {
	URI         string `json:"uri"`
	Description string `json:"description,omitempty"`
}

// PaymentCondition is a time-lock access-control rule on an encrypted list:
// a payment of FeePaymentAmount to FeePaymentAddress within the trailing
// IntervalInSeconds window unlocks decryption.
type PaymentCondition struct {
	Type              string `json:"type"`
	FeePaymentAddress string `json:"feePaymentAddress"`
	FeePaymentAmount  string `json:"feePaymentAmount"`
	IntervalInSeconds int64  `json:"intervalInSeconds"`
}

// PaymentConditionType is the only condition type currently supported.
const PaymentConditionType = "timelockPayment"

// FeePaymentRecord is a structured fee payment reconstructed from a settled
// transaction's event log. Never user-constructed.
type FeePaymentRecord struct {
	TxHash      string    `json:"txHash"`
	FromAddress string    `json:"fromAddress"`
	ToAddress   string    `json:"toAddress"`
	Amount      string    `json:"amount"`
	Fee         string    `json:"fee"`
	Network     string    `json:"network"`
	Timestamp   time.Time `json:"timestamp"`
	Successful  bool      `json:"successful"`
}

var feeAmountRegexp = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// ValidateFeeAmount checks a payment amount: decimal with at most two
// fractional digits, strictly positive.
func ValidateFeeAmount(amount string) error {
	if !feeAmountRegexp.MatchString(amount) {
		return fmt.Errorf("%w: fee amount %q must be a positive decimal with at most 2 fractional digits",
			ErrValidation, amount)
	}

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil || value <= 0 {
		return fmt.Errorf("%w: fee amount %q must be greater than zero", ErrValidation, amount)
	}

	return nil
}

// ValidatePurposes checks the purpose set against the list type.
func ValidatePurposes(listType ListType, purposes []Purpose) error {
	if len(purposes) == 0 {
		return fmt.Errorf("%w: at least one status purpose is required", ErrValidation)
	}

	if len(purposes) != len(lo.Uniq(purposes)) {
		return fmt.Errorf("%w: duplicate status purposes", ErrValidation)
	}

	switch listType {
	case StatusList2021:
		if len(purposes) != 1 {
			return fmt.Errorf("%w: %s supports exactly one status purpose", ErrValidation, listType)
		}

		if purposes[0] != PurposeRevocation && purposes[0] != PurposeSuspension {
			return fmt.Errorf("%w: %s does not support status purpose %q", ErrValidation, listType, purposes[0])
		}
	case BitstringStatusList:
		allowed := []Purpose{PurposeRevocation, PurposeSuspension, PurposeMessage, PurposeRefresh}

		for _, p := range purposes {
			if !lo.Contains(allowed, p) {
				return fmt.Errorf("%w: unsupported status purpose %q", ErrValidation, p)
			}
		}
	default:
		return fmt.Errorf("%w: unsupported list type %q", ErrValidation, listType)
	}

	return nil
}

// ResourceType maps a list's type and purposes to the DID-Linked Resource
// type it is published under. StatusList2021 lists carry exactly one purpose
// and get a purpose-qualified type; BitstringStatusList lists share a single
// type regardless of purposes.
func ResourceType(listType ListType, purposes []Purpose) string {
	if listType == StatusList2021 && len(purposes) == 1 {
		if purposes[0] == PurposeSuspension {
			return "StatusList2021Suspension"
		}

		return "StatusList2021Revocation"
	}

	return "BitstringStatusListCredential"
}

// ValidateEncoding checks the text encoding against the list type.
func ValidateEncoding(listType ListType, encoding bitstring.Encoding) error {
	switch listType {
	case BitstringStatusList:
		if encoding != bitstring.Base64URL {
			return fmt.Errorf("%w: %s requires base64url encoding", ErrValidation, listType)
		}
	case StatusList2021:
		switch encoding {
		case bitstring.Base64URL, bitstring.Base64, bitstring.Hex:
		default:
			return fmt.Errorf("%w: unsupported encoding %q", ErrValidation, encoding)
		}
	default:
		return fmt.Errorf("%w: unsupported list type %q", ErrValidation, listType)
	}

	return nil
}
