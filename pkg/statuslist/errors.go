/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import "errors"

// Error taxonomy shared by the status list subsystem. Callers are expected to
// branch with errors.Is: NotFound drives a distinct short-circuit, validation
// and type-mismatch failures are caller-input problems surfaced without side
// effects, access failures distinguish "pay more" from "list is broken", and
// ledger/reconciliation failures are internal and never retried by the core.
var (
	// ErrNotFound indicates the list or version does not exist.
	ErrNotFound = errors.New("status list not found")

	// ErrValidation indicates a malformed request shape.
	ErrValidation = errors.New("validation failed")

	// ErrTypeMismatch indicates an encrypted operation on an unencrypted list
	// or vice versa.
	ErrTypeMismatch = errors.New("encryption type mismatch")

	// ErrAccessDenied indicates access-control conditions are not satisfied.
	ErrAccessDenied = errors.New("access denied")

	// ErrMalformedAccessConditions indicates the access-control conditions
	// themselves are defective. Distinct from ErrAccessDenied.
	ErrMalformedAccessConditions = errors.New("malformed access conditions")

	// ErrLedger indicates a ledger publish/fetch/timeout failure.
	ErrLedger = errors.New("ledger failure")

	// ErrReconciliation indicates a fee-event/transfer-event mismatch.
	ErrReconciliation = errors.New("fee reconciliation failed")
)
