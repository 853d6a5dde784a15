/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resterr

import (
	"errors"
	"net/http"

	"github.com/credstatus/csl-service/pkg/statuslist"
)

// ErrorResponse is the JSON error body returned by every endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusCodeFor maps the domain error taxonomy onto HTTP statuses. Unmet
// payment conditions surface as 402 so callers can distinguish "pay first"
// from plain validation failures.
func StatusCodeFor(err error) (int, string) {
	switch {
	case errors.Is(err, statuslist.ErrNotFound):
		return http.StatusNotFound, "not-found"
	case errors.Is(err, statuslist.ErrAccessDenied):
		return http.StatusPaymentRequired, "payment-required"
	case errors.Is(err, statuslist.ErrValidation),
		errors.Is(err, statuslist.ErrMalformedAccessConditions):
		return http.StatusBadRequest, "bad-request"
	case errors.Is(err, statuslist.ErrTypeMismatch):
		return http.StatusConflict, "encryption-type-mismatch"
	case errors.Is(err, statuslist.ErrLedger),
		errors.Is(err, statuslist.ErrReconciliation):
		return http.StatusBadGateway, "upstream-failure"
	default:
		return http.StatusInternalServerError, "generic-error"
	}
}
