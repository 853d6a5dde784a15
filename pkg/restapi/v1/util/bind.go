/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package util

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/credstatus/csl-service/pkg/statuslist"
)

// ReadBody binds the request body into the given value.
func ReadBody(ctx echo.Context, body interface{}) error {
	if err := ctx.Bind(body); err != nil {
		return fmt.Errorf("%w: read request body: %s", statuslist.ErrValidation, err.Error())
	}

	return nil
}

// WriteOutput returns a writer that serializes the output as JSON, or passes
// the error through to the echo error handler.
func WriteOutput(ctx echo.Context) func(output interface{}, err error) error {
	return WriteOutputWithCode(http.StatusOK, ctx)
}

// WriteOutputWithCode is WriteOutput with an explicit success status code.
func WriteOutputWithCode(code int, ctx echo.Context) func(output interface{}, err error) error {
	return func(output interface{}, err error) error {
		if err != nil {
			return err
		}

		return ctx.JSON(code, output)
	}
}
