/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resterr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/trustbloc/logutil-go/pkg/log"
)

var logger = log.New("rest-err")

// HTTPErrorHandler is the echo error handler for the service. It translates
// domain errors into JSON error responses.
func HTTPErrorHandler(err error, c echo.Context) {
	code, body := processError(err)

	logger.Error("request failed", log.WithError(err),
		log.WithHTTPStatus(code), log.WithURL(c.Request().RequestURI))

	sendResponse(c, code, body)
}

func sendResponse(c echo.Context, code int, body interface{}) {
	if c.Response().Committed {
		return
	}

	var err error

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}

	if err != nil {
		logger.Error("write http response", log.WithError(err))
	}
}

func processError(err error) (int, interface{}) {
	if v, ok := err.(*echo.HTTPError); ok { //nolint:errorlint
		code, message := v.Code, v.Message
		if v.Internal != nil {
			message = err.Error()
		}

		if strMsg, ok := message.(string); ok {
			return code, &ErrorResponse{Code: "http-error", Message: strMsg}
		}

		return code, message
	}

	code, errorCode := StatusCodeFor(err)

	return code, &ErrorResponse{Code: errorCode, Message: err.Error()}
}
