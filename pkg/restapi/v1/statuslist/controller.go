/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"github.com/labstack/echo/v4"

	"github.com/credstatus/csl-service/pkg/restapi/v1/util"
	statuslistsvc "github.com/credstatus/csl-service/pkg/service/statuslist"
	statuslistapi "github.com/credstatus/csl-service/pkg/statuslist"
)

// CreateStatusListRequest is the create endpoint body. Encrypted selects the
// payment-gated flow; the payment fields are ignored otherwise.
type CreateStatusListRequest struct {
	statuslistsvc.CreateEncryptedListRequest

	Encrypted bool `json:"encrypted,omitempty"`
}

// Config holds the controller dependencies.
type Config struct {
	Service statuslistsvc.ServiceInterface
}

// Controller exposes the status list operations over HTTP.
type Controller struct {
	service statuslistsvc.ServiceInterface
}

// NewController creates a new status list API controller.
func NewController(config *Config) *Controller {
	return &Controller{
		service: config.Service,
	}
}

// Register mounts the controller routes on the given echo instance.
func (c *Controller) Register(e *echo.Echo) {
	e.POST("/v1/status-lists", c.CreateStatusList)
	e.POST("/v1/status-lists/update", c.UpdateStatusList)
	e.POST("/v1/status-lists/updates", c.UpdateStatusLists)
	e.POST("/v1/status-lists/check", c.CheckStatusList)
	e.GET("/v1/status-lists", c.SearchStatusList)
}

// CreateStatusList allocates a new status list and publishes its genesis
// version.
// POST /v1/status-lists.
func (c *Controller) CreateStatusList(ctx echo.Context) error {
	var body CreateStatusListRequest

	if err := util.ReadBody(ctx, &body); err != nil {
		return err
	}

	if body.Encrypted {
		return util.WriteOutput(ctx)(c.service.CreateEncrypted(ctx.Request().Context(),
			&body.CreateEncryptedListRequest))
	}

	return util.WriteOutput(ctx)(c.service.CreateUnencrypted(ctx.Request().Context(),
		&body.CreateListRequest))
}

// UpdateStatusList applies one status action to a set of indices.
// POST /v1/status-lists/update.
func (c *Controller) UpdateStatusList(ctx echo.Context) error {
	var body statuslistsvc.UpdateRequest

	if err := util.ReadBody(ctx, &body); err != nil {
		return err
	}

	return util.WriteOutput(ctx)(c.service.Update(ctx.Request().Context(), &body))
}

// UpdateStatusLists applies a batch of updates across lists.
// POST /v1/status-lists/updates.
func (c *Controller) UpdateStatusLists(ctx echo.Context) error {
	var body []*statuslistsvc.UpdateRequest

	if err := util.ReadBody(ctx, &body); err != nil {
		return err
	}

	return util.WriteOutput(ctx)(c.service.UpdateMany(ctx.Request().Context(), body))
}

// CheckStatusList reads one entry from the head version of a list.
// POST /v1/status-lists/check.
func (c *Controller) CheckStatusList(ctx echo.Context) error {
	var body statuslistsvc.CheckRequest

	if err := util.ReadBody(ctx, &body); err != nil {
		return err
	}

	return util.WriteOutput(ctx)(c.service.Check(ctx.Request().Context(), &body))
}

// SearchStatusList looks up the head version of a list.
// GET /v1/status-lists?did=...&statusListName=...&listType=...&statusPurpose=...
func (c *Controller) SearchStatusList(ctx echo.Context) error {
	req := &statuslistsvc.SearchRequest{
		IssuerDID: ctx.QueryParam("did"),
		Name:      ctx.QueryParam("statusListName"),
		Type:      statuslistapi.ListType(ctx.QueryParam("listType")),
		Purpose:   statuslistapi.Purpose(ctx.QueryParam("statusPurpose")),
	}

	return util.WriteOutput(ctx)(c.service.Search(ctx.Request().Context(), req))
}
