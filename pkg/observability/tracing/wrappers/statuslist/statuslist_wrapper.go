/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/credstatus/csl-service/pkg/observability/tracing/attributeutil"
	"github.com/credstatus/csl-service/pkg/service/statuslist"
)

type Service statuslist.ServiceInterface

type Wrapper struct {
	svc    Service
	tracer trace.Tracer
}

func Wrap(svc Service, tracer trace.Tracer) *Wrapper {
	return &Wrapper{svc: svc, tracer: tracer}
}

func (w *Wrapper) CreateUnencrypted(ctx context.Context,
	req *statuslist.CreateListRequest) (*statuslist.CreateResult, error) {
	ctx, span := w.tracer.Start(ctx, "statuslist.CreateUnencrypted")
	defer span.End()

	span.SetAttributes(attribute.String("issuer_did", req.IssuerDID))
	span.SetAttributes(attribute.String("status_list_name", req.Name))

	result, err := w.svc.CreateUnencrypted(ctx, req)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (w *Wrapper) CreateEncrypted(ctx context.Context,
	req *statuslist.CreateEncryptedListRequest) (*statuslist.CreateResult, error) {
	ctx, span := w.tracer.Start(ctx, "statuslist.CreateEncrypted")
	defer span.End()

	span.SetAttributes(attribute.String("issuer_did", req.IssuerDID))
	span.SetAttributes(attribute.String("status_list_name", req.Name))

	result, err := w.svc.CreateEncrypted(ctx, req)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (w *Wrapper) Update(ctx context.Context,
	req *statuslist.UpdateRequest) (*statuslist.UpdateResult, error) {
	ctx, span := w.tracer.Start(ctx, "statuslist.Update")
	defer span.End()

	span.SetAttributes(attribute.String("issuer_did", req.IssuerDID))
	span.SetAttributes(attributeutil.JSON("request", req, attributeutil.WithRedacted("symmetricKey")))

	result, err := w.svc.Update(ctx, req)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (w *Wrapper) UpdateMany(ctx context.Context,
	reqs []*statuslist.UpdateRequest) ([]*statuslist.UpdateResult, error) {
	ctx, span := w.tracer.Start(ctx, "statuslist.UpdateMany")
	defer span.End()

	span.SetAttributes(attribute.Int("request_count", len(reqs)))

	results, err := w.svc.UpdateMany(ctx, reqs)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (w *Wrapper) Check(ctx context.Context,
	req *statuslist.CheckRequest) (*statuslist.CheckResult, error) {
	ctx, span := w.tracer.Start(ctx, "statuslist.Check")
	defer span.End()

	span.SetAttributes(attribute.String("issuer_did", req.IssuerDID))
	span.SetAttributes(attributeutil.JSON("request", req, attributeutil.WithRedacted("symmetricKey")))

	result, err := w.svc.Check(ctx, req)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (w *Wrapper) Search(ctx context.Context,
	req *statuslist.SearchRequest) (*statuslist.SearchResult, error) {
	ctx, span := w.tracer.Start(ctx, "statuslist.Search")
	defer span.End()

	span.SetAttributes(attribute.String("issuer_did", req.IssuerDID))
	span.SetAttributes(attribute.String("status_list_name", req.Name))

	result, err := w.svc.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	return result, nil
}
