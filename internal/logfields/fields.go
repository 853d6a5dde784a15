/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logfields provides the structured log fields shared across the
// status list service.
package logfields

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log fields.
const (
	FieldAction         = "action"
	FieldEvent          = "event"
	FieldIndexCount     = "indexCount"
	FieldIssuerDID      = "issuerDid"
	FieldListType       = "listType"
	FieldNetwork        = "network"
	FieldResourceID     = "resourceId"
	FieldStatusListName = "statusListName"
	FieldStatusPurpose  = "statusPurpose"
	FieldTxHash         = "txHash"
	FieldVersion        = "version"
)

// WithAction sets the status action field.
func WithAction(action string) zap.Field {
	return zap.String(FieldAction, action)
}

// WithEvent sets the event field.
func WithEvent(event interface{}) zap.Field {
	return zap.Inline(NewObjectMarshaller(FieldEvent, event))
}

// WithIndexCount sets the number of indices in a bulk update.
func WithIndexCount(count int) zap.Field {
	return zap.Int(FieldIndexCount, count)
}

// WithIssuerDID sets the issuer DID field.
func WithIssuerDID(did string) zap.Field {
	return zap.String(FieldIssuerDID, did)
}

// WithListType sets the status list type field.
func WithListType(listType string) zap.Field {
	return zap.String(FieldListType, listType)
}

// WithNetwork sets the ledger network field.
func WithNetwork(network string) zap.Field {
	return zap.String(FieldNetwork, network)
}

// WithResourceID sets the resource ID field.
func WithResourceID(resourceID string) zap.Field {
	return zap.String(FieldResourceID, resourceID)
}

// WithStatusListName sets the status list name field.
func WithStatusListName(name string) zap.Field {
	return zap.String(FieldStatusListName, name)
}

// WithStatusPurpose sets the status purpose field.
func WithStatusPurpose(purpose string) zap.Field {
	return zap.String(FieldStatusPurpose, purpose)
}

// WithTxHash sets the transaction hash field.
func WithTxHash(txHash string) zap.Field {
	return zap.String(FieldTxHash, txHash)
}

// WithVersion sets the resource version label field.
func WithVersion(version string) zap.Field {
	return zap.String(FieldVersion, version)
}

// ObjectMarshaller uses reflection to marshal an object's fields.
type ObjectMarshaller struct {
	key string
	obj interface{}
}

// NewObjectMarshaller returns a new ObjectMarshaller.
func NewObjectMarshaller(key string, obj interface{}) *ObjectMarshaller {
	return &ObjectMarshaller{key: key, obj: obj}
}

// MarshalLogObject marshals the object's fields.
func (m *ObjectMarshaller) MarshalLogObject(e zapcore.ObjectEncoder) error {
	return e.AddReflected(m.key, m.obj)
}
