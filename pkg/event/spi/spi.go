/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package spi defines the operation tracking events emitted by the status
// list service and the subscriber contract for consuming them.
package spi

import (
	"context"
	"time"
)

// StatusListEventTopic is the status list tracking topic name.
const StatusListEventTopic = "csl-statuslist"

// EventType event type.
type EventType string

const (
	// StatusListCreated is emitted after the genesis version of a list is
	// published.
	StatusListCreated = EventType("statuslist_created")
	// StatusListUpdated is emitted after a bulk update publishes a new head.
	StatusListUpdated = EventType("statuslist_updated")
	// StatusListChecked is emitted after a single-index status check.
	StatusListChecked = EventType("statuslist_checked")
	// FeePaymentReconciled is emitted after a transaction's fee payments are
	// reconciled.
	FeePaymentReconciled = EventType("fee_payment_reconciled")
)

// Event is one tracking event.
type Event struct {
	// ID identifies the event (required).
	ID string `json:"id"`

	// Source is the emitting component (required).
	Source string `json:"source"`

	// Type defines event type (required).
	Type EventType `json:"type"`

	// Time defines time of occurrence (required).
	Time time.Time `json:"time"`

	// IssuerDID is the list owner (optional).
	IssuerDID string `json:"issuerDid,omitempty"`

	// StatusListName is the affected list (optional).
	StatusListName string `json:"statusListName,omitempty"`

	// Data defines the event payload (optional).
	Data []byte `json:"data,omitempty"`
}

// Copy an event.
func (m *Event) Copy() *Event {
	return &Event{
		ID:             m.ID,
		Source:         m.Source,
		Type:           m.Type,
		Time:           m.Time,
		IssuerDID:      m.IssuerDID,
		StatusListName: m.StatusListName,
		Data:           m.Data,
	}
}

// Subscriber consumes tracking events. Subscribers are invoked synchronously
// in registration order; a subscriber failure is isolated from both the
// operation and the remaining subscribers.
type Subscriber interface {
	Handle(ctx context.Context, event *Event) error
}
