/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package spi

import (
	"context"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/internal/logfields"
)

var logger = log.New("event-bus")

// Bus dispatches tracking events to an explicit list of subscribers. There is
// no hidden global emitter; the composition root decides who listens.
type Bus struct {
	subscribers []Subscriber
}

// NewBus returns a bus over the given subscribers.
func NewBus(subscribers ...Subscriber) *Bus {
	return &Bus{subscribers: subscribers}
}

// Publish delivers the event to every subscriber in order. Each subscriber
// receives its own copy. Subscriber errors are logged and do not fail the
// publishing operation or suppress later subscribers.
func (b *Bus) Publish(ctx context.Context, event *Event) {
	for _, subscriber := range b.subscribers {
		if err := subscriber.Handle(ctx, event.Copy()); err != nil {
			logger.Warnc(ctx, "event subscriber failed",
				logfields.WithEvent(event), log.WithError(err))
		}
	}
}
