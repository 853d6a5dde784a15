/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package feereconciler reconstructs structured fee payment records from a
// settled transaction's event log. Every fee payment produces exactly two
// transfer events, the principal transfer and the fee transfer; the
// reconciler pairs them back up and consumes each transfer at most once.
package feereconciler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/internal/logfields"
	"github.com/credstatus/csl-service/pkg/statuslist"
)

var logger = log.New("fee-reconciler")

// Event type and attribute keys as they appear in the ledger event log.
const (
	eventTypeTransfer = "transfer"
	eventTypeTx       = "tx"

	attrKeyRecipient = "recipient"
	attrKeySender    = "sender"
	attrKeyAmount    = "amount"
	attrKeyFee       = "fee"
	attrKeyFeePayer  = "fee_payer"
)

// Attribute is one key/value pair of a ledger event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is one typed entry of a transaction's event log.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Transaction is a settled ledger transaction with its event log.
type Transaction struct {
	Hash    string  `json:"hash"`
	Network string  `json:"network"`
	Success bool    `json:"success"`
	Events  []Event `json:"events"`
}

// TimestampSource fetches a transaction's block timestamp from the ledger's
// transaction-by-hash endpoint. Endpoints differ per target network.
type TimestampSource interface {
	BlockTimestamp(ctx context.Context, network, txHash string) (time.Time, error)
}

// Config configures the reconciler.
type Config struct {
	Timestamps TimestampSource
}

// Reconciler reconstructs fee payment records from event logs.
type Reconciler struct {
	timestamps TimestampSource
}

// New returns a new fee reconciler.
func New(config *Config) *Reconciler {
	return &Reconciler{timestamps: config.Timestamps}
}

// Reconcile returns one fee payment record per fee event in the transaction,
// in the order fee events were encountered. The block timestamp lookup is a
// single best-effort request; its failure aborts the whole reconciliation,
// since partial fee data is unsafe to act on.
func (r *Reconciler) Reconcile(ctx context.Context, tx *Transaction) ([]statuslist.FeePaymentRecord, error) {
	transfers := lo.Filter(tx.Events, func(e Event, _ int) bool {
		return e.Type == eventTypeTransfer
	})

	feeEvents := lo.Filter(tx.Events, func(e Event, _ int) bool {
		return e.Type == eventTypeTx && attr(e, attrKeyFee) != ""
	})

	if len(transfers) != 2*len(feeEvents) {
		return nil, fmt.Errorf("%w: %d transfer event(s) for %d fee event(s), want exactly 2 per fee",
			statuslist.ErrReconciliation, len(transfers), len(feeEvents))
	}

	timestamp, err := r.timestamps.BlockTimestamp(ctx, tx.Network, tx.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: block timestamp lookup for %s: %s",
			statuslist.ErrReconciliation, tx.Hash, err)
	}

	records := make([]statuslist.FeePaymentRecord, 0, len(feeEvents))

	for _, feeEvent := range feeEvents {
		feePayer := attr(feeEvent, attrKeyFeePayer)
		fee := attr(feeEvent, attrKeyFee)

		principal, ok := takeTransfer(&transfers, func(e Event) bool {
			return attr(e, attrKeySender) == feePayer && attr(e, attrKeyAmount) != fee
		})
		if !ok {
			return nil, fmt.Errorf("%w: no principal transfer from fee payer %s",
				statuslist.ErrReconciliation, feePayer)
		}

		if _, ok = takeTransfer(&transfers, func(e Event) bool {
			return attr(e, attrKeyAmount) == fee
		}); !ok {
			return nil, fmt.Errorf("%w: no fee transfer of %s", statuslist.ErrReconciliation, fee)
		}

		records = append(records, statuslist.FeePaymentRecord{
			TxHash:      tx.Hash,
			FromAddress: attr(principal, attrKeySender),
			ToAddress:   attr(principal, attrKeyRecipient),
			Amount:      NormalizeCoin(attr(principal, attrKeyAmount)),
			Fee:         NormalizeCoin(fee),
			Network:     tx.Network,
			Timestamp:   timestamp,
			Successful:  tx.Success,
		})
	}

	logger.Debugc(ctx, "reconciled fee payments",
		logfields.WithTxHash(tx.Hash),
		logfields.WithNetwork(tx.Network),
		logfields.WithIndexCount(len(records)))

	return records, nil
}

func attr(e Event, key string) string {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value
		}
	}

	return ""
}

// takeTransfer removes and returns the first transfer matching the
// predicate, so each transfer is consumed at most once.
func takeTransfer(transfers *[]Event, match func(Event) bool) (Event, bool) {
	for i, e := range *transfers {
		if match(e) {
			*transfers = append((*transfers)[:i], (*transfers)[i+1:]...)

			return e, true
		}
	}

	return Event{}, false
}

// nanoUnitsPerToken converts the ledger's base denomination to whole tokens.
const nanoUnitsPerToken = 1_000_000_000

// NormalizeCoin converts a base-denomination coin string such as
// "500000000ncheq" into a decimal token amount ("0.5"). Amounts already in
// decimal form pass through unchanged.
func NormalizeCoin(coin string) string {
	digitsEnd := 0
	for digitsEnd < len(coin) && coin[digitsEnd] >= '0' && coin[digitsEnd] <= '9' {
		digitsEnd++
	}

	digits, denom := coin[:digitsEnd], coin[digitsEnd:]

	if !strings.HasPrefix(denom, "n") || digits == "" {
		return coin
	}

	var base uint64
	for i := 0; i < len(digits); i++ {
		base = base*10 + uint64(digits[i]-'0')
	}

	whole := base / nanoUnitsPerToken
	frac := base % nanoUnitsPerToken

	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")

	return fmt.Sprintf("%d.%s", whole, fracStr)
}
