/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package feepaymentstore persists reconciled fee payment records for audit
// and access-control decisions.
package feepaymentstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/credstatus/csl-service/pkg/statuslist"
	"github.com/credstatus/csl-service/pkg/storage/mongodb"
)

const feePaymentCollection = "fee_payment_record"

// Store manages fee payment records in MongoDB.
type Store struct {
	mongoClient *mongodb.Client
}

// NewStore creates Store.
func NewStore(mongoClient *mongodb.Client) *Store {
	return &Store{mongoClient: mongoClient}
}

type feePaymentDocument struct {
	TxHash      string    `bson:"txHash"`
	FromAddress string    `bson:"fromAddress"`
	ToAddress   string    `bson:"toAddress"`
	Amount      string    `bson:"amount"`
	Fee         string    `bson:"fee"`
	Network     string    `bson:"network"`
	Timestamp   time.Time `bson:"timestamp"`
	Successful  bool      `bson:"successful"`
}

// Put upserts the records of one reconciled transaction, keyed by transaction
// hash and payee so re-reconciling a transaction is idempotent.
func (s *Store) Put(ctx context.Context, records []statuslist.FeePaymentRecord) error {
	collection := s.mongoClient.Database().Collection(feePaymentCollection)

	for _, record := range records {
		document := feePaymentDocument{
			TxHash:      record.TxHash,
			FromAddress: record.FromAddress,
			ToAddress:   record.ToAddress,
			Amount:      record.Amount,
			Fee:         record.Fee,
			Network:     record.Network,
			Timestamp:   record.Timestamp,
			Successful:  record.Successful,
		}

		_, err := collection.UpdateOne(ctx,
			bson.M{"txHash": record.TxHash, "toAddress": record.ToAddress, "amount": record.Amount},
			bson.M{"$set": document},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("fee payment record upsert failed: %w", err)
		}
	}

	return nil
}

// Payments returns the successful payments to the given address since the
// given time, newest first. It satisfies the encryption gateway's
// PaymentSource contract.
func (s *Store) Payments(ctx context.Context, toAddress string, since time.Time) ([]statuslist.FeePaymentRecord, error) {
	collection := s.mongoClient.Database().Collection(feePaymentCollection)

	cursor, err := collection.Find(ctx,
		bson.M{
			"toAddress":  toAddress,
			"successful": true,
			"timestamp":  bson.M{"$gte": since},
		},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("fee payment record find failed: %w", err)
	}

	defer cursor.Close(ctx) //nolint:errcheck

	var documents []feePaymentDocument

	if err = cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("fee payment record decode failed: %w", err)
	}

	records := make([]statuslist.FeePaymentRecord, 0, len(documents))

	for _, d := range documents {
		records = append(records, statuslist.FeePaymentRecord{
			TxHash:      d.TxHash,
			FromAddress: d.FromAddress,
			ToAddress:   d.ToAddress,
			Amount:      d.Amount,
			Fee:         d.Fee,
			Network:     d.Network,
			Timestamp:   d.Timestamp,
			Successful:  d.Successful,
		})
	}

	return records, nil
}
