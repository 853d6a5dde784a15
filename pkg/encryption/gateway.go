/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package encryption manages the link between an encrypted status list and
// its symmetric content key, gated by verifiable fee payment. The key comes
// from a distributed key generation service, lives only for the duration of a
// decrypt/re-encrypt operation and is never logged or persisted here.
package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/internal/logfields"
	"github.com/credstatus/csl-service/pkg/statuslist"
)

var logger = log.New("encryption-gateway")

// KeySize is the AES-256 content key size, in bytes.
const KeySize = 32

// DKGClient obtains a symmetric content key from a distributed key
// generation network.
type DKGClient interface {
	RequestKey(ctx context.Context, network string) ([]byte, error)
}

// PaymentSource supplies reconciled fee payment records for access decisions.
type PaymentSource interface {
	// Payments returns the successful payments made to the given address
	// since the given time.
	Payments(ctx context.Context, toAddress string, since time.Time) ([]statuslist.FeePaymentRecord, error)
}

// PaymentOptions is the caller-supplied payment configuration for an
// encrypted list: either pre-built conditions or a single fully-specified
// address/amount/window triple.
type PaymentOptions struct {
	Conditions []statuslist.PaymentCondition

	FeePaymentAddress string
	FeePaymentAmount  string
	// FeePaymentWindow is the recurring payment window, in minutes.
	FeePaymentWindow int64
}

// Config configures the gateway.
type Config struct {
	DKG      DKGClient
	Payments PaymentSource
}

// Gateway gates encrypted list access behind payment conditions.
type Gateway struct {
	dkg      DKGClient
	payments PaymentSource
}

// New returns a new encryption gateway.
func New(config *Config) *Gateway {
	return &Gateway{
		dkg:      config.DKG,
		payments: config.Payments,
	}
}

// CreateConditions validates the payment options and derives the list's
// payment conditions. When no pre-built conditions are supplied, one
// fully-specified address/amount/window triple is required.
func CreateConditions(opts *PaymentOptions) ([]statuslist.PaymentCondition, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: payment options are required for an encrypted list", statuslist.ErrValidation)
	}

	if len(opts.Conditions) > 0 {
		for i := range opts.Conditions {
			if err := opts.Conditions[i].Validate(); err != nil {
				return nil, err
			}
		}

		return opts.Conditions, nil
	}

	if opts.FeePaymentAddress == "" || opts.FeePaymentAmount == "" || opts.FeePaymentWindow == 0 {
		return nil, fmt.Errorf("%w: feePaymentAddress, feePaymentAmount and feePaymentWindow are required",
			statuslist.ErrValidation)
	}

	if opts.FeePaymentWindow < 0 {
		return nil, fmt.Errorf("%w: payment window must be a positive number of minutes", statuslist.ErrValidation)
	}

	condition := statuslist.PaymentCondition{
		Type:              statuslist.PaymentConditionType,
		FeePaymentAddress: opts.FeePaymentAddress,
		FeePaymentAmount:  opts.FeePaymentAmount,
		IntervalInSeconds: opts.FeePaymentWindow * 60,
	}

	if err := condition.Validate(); err != nil {
		return nil, err
	}

	return []statuslist.PaymentCondition{condition}, nil
}

// RequestSymmetricKey obtains a content key from the DKG service scoped to
// the DID's network.
func (g *Gateway) RequestSymmetricKey(ctx context.Context, did string) ([]byte, error) {
	network := NetworkOf(did)

	key, err := g.dkg.RequestKey(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("request symmetric key: %w", err)
	}

	if len(key) != KeySize {
		return nil, fmt.Errorf("dkg returned a %d-byte key, want %d", len(key), KeySize)
	}

	logger.Debugc(ctx, "obtained symmetric content key", logfields.WithNetwork(network))

	return key, nil
}

// Encrypt seals the plaintext buffer with AES-256-GCM. The serialized payment
// conditions are bound as additional authenticated data, so a payload
// presented with tampered conditions fails to open.
func (g *Gateway) Encrypt(plaintext, key []byte, conditions []statuslist.PaymentCondition) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	aad, err := conditionsAAD(conditions)
	if err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

// Decrypt opens a payload sealed by Encrypt.
func (g *Gateway) Decrypt(payload, key []byte, conditions []statuslist.PaymentCondition) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(payload) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	aad, err := conditionsAAD(conditions)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := payload[:gcm.NonceSize()], payload[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", err)
	}

	return plaintext, nil
}

// AuthorizeAccess verifies that every payment condition on the list is
// currently satisfied by a reconciled fee payment. It returns
// statuslist.ErrAccessDenied when payment is pending or insufficient and
// statuslist.ErrMalformedAccessConditions when the conditions themselves are
// defective.
func (g *Gateway) AuthorizeAccess(ctx context.Context, did string, conditions []statuslist.PaymentCondition) error {
	if len(conditions) == 0 {
		return fmt.Errorf("%w: encrypted list carries no payment conditions", statuslist.ErrMalformedAccessConditions)
	}

	for _, condition := range conditions {
		if err := condition.Validate(); err != nil {
			return fmt.Errorf("%w: %s", statuslist.ErrMalformedAccessConditions, err)
		}

		required, err := strconv.ParseFloat(condition.FeePaymentAmount, 64)
		if err != nil {
			return fmt.Errorf("%w: fee amount %q is not a decimal", statuslist.ErrMalformedAccessConditions,
				condition.FeePaymentAmount)
		}

		since := time.Now().Add(-time.Duration(condition.IntervalInSeconds) * time.Second)

		records, err := g.payments.Payments(ctx, condition.FeePaymentAddress, since)
		if err != nil {
			return fmt.Errorf("fetch payment records: %w", err)
		}

		if !satisfied(records, required, since) {
			return fmt.Errorf("%w: no matching fee payment of %s to %s within the current window",
				statuslist.ErrAccessDenied, condition.FeePaymentAmount, condition.FeePaymentAddress)
		}
	}

	logger.Debugc(ctx, "access conditions satisfied", logfields.WithIssuerDID(did))

	return nil
}

func satisfied(records []statuslist.FeePaymentRecord, required float64, since time.Time) bool {
	for _, record := range records {
		if !record.Successful || record.Timestamp.Before(since) {
			continue
		}

		paid, err := strconv.ParseFloat(record.Amount, 64)
		if err != nil {
			continue
		}

		if paid >= required {
			return true
		}
	}

	return false
}

// NetworkOf extracts the ledger network from a DID, e.g.
// did:cheqd:testnet:<id> yields "testnet". DIDs without a network segment
// default to mainnet.
func NetworkOf(did string) string {
	parts := strings.Split(did, ":")
	if len(parts) >= 4 {
		return parts[2]
	}

	return "mainnet"
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

func conditionsAAD(conditions []statuslist.PaymentCondition) ([]byte, error) {
	if len(conditions) == 0 {
		return nil, nil
	}

	aad, err := json.Marshal(conditions)
	if err != nil {
		return nil, fmt.Errorf("marshal payment conditions: %w", err)
	}

	return aad, nil
}
