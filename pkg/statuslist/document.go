/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/credstatus/csl-service/pkg/bitstring"
)

// Document is the in-memory representation of one status list version. It is
// the unit published to the ledger as a DID-Linked Resource payload.
type Document struct {
	IssuerDID  string             `json:"issuerDid"`
	Name       string             `json:"statusListName"`
	Type       ListType           `json:"type"`
	Purposes   []Purpose          `json:"statusPurpose"`
	StatusSize int                `json:"statusSize"`
	Length     int                `json:"length"`
	Messages   []StatusMessage    `json:"statusMessages,omitempty"`
	Encoding   bitstring.Encoding `json:"encoding"`

	// EncodedList is the text-encoded bitstring, or the text-encoded
	// ciphertext when Encrypted is set.
	EncodedList string `json:"encodedList"`
	Encrypted   bool   `json:"encrypted"`

	PaymentConditions []PaymentCondition `json:"paymentConditions,omitempty"`

	// TTL is a cache lifetime hint, in seconds. Zero means no hint.
	TTL int64 `json:"ttl,omitempty"`

	AlsoKnownAs []AlsoKnownAs `json:"alsoKnownAs,omitempty"`
	ValidFrom   time.Time     `json:"validFrom"`
}

// Validate checks the document invariants that must hold for every version.
func (d *Document) Validate() error {
	if d.IssuerDID == "" || !strings.HasPrefix(d.IssuerDID, "did:") {
		return fmt.Errorf("%w: issuer DID %q is not a DID", ErrValidation, d.IssuerDID)
	}

	if d.Name == "" {
		return fmt.Errorf("%w: status list name is required", ErrValidation)
	}

	if err := ValidatePurposes(d.Type, d.Purposes); err != nil {
		return err
	}

	if err := ValidateEncoding(d.Type, d.Encoding); err != nil {
		return err
	}

	if d.Length <= 0 {
		return fmt.Errorf("%w: length must be positive, got %d", ErrValidation, d.Length)
	}

	switch d.Type {
	case StatusList2021:
		if d.StatusSize != 1 {
			return fmt.Errorf("%w: %s entries are 1 bit wide", ErrValidation, d.Type)
		}
	case BitstringStatusList:
		if d.StatusSize < bitstring.MinStatusSize || d.StatusSize > bitstring.MaxStatusSize {
			return fmt.Errorf("%w: statusSize must be in [%d,%d], got %d",
				ErrValidation, bitstring.MinStatusSize, bitstring.MaxStatusSize, d.StatusSize)
		}
	}

	if d.StatusSize > 1 {
		if want := 1 << d.StatusSize; len(d.Messages) != want {
			return fmt.Errorf("%w: statusMessages array size must be %d, got %d",
				ErrValidation, want, len(d.Messages))
		}

		for _, m := range d.Messages {
			if m.Status == "" || m.Message == "" {
				return fmt.Errorf("%w: statusMessages entries require status and message", ErrValidation)
			}

			if len(m.Status) < 3 || m.Status[0:2] != "0x" {
				return fmt.Errorf("%w: status field must be a hex string", ErrValidation)
			}
		}
	}

	for _, c := range d.PaymentConditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks a single payment condition.
func (c *PaymentCondition) Validate() error {
	if c.Type != PaymentConditionType {
		return fmt.Errorf("%w: unsupported payment condition type %q", ErrValidation, c.Type)
	}

	if c.FeePaymentAddress == "" {
		return fmt.Errorf("%w: feePaymentAddress is required", ErrValidation)
	}

	if err := ValidateFeeAmount(c.FeePaymentAmount); err != nil {
		return err
	}

	if c.IntervalInSeconds <= 0 {
		return fmt.Errorf("%w: payment window must be a positive number of minutes", ErrValidation)
	}

	return nil
}

// HasPurpose reports whether the list carries the given purpose.
func (d *Document) HasPurpose(purpose Purpose) bool {
	return lo.Contains(d.Purposes, purpose)
}

// MessageFor maps a raw entry value through the status message table.
// Status values are parsed rather than compared textually, so "0x1" and
// "0x01" name the same entry. For 1-bit lists there is no table and ok is
// false.
func (d *Document) MessageFor(value uint8) (StatusMessage, bool) {
	return lo.Find(d.Messages, func(m StatusMessage) bool {
		parsed, err := strconv.ParseUint(strings.TrimPrefix(m.Status, "0x"), 16, 8)

		return err == nil && uint8(parsed) == value
	})
}

// Bitstring decodes the document payload into a BitString. The document must
// not be encrypted; encrypted payloads are decrypted by the encryption
// gateway before decoding.
func (d *Document) Bitstring() (*bitstring.BitString, error) {
	if d.Encrypted {
		return nil, fmt.Errorf("%w: list %q is encrypted", ErrTypeMismatch, d.Name)
	}

	return bitstring.Decode(d.EncodedList, d.Encoding, d.Length, d.StatusSize)
}

// MarshalPayload renders the document as the resource payload published to
// the ledger.
func (d *Document) MarshalPayload() ([]byte, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal status list document: %w", err)
	}

	return payload, nil
}

// ParsePayload is the inverse of MarshalPayload.
func ParsePayload(payload []byte) (*Document, error) {
	var d Document

	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("%w: parse status list document: %s", ErrValidation, err)
	}

	return &d, nil
}
