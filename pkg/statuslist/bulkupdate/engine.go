/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bulkupdate applies a batch of index mutations to a status list
// document, producing the payload for the next chain version. Batches are
// fail-fast: one invalid index aborts the whole batch before any write, so a
// partially applied version is never published.
package bulkupdate

import (
	"fmt"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/internal/logfields"
	"github.com/credstatus/csl-service/pkg/statuslist"
)

var logger = log.New("statuslist-bulkupdate")

// Result is the tagged outcome of one bulk mutation. Outcomes holds one entry
// per requested index, in request order; duplicates are kept. Updated is true
// iff Outcomes is non-empty and every entry is true.
type Result struct {
	Action   statuslist.Action `json:"action"`
	Indices  []int             `json:"indices"`
	Outcomes []bool            `json:"outcomes"`
	Updated  bool              `json:"updated"`
}

// Apply applies a status action to the given indices of the document,
// rewriting its encoded payload. The document must carry the action's status
// purpose and must not be encrypted; encrypted lists are decrypted by the
// caller before mutation.
func Apply(doc *statuslist.Document, action statuslist.Action, indices []int) (*Result, error) {
	purpose, err := action.Purpose()
	if err != nil {
		return nil, err
	}

	if !doc.HasPurpose(purpose) {
		return nil, fmt.Errorf("%w: list %q does not carry status purpose %q",
			statuslist.ErrValidation, doc.Name, purpose)
	}

	return applyValue(doc, action, indices, action.TargetValue())
}

// ApplyValue writes an arbitrary statusSize-wide value to the given indices.
// BitstringStatusList only.
func ApplyValue(doc *statuslist.Document, indices []int, value uint8) (*Result, error) {
	if doc.Type != statuslist.BitstringStatusList {
		return nil, fmt.Errorf("%w: raw status values require a %s list",
			statuslist.ErrValidation, statuslist.BitstringStatusList)
	}

	if doc.StatusSize > 1 {
		if _, ok := doc.MessageFor(value); !ok {
			return nil, fmt.Errorf("%w: value %d has no statusMessages entry",
				statuslist.ErrValidation, value)
		}
	}

	return applyValue(doc, "", indices, value)
}

func applyValue(doc *statuslist.Document, action statuslist.Action, indices []int, value uint8) (*Result, error) {
	bits, err := doc.Bitstring()
	if err != nil {
		return nil, err
	}

	// fail-fast: reject the whole batch before the first write.
	for _, index := range indices {
		if index < 0 || index >= doc.Length {
			return nil, fmt.Errorf("%w: index %d exceeds list length %d",
				statuslist.ErrValidation, index, doc.Length)
		}
	}

	if value >= 1<<doc.StatusSize && doc.StatusSize < 8 {
		return nil, fmt.Errorf("%w: value %d does not fit in %d bit(s)",
			statuslist.ErrValidation, value, doc.StatusSize)
	}

	outcomes := make([]bool, 0, len(indices))

	for _, index := range indices {
		if err := bits.Set(index, value); err != nil {
			return nil, err
		}

		// setting an already-set value is idempotent and still counts as
		// a successful outcome.
		outcomes = append(outcomes, true)
	}

	encoded, err := bits.Encode(doc.Encoding)
	if err != nil {
		return nil, err
	}

	doc.EncodedList = encoded

	result := &Result{
		Action:   action,
		Indices:  indices,
		Outcomes: outcomes,
		Updated:  updated(outcomes),
	}

	logger.Debug("applied bulk status update",
		logfields.WithStatusListName(doc.Name),
		logfields.WithAction(string(action)),
		logfields.WithIndexCount(len(indices)))

	return result, nil
}

// updated reports the all-or-declare-failure aggregation: true iff the
// outcome array is non-empty and every entry is true.
func updated(outcomes []bool) bool {
	if len(outcomes) == 0 {
		return false
	}

	for _, ok := range outcomes {
		if !ok {
			return false
		}
	}

	return true
}
