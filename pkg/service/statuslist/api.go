/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"context"

	"github.com/credstatus/csl-service/pkg/bitstring"
	"github.com/credstatus/csl-service/pkg/feereconciler"
	"github.com/credstatus/csl-service/pkg/resource"
	statuslistapi "github.com/credstatus/csl-service/pkg/statuslist"
)

// ServiceInterface is the contract exposed to HTTP controllers and the
// tracing wrapper.
type ServiceInterface interface {
	CreateUnencrypted(ctx context.Context, req *CreateListRequest) (*CreateResult, error)
	CreateEncrypted(ctx context.Context, req *CreateEncryptedListRequest) (*CreateResult, error)
	Update(ctx context.Context, req *UpdateRequest) (*UpdateResult, error)
	UpdateMany(ctx context.Context, reqs []*UpdateRequest) ([]*UpdateResult, error)
	Check(ctx context.Context, req *CheckRequest) (*CheckResult, error)
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
}

// CreateListRequest allocates a new status list under the issuer's resource
// collection. Zero-value optional fields fall back to format defaults.
type CreateListRequest struct {
	IssuerDID  string                        `json:"did"`
	Name       string                        `json:"statusListName"`
	Type       statuslistapi.ListType        `json:"listType"`
	Purposes   []statuslistapi.Purpose       `json:"statusPurpose"`
	Length     int                           `json:"length,omitempty"`
	StatusSize int                           `json:"statusSize,omitempty"`
	Encoding   bitstring.Encoding            `json:"encoding,omitempty"`
	Messages   []statuslistapi.StatusMessage `json:"statusMessages,omitempty"`
	// EncodedList optionally seeds the list with a caller-supplied
	// pre-encoded buffer instead of a zeroed one.
	EncodedList string                      `json:"encodedList,omitempty"`
	TTL         int64                       `json:"ttl,omitempty"`
	AlsoKnownAs []statuslistapi.AlsoKnownAs `json:"alsoKnownAs,omitempty"`
}

// CreateEncryptedListRequest additionally carries the payment configuration:
// either pre-built conditions or one address/amount/window triple.
type CreateEncryptedListRequest struct {
	CreateListRequest

	PaymentConditions []statuslistapi.PaymentCondition `json:"paymentConditions,omitempty"`
	FeePaymentAddress string                           `json:"feePaymentAddress,omitempty"`
	FeePaymentAmount  string                           `json:"feePaymentAmount,omitempty"`
	// FeePaymentWindow is the recurring payment window, in minutes.
	FeePaymentWindow int64 `json:"feePaymentWindow,omitempty"`
}

// CreateResult reports a published genesis version. SymmetricKey is only set
// for encrypted lists and is never persisted by this service.
type CreateResult struct {
	Created          bool                    `json:"created"`
	Resource         *statuslistapi.Document `json:"resource"`
	ResourceMetadata *resource.Metadata      `json:"resourceMetadata"`
	SymmetricKey     string                  `json:"symmetricKey,omitempty"`
}

// UpdateRequest applies one status action to a set of indices on a list.
type UpdateRequest struct {
	IssuerDID string                 `json:"did"`
	Name      string                 `json:"statusListName"`
	Type      statuslistapi.ListType `json:"listType"`
	Action    statuslistapi.Action   `json:"statusAction"`
	Indices   []int                  `json:"indices"`
	// Version optionally labels the published version; a stable label makes
	// retried publishes idempotent-safe. Empty means a fresh UUID.
	Version string `json:"statusListVersion,omitempty"`
	// SymmetricKey is the hex content key. Required for encrypted lists,
	// forbidden for unencrypted ones.
	SymmetricKey string `json:"symmetricKey,omitempty"`
	// PaymentConditions optionally replaces the list's payment conditions on
	// the published version. Only valid for encrypted lists.
	PaymentConditions []statuslistapi.PaymentCondition `json:"paymentConditions,omitempty"`
}

// UpdateResult reports a bulk update. Exactly one of Revoked, Suspended or
// Unsuspended is set, matching the request action.
type UpdateResult struct {
	Updated          bool                    `json:"updated"`
	Revoked          []bool                  `json:"revoked,omitempty"`
	Suspended        []bool                  `json:"suspended,omitempty"`
	Unsuspended      []bool                  `json:"unsuspended,omitempty"`
	Resource         *statuslistapi.Document `json:"resource"`
	ResourceMetadata *resource.Metadata      `json:"resourceMetadata"`
}

// CheckRequest reads a single entry from the head version of a list.
type CheckRequest struct {
	IssuerDID string                 `json:"did"`
	Name      string                 `json:"statusListName"`
	Type      statuslistapi.ListType `json:"listType"`
	Index     int                    `json:"index"`
	Purpose   statuslistapi.Purpose  `json:"statusPurpose"`
	// StatusListCredential optionally supplies the status list document
	// inline; head resolution on the ledger is skipped.
	StatusListCredential string `json:"statusListCredential,omitempty"`
	// StatusSize and StatusMessages override the corresponding fields of an
	// inline credential that omits them. Ignored without StatusListCredential.
	StatusSize     int                           `json:"statusSize,omitempty"`
	StatusMessages []statuslistapi.StatusMessage `json:"statusMessage,omitempty"`
	// SymmetricKey optionally supplies the hex content key for an encrypted
	// list; when absent the key is obtained from the DKG service after the
	// payment conditions authorize access.
	SymmetricKey string `json:"symmetricKey,omitempty"`
	// MakeFeePayment settles the list's payment conditions before the
	// access check.
	MakeFeePayment bool `json:"makeFeePayment,omitempty"`
}

// CheckResult reports one entry's status. For 1-bit lists the boolean named
// after the purpose is set; for wider entries the status message is.
type CheckResult struct {
	Checked   bool                         `json:"checked"`
	Revoked   *bool                        `json:"revoked,omitempty"`
	Suspended *bool                        `json:"suspended,omitempty"`
	Message   *statuslistapi.StatusMessage `json:"statusMessage,omitempty"`
}

// SearchRequest looks up the head version of a list without mutating it.
type SearchRequest struct {
	IssuerDID string                 `json:"did"`
	Name      string                 `json:"statusListName"`
	Type      statuslistapi.ListType `json:"listType"`
	Purpose   statuslistapi.Purpose  `json:"statusPurpose"`
}

// SearchResult reports a head lookup. An absent list yields Found == false
// with a nil error; all other failures are returned as errors.
type SearchResult struct {
	Found            bool                    `json:"found"`
	Resource         *statuslistapi.Document `json:"resource,omitempty"`
	ResourceMetadata *resource.Metadata      `json:"resourceMetadata,omitempty"`
}

// FeePayer settles a list's payment conditions on the ledger and returns the
// resulting transaction with its event log.
type FeePayer interface {
	Pay(ctx context.Context, network string,
		conditions []statuslistapi.PaymentCondition) (*feereconciler.Transaction, error)
}
