/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package statuslist composes the codec, version chain, bulk update engine,
// encryption gateway and fee reconciler into the operations exposed to HTTP
// controllers. Each collaborator is an explicit interface; there is no
// runtime method-name dispatch.
package statuslist

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trustbloc/logutil-go/pkg/log"
	"golang.org/x/sync/errgroup"

	"github.com/credstatus/csl-service/internal/logfields"
	"github.com/credstatus/csl-service/pkg/bitstring"
	"github.com/credstatus/csl-service/pkg/encryption"
	"github.com/credstatus/csl-service/pkg/event/spi"
	"github.com/credstatus/csl-service/pkg/feereconciler"
	metricsapi "github.com/credstatus/csl-service/pkg/observability/metrics"
	"github.com/credstatus/csl-service/pkg/observability/metrics/noop"
	"github.com/credstatus/csl-service/pkg/resource"
	statuslistapi "github.com/credstatus/csl-service/pkg/statuslist"
	"github.com/credstatus/csl-service/pkg/statuslist/bulkupdate"
	"github.com/credstatus/csl-service/pkg/statuslist/versionchain"
	"github.com/credstatus/csl-service/pkg/storage/redis/headcache"
)

const (
	eventSource = "source://credstatus/csl-service"

	defaultUpdateConcurrency = 4
)

var logger = log.New("statuslist-service")

type chainManager interface {
	ResolveHead(ctx context.Context, issuerDID, name, resourceType string) (*resource.Metadata, error)
	Create(ctx context.Context, issuerDID, name, resourceType string,
		fn versionchain.MutateFunc) (*resource.Metadata, error)
	Append(ctx context.Context, issuerDID, name, resourceType string,
		fn versionchain.MutateFunc) (*resource.Metadata, error)
}

type resourceReader interface {
	DereferenceResource(ctx context.Context, issuerDID, resourceID string) ([]byte, error)
}

type encryptionGateway interface {
	RequestSymmetricKey(ctx context.Context, did string) ([]byte, error)
	Encrypt(plaintext, key []byte, conditions []statuslistapi.PaymentCondition) ([]byte, error)
	Decrypt(payload, key []byte, conditions []statuslistapi.PaymentCondition) ([]byte, error)
	AuthorizeAccess(ctx context.Context, did string, conditions []statuslistapi.PaymentCondition) error
}

type feeReconciler interface {
	Reconcile(ctx context.Context, tx *feereconciler.Transaction) ([]statuslistapi.FeePaymentRecord, error)
}

type feePaymentStore interface {
	Put(ctx context.Context, records []statuslistapi.FeePaymentRecord) error
}

type headCache interface {
	Get(ctx context.Context, issuerDID, name string) (*headcache.Entry, error)
	Put(ctx context.Context, issuerDID, name string, entry *headcache.Entry, ttlSeconds int64) error
	Invalidate(ctx context.Context, issuerDID, name string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event *spi.Event)
}

// Config configures the status list service. FeePayer, FeePaymentStore,
// HeadCache, EventPublisher and Metrics are optional.
type Config struct {
	Chain             chainManager
	ResourceReader    resourceReader
	Encryption        encryptionGateway
	FeeReconciler     feeReconciler
	FeePayer          FeePayer
	FeePaymentStore   feePaymentStore
	HeadCache         headCache
	EventPublisher    eventPublisher
	Metrics           metricsapi.Metrics
	UpdateConcurrency int
}

// Service implements ServiceInterface.
type Service struct {
	chain             chainManager
	resources         resourceReader
	encryption        encryptionGateway
	reconciler        feeReconciler
	feePayer          FeePayer
	feePayments       feePaymentStore
	headCache         headCache
	events            eventPublisher
	metrics           metricsapi.Metrics
	updateConcurrency int
}

// New returns a new status list service.
func New(config *Config) *Service {
	m := config.Metrics
	if m == nil {
		m = noop.GetMetrics()
	}

	concurrency := config.UpdateConcurrency
	if concurrency <= 0 {
		concurrency = defaultUpdateConcurrency
	}

	return &Service{
		chain:             config.Chain,
		resources:         config.ResourceReader,
		encryption:        config.Encryption,
		reconciler:        config.FeeReconciler,
		feePayer:          config.FeePayer,
		feePayments:       config.FeePaymentStore,
		headCache:         config.HeadCache,
		events:            config.EventPublisher,
		metrics:           m,
		updateConcurrency: concurrency,
	}
}

// CreateUnencrypted allocates a new status list and publishes its genesis
// version to the issuer's resource collection.
func (s *Service) CreateUnencrypted(ctx context.Context, req *CreateListRequest) (*CreateResult, error) {
	start := time.Now()

	doc, err := s.buildDocument(req)
	if err != nil {
		return nil, err
	}

	metadata, err := s.publishGenesis(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, spi.StatusListCreated, doc.IssuerDID, doc.Name)
	s.metrics.StatusListCreateTime(time.Since(start))

	logger.Infoc(ctx, "created status list",
		logfields.WithIssuerDID(doc.IssuerDID),
		logfields.WithStatusListName(doc.Name),
		logfields.WithListType(string(doc.Type)),
		logfields.WithResourceID(metadata.ResourceID))

	return &CreateResult{Created: true, Resource: doc, ResourceMetadata: metadata}, nil
}

// CreateEncrypted allocates a new payment-gated status list. The returned
// symmetric key is handed to the caller once and never persisted.
func (s *Service) CreateEncrypted(ctx context.Context, req *CreateEncryptedListRequest) (*CreateResult, error) {
	start := time.Now()

	conditions, err := encryption.CreateConditions(&encryption.PaymentOptions{
		Conditions:        req.PaymentConditions,
		FeePaymentAddress: req.FeePaymentAddress,
		FeePaymentAmount:  req.FeePaymentAmount,
		FeePaymentWindow:  req.FeePaymentWindow,
	})
	if err != nil {
		return nil, err
	}

	doc, err := s.buildDocument(&req.CreateListRequest)
	if err != nil {
		return nil, err
	}

	key, err := s.encryption.RequestSymmetricKey(ctx, doc.IssuerDID)
	if err != nil {
		return nil, err
	}

	ciphertext, err := s.encryption.Encrypt([]byte(doc.EncodedList), key, conditions)
	if err != nil {
		return nil, err
	}

	doc.EncodedList = base64.StdEncoding.EncodeToString(ciphertext)
	doc.Encrypted = true
	doc.PaymentConditions = conditions

	metadata, err := s.publishGenesis(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, spi.StatusListCreated, doc.IssuerDID, doc.Name)
	s.metrics.StatusListCreateTime(time.Since(start))

	logger.Infoc(ctx, "created encrypted status list",
		logfields.WithIssuerDID(doc.IssuerDID),
		logfields.WithStatusListName(doc.Name),
		logfields.WithListType(string(doc.Type)),
		logfields.WithResourceID(metadata.ResourceID))

	return &CreateResult{
		Created:          true,
		Resource:         doc,
		ResourceMetadata: metadata,
		SymmetricKey:     hex.EncodeToString(key),
	}, nil
}

// Update applies one status action to a set of indices and publishes the
// result as the new head version. The batch fails as a whole before anything
// is published if any index is invalid.
func (s *Service) Update(ctx context.Context, req *UpdateRequest) (*UpdateResult, error) {
	start := time.Now()

	if len(req.Indices) == 0 {
		return nil, fmt.Errorf("%w: at least one index is required", statuslistapi.ErrValidation)
	}

	purpose, err := req.Action.Purpose()
	if err != nil {
		return nil, err
	}

	var key []byte

	if req.SymmetricKey != "" {
		if key, err = hex.DecodeString(req.SymmetricKey); err != nil {
			return nil, fmt.Errorf("%w: symmetric key is not hex-encoded", statuslistapi.ErrValidation)
		}
	}

	resourceType := statuslistapi.ResourceType(req.Type, []statuslistapi.Purpose{purpose})

	var (
		doc    *statuslistapi.Document
		result *bulkupdate.Result
	)

	metadata, err := s.chain.Append(ctx, req.IssuerDID, req.Name, resourceType,
		func(head *resource.Metadata) ([]byte, *resource.PublishOptions, error) {
			payload, innerErr := s.resources.DereferenceResource(ctx, req.IssuerDID, head.ResourceID)
			if innerErr != nil {
				return nil, nil, innerErr
			}

			if doc, innerErr = statuslistapi.ParsePayload(payload); innerErr != nil {
				return nil, nil, innerErr
			}

			if doc.Encrypted && key == nil {
				return nil, nil, fmt.Errorf("%w: list %q is encrypted; a symmetric key is required",
					statuslistapi.ErrTypeMismatch, req.Name)
			}

			if !doc.Encrypted && key != nil {
				return nil, nil, fmt.Errorf("%w: list %q is not encrypted",
					statuslistapi.ErrTypeMismatch, req.Name)
			}

			if len(req.PaymentConditions) > 0 && !doc.Encrypted {
				return nil, nil, fmt.Errorf("%w: list %q is not encrypted; payment conditions do not apply",
					statuslistapi.ErrTypeMismatch, req.Name)
			}

			wasEncrypted := doc.Encrypted

			if wasEncrypted {
				if innerErr = s.encryption.AuthorizeAccess(ctx, req.IssuerDID,
					doc.PaymentConditions); innerErr != nil {
					return nil, nil, innerErr
				}

				if innerErr = s.decryptInPlace(doc, key); innerErr != nil {
					return nil, nil, innerErr
				}
			}

			if result, innerErr = bulkupdate.Apply(doc, req.Action, req.Indices); innerErr != nil {
				return nil, nil, innerErr
			}

			if wasEncrypted {
				if len(req.PaymentConditions) > 0 {
					conditions, condErr := encryption.CreateConditions(&encryption.PaymentOptions{
						Conditions: req.PaymentConditions,
					})
					if condErr != nil {
						return nil, nil, condErr
					}

					doc.PaymentConditions = conditions
				}

				if innerErr = s.encryptInPlace(doc, key); innerErr != nil {
					return nil, nil, innerErr
				}
			}

			version := req.Version
			if version == "" {
				version = uuid.NewString()
			}

			out, innerErr := doc.MarshalPayload()
			if innerErr != nil {
				return nil, nil, innerErr
			}

			return out, &resource.PublishOptions{
				Name:              req.Name,
				ResourceType:      resourceType,
				Version:           version,
				Encrypted:         doc.Encrypted,
				PaymentConditions: doc.PaymentConditions,
				AlsoKnownAs:       doc.AlsoKnownAs,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	s.invalidateHead(ctx, req.IssuerDID, req.Name)
	s.publishEvent(ctx, spi.StatusListUpdated, req.IssuerDID, req.Name)
	s.metrics.StatusListUpdateTime(time.Since(start))

	logger.Infoc(ctx, "updated status list",
		logfields.WithIssuerDID(req.IssuerDID),
		logfields.WithStatusListName(req.Name),
		logfields.WithAction(string(req.Action)),
		logfields.WithIndexCount(len(req.Indices)),
		logfields.WithResourceID(metadata.ResourceID))

	updateResult := &UpdateResult{Updated: result.Updated, Resource: doc, ResourceMetadata: metadata}

	switch req.Action {
	case statuslistapi.ActionRevoke:
		updateResult.Revoked = result.Outcomes
	case statuslistapi.ActionSuspend:
		updateResult.Suspended = result.Outcomes
	case statuslistapi.ActionReinstate:
		updateResult.Unsuspended = result.Outcomes
	}

	return updateResult, nil
}

// UpdateMany fans a batch of updates out across lists with bounded
// concurrency. Per-list serialization still applies inside the fan-out. The
// whole batch fails on the first update error.
func (s *Service) UpdateMany(ctx context.Context, reqs []*UpdateRequest) ([]*UpdateResult, error) {
	results := make([]*UpdateResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.updateConcurrency)

	for i, req := range reqs {
		i, req := i, req

		g.Go(func() error {
			res, err := s.Update(gctx, req)
			if err != nil {
				return fmt.Errorf("update %s list %q: %w", req.IssuerDID, req.Name, err)
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Check reads a single entry from the head version of a list. For encrypted
// lists the payment conditions must authorize access first; MakeFeePayment
// settles them beforehand.
func (s *Service) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()

	var (
		doc *statuslistapi.Document
		err error
	)

	if req.StatusListCredential != "" {
		if doc, err = s.inlineDocument(req); err != nil {
			return nil, err
		}
	} else {
		resourceType := statuslistapi.ResourceType(req.Type, []statuslistapi.Purpose{req.Purpose})

		if doc, _, err = s.resolveHeadDocument(ctx, req.IssuerDID, req.Name, resourceType); err != nil {
			return nil, err
		}
	}

	if !doc.HasPurpose(req.Purpose) {
		return nil, fmt.Errorf("%w: list %q does not carry purpose %q",
			statuslistapi.ErrValidation, req.Name, req.Purpose)
	}

	encodedList := doc.EncodedList

	switch {
	case doc.Encrypted:
		if encodedList, err = s.unlock(ctx, doc, req); err != nil {
			return nil, err
		}
	case req.SymmetricKey != "":
		return nil, fmt.Errorf("%w: list %q is not encrypted", statuslistapi.ErrTypeMismatch, req.Name)
	}

	bits, err := bitstring.Decode(encodedList, doc.Encoding, doc.Length, doc.StatusSize)
	if err != nil {
		return nil, err
	}

	value, err := bits.Get(req.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: index %d is out of range for list %q",
			statuslistapi.ErrValidation, req.Index, req.Name)
	}

	result := &CheckResult{Checked: true}

	if doc.StatusSize == 1 {
		set := value != 0

		if req.Purpose == statuslistapi.PurposeSuspension {
			result.Suspended = &set
		} else {
			result.Revoked = &set
		}
	} else {
		message, ok := doc.MessageFor(value)
		if !ok {
			return nil, fmt.Errorf("%w: list %q has no status message for value %#x",
				statuslistapi.ErrValidation, req.Name, value)
		}

		result.Message = &message
	}

	s.publishEvent(ctx, spi.StatusListChecked, req.IssuerDID, req.Name)
	s.metrics.StatusListCheckTime(time.Since(start))

	return result, nil
}

// Search resolves the head version of a list without mutating it. An absent
// list, or one that does not carry the requested purpose, yields
// Found == false with a nil error.
func (s *Service) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	start := time.Now()

	resourceType := statuslistapi.ResourceType(req.Type, []statuslistapi.Purpose{req.Purpose})

	doc, head, err := s.resolveHeadDocument(ctx, req.IssuerDID, req.Name, resourceType)
	if err != nil {
		if errors.Is(err, statuslistapi.ErrNotFound) {
			return &SearchResult{Found: false}, nil
		}

		return nil, err
	}

	if !doc.HasPurpose(req.Purpose) {
		return &SearchResult{Found: false}, nil
	}

	s.metrics.StatusListSearchTime(time.Since(start))

	return &SearchResult{Found: true, Resource: doc, ResourceMetadata: head}, nil
}

func (s *Service) buildDocument(req *CreateListRequest) (*statuslistapi.Document, error) {
	length := req.Length
	if length == 0 {
		length = statuslistapi.DefaultLength
	}

	statusSize := req.StatusSize
	if statusSize == 0 {
		statusSize = 1
	}

	encoding := req.Encoding
	if encoding == "" {
		encoding = bitstring.Base64URL
	}

	doc := &statuslistapi.Document{
		IssuerDID:   req.IssuerDID,
		Name:        req.Name,
		Type:        req.Type,
		Purposes:    req.Purposes,
		StatusSize:  statusSize,
		Length:      length,
		Messages:    req.Messages,
		Encoding:    encoding,
		TTL:         req.TTL,
		AlsoKnownAs: req.AlsoKnownAs,
		ValidFrom:   time.Now().UTC(),
	}

	if req.EncodedList != "" {
		// Caller-supplied buffer; decode to prove it is well-formed.
		if _, err := bitstring.Decode(req.EncodedList, encoding, length, statusSize); err != nil {
			return nil, err
		}

		doc.EncodedList = req.EncodedList
	} else {
		bits, err := bitstring.New(length, statusSize)
		if err != nil {
			return nil, err
		}

		encoded, err := bits.Encode(encoding)
		if err != nil {
			return nil, err
		}

		doc.EncodedList = encoded
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Service) publishGenesis(ctx context.Context, doc *statuslistapi.Document) (*resource.Metadata, error) {
	payload, err := doc.MarshalPayload()
	if err != nil {
		return nil, err
	}

	resourceType := statuslistapi.ResourceType(doc.Type, doc.Purposes)

	return s.chain.Create(ctx, doc.IssuerDID, doc.Name, resourceType,
		func(*resource.Metadata) ([]byte, *resource.PublishOptions, error) {
			return payload, &resource.PublishOptions{
				Name:              doc.Name,
				ResourceType:      resourceType,
				Version:           uuid.NewString(),
				Encrypted:         doc.Encrypted,
				PaymentConditions: doc.PaymentConditions,
				AlsoKnownAs:       doc.AlsoKnownAs,
			}, nil
		})
}

// inlineDocument parses a caller-supplied status list credential, applying
// the request's statusSize/statusMessage overrides when the inline payload
// omits them.
func (s *Service) inlineDocument(req *CheckRequest) (*statuslistapi.Document, error) {
	doc, err := statuslistapi.ParsePayload([]byte(req.StatusListCredential))
	if err != nil {
		return nil, err
	}

	if req.StatusSize > 0 {
		doc.StatusSize = req.StatusSize
	}

	if len(req.StatusMessages) > 0 {
		doc.Messages = req.StatusMessages
	}

	return doc, nil
}

// unlock settles and authorizes the list's payment conditions, then returns
// the decrypted encoded list. The content key lives only on this call's
// stack and is discarded on return.
func (s *Service) unlock(ctx context.Context, doc *statuslistapi.Document, req *CheckRequest) (string, error) {
	if req.MakeFeePayment {
		if err := s.settleFeePayment(ctx, req.IssuerDID, doc.PaymentConditions); err != nil {
			return "", err
		}
	}

	if err := s.encryption.AuthorizeAccess(ctx, req.IssuerDID, doc.PaymentConditions); err != nil {
		return "", err
	}

	var (
		key []byte
		err error
	)

	if req.SymmetricKey != "" {
		if key, err = hex.DecodeString(req.SymmetricKey); err != nil {
			return "", fmt.Errorf("%w: symmetric key is not hex-encoded", statuslistapi.ErrValidation)
		}
	} else {
		if key, err = s.encryption.RequestSymmetricKey(ctx, req.IssuerDID); err != nil {
			return "", err
		}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(doc.EncodedList)
	if err != nil {
		return "", fmt.Errorf("%w: encrypted list payload is not base64", statuslistapi.ErrValidation)
	}

	plaintext, err := s.encryption.Decrypt(ciphertext, key, doc.PaymentConditions)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

func (s *Service) settleFeePayment(ctx context.Context, did string,
	conditions []statuslistapi.PaymentCondition) error {
	if s.feePayer == nil {
		return fmt.Errorf("%w: no fee payer is configured", statuslistapi.ErrValidation)
	}

	start := time.Now()

	network := encryption.NetworkOf(did)

	tx, err := s.feePayer.Pay(ctx, network, conditions)
	if err != nil {
		return fmt.Errorf("settle fee payment: %w", err)
	}

	records, err := s.reconciler.Reconcile(ctx, tx)
	if err != nil {
		return err
	}

	if s.feePayments != nil {
		if err = s.feePayments.Put(ctx, records); err != nil {
			return err
		}
	}

	s.publishEvent(ctx, spi.FeePaymentReconciled, did, "")
	s.metrics.FeePaymentReconcileTime(time.Since(start))

	logger.Infoc(ctx, "reconciled fee payment",
		logfields.WithTxHash(tx.Hash), logfields.WithNetwork(network))

	return nil
}

func (s *Service) decryptInPlace(doc *statuslistapi.Document, key []byte) error {
	ciphertext, err := base64.StdEncoding.DecodeString(doc.EncodedList)
	if err != nil {
		return fmt.Errorf("%w: encrypted list payload is not base64", statuslistapi.ErrValidation)
	}

	plaintext, err := s.encryption.Decrypt(ciphertext, key, doc.PaymentConditions)
	if err != nil {
		return err
	}

	doc.EncodedList = string(plaintext)
	doc.Encrypted = false

	return nil
}

func (s *Service) encryptInPlace(doc *statuslistapi.Document, key []byte) error {
	ciphertext, err := s.encryption.Encrypt([]byte(doc.EncodedList), key, doc.PaymentConditions)
	if err != nil {
		return err
	}

	doc.EncodedList = base64.StdEncoding.EncodeToString(ciphertext)
	doc.Encrypted = true

	return nil
}

func (s *Service) resolveHeadDocument(ctx context.Context, issuerDID, name,
	resourceType string) (*statuslistapi.Document, *resource.Metadata, error) {
	if s.headCache != nil {
		entry, err := s.headCache.Get(ctx, issuerDID, name)
		if err != nil {
			logger.Warnc(ctx, "head cache read failed", log.WithError(err))
		}

		if entry != nil && entry.Metadata != nil && entry.Metadata.ResourceType == resourceType {
			if doc, parseErr := statuslistapi.ParsePayload(entry.Payload); parseErr == nil {
				return doc, entry.Metadata, nil
			}
		}
	}

	head, err := s.chain.ResolveHead(ctx, issuerDID, name, resourceType)
	if err != nil {
		return nil, nil, err
	}

	payload, err := s.resources.DereferenceResource(ctx, issuerDID, head.ResourceID)
	if err != nil {
		return nil, nil, err
	}

	doc, err := statuslistapi.ParsePayload(payload)
	if err != nil {
		return nil, nil, err
	}

	if s.headCache != nil {
		if err = s.headCache.Put(ctx, issuerDID, name,
			&headcache.Entry{Metadata: head, Payload: payload}, doc.TTL); err != nil {
			logger.Warnc(ctx, "head cache write failed", log.WithError(err))
		}
	}

	return doc, head, nil
}

func (s *Service) invalidateHead(ctx context.Context, issuerDID, name string) {
	if s.headCache == nil {
		return
	}

	if err := s.headCache.Invalidate(ctx, issuerDID, name); err != nil {
		logger.Warnc(ctx, "head cache invalidate failed", log.WithError(err))
	}
}

func (s *Service) publishEvent(ctx context.Context, eventType spi.EventType, issuerDID, name string) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, &spi.Event{
		ID:             uuid.NewString(),
		Source:         eventSource,
		Type:           eventType,
		Time:           time.Now().UTC(),
		IssuerDID:      issuerDID,
		StatusListName: name,
	})
}
