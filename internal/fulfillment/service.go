// Package fulfillment owns the order pipeline: resolve the folio, purchase
// the documents, store them, update the order, notify the customer. It is
// the only writer of order status and documents.
package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"auszug/internal/audit"
	"auszug/internal/domain"
	"auszug/internal/fetch"
	"auszug/internal/fulfillment/metrics"
	"auszug/internal/fulfillment/store"
	"auszug/internal/notify"
	dErrors "auszug/pkg/domain-errors"
)

// DefaultClaimTTL bounds how long a crashed run can block an order. Every
// upstream call carries its own timeout, so a healthy run finishes well
// inside this window.
const DefaultClaimTTL = 5 * time.Minute

// Resolver confirms the order's KG/EZ pair.
type Resolver interface {
	Resolve(ctx context.Context, order *domain.Order) (domain.ResolvedFolio, error)
}

// Fetcher purchases and decodes the extracts.
type Fetcher interface {
	Fetch(ctx context.Context, folio domain.ResolvedFolio, variant domain.ProductVariant, signed bool) (fetch.Result, error)
}

// Artifacts stores fetched documents durably.
type Artifacts interface {
	Save(ctx context.Context, orderNumber string, folio domain.ResolvedFolio, variant domain.ProductVariant, signed bool, pdf []byte, visible bool) (domain.StoredArtifact, error)
}

// Notifier delivers customer and ops mail.
type Notifier interface {
	SendDelivery(ctx context.Context, order *domain.Order, docs []notify.Delivery) error
	NotifyOps(ctx context.Context, subject, body string)
}

// Result is the fulfillment outcome exposed to the admin collaborator.
type Result struct {
	Success        bool   `json:"success"`
	RegistryArea   string `json:"registryArea,omitempty"`
	FolioNumber    string `json:"folioNumber,omitempty"`
	TotalCostCents int64  `json:"totalCost"`
	DocumentCount  int    `json:"documentCount"`
	EmailSent      bool   `json:"emailSent"`
	Error          string `json:"error,omitempty"`
}

type Service struct {
	orders    store.OrderStore
	claims    ClaimStore
	resolver  Resolver
	fetcher   Fetcher
	artifacts Artifacts
	ledger    *audit.Publisher
	notifier  Notifier
	metrics   *metrics.Metrics
	log       *slog.Logger
	tracer    trace.Tracer
	claimTTL  time.Duration
}

type Option func(*Service)

// WithMetrics attaches the Prometheus metrics. Nil-safe in the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClaimTTL overrides the claim expiry, mainly for tests.
func WithClaimTTL(ttl time.Duration) Option {
	return func(s *Service) { s.claimTTL = ttl }
}

func NewService(orders store.OrderStore, claims ClaimStore, resolver Resolver, fetcher Fetcher, artifacts Artifacts, ledger *audit.Publisher, notifier Notifier, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		orders:    orders,
		claims:    claims,
		resolver:  resolver,
		fetcher:   fetcher,
		artifacts: artifacts,
		ledger:    ledger,
		notifier:  notifier,
		log:       log,
		tracer:    otel.Tracer("auszug/fulfillment"),
		claimTTL:  DefaultClaimTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fulfill runs the whole pipeline for one order. Terminal orders are refused
// as a logged no-op. Any failure before the order reaches processed leaves
// its status unchanged and appends a failure note so operators see the order
// as needing attention; nothing is ever rolled back, because already-billed
// upstream calls and stored artifacts cannot be undone.
func (s *Service) Fulfill(ctx context.Context, orderID uuid.UUID) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.Fulfill")
	defer span.End()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Result{}, err
	}

	if order.Status.Terminal() {
		s.log.Info("refusing fulfillment, order already terminal",
			"order", order.OrderNumber, "status", order.Status)
		return Result{}, dErrors.Newf(dErrors.CodeConflict,
			"order %s is already %s", order.OrderNumber, order.Status)
	}

	acquired, err := s.claims.Acquire(ctx, orderID, s.claimTTL)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "acquire fulfillment claim")
	}
	if !acquired {
		return Result{}, dErrors.Newf(dErrors.CodeConflict,
			"another fulfillment run holds the claim for order %s", order.OrderNumber)
	}
	defer func() {
		if err := s.claims.Release(context.WithoutCancel(ctx), orderID); err != nil {
			s.log.Warn("release fulfillment claim", "order", order.OrderNumber, "error", err)
		}
	}()

	previous := order.Status
	order.Status = domain.StatusProcessing
	if err := s.orders.Save(ctx, order); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "mark order processing")
	}

	result, err := s.run(ctx, order)
	if err != nil {
		s.recordFailure(ctx, order, previous, err)
		result.Error = err.Error()
		return result, err
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, order *domain.Order) (Result, error) {
	resolveCtx, resolveSpan := s.tracer.Start(ctx, "fulfillment.resolve")
	folio, err := s.resolver.Resolve(resolveCtx, order)
	resolveSpan.End()
	if err != nil {
		s.metrics.RecordFailure("resolve")
		return Result{}, err
	}

	// Persist the resolved pair immediately so a retried run validates
	// instead of searching (and paying) again.
	if err := s.orders.Save(ctx, order); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist resolved folio")
	}

	fetchCtx, fetchSpan := s.tracer.Start(ctx, "fulfillment.fetch")
	fetched, fetchErr := s.fetcher.Fetch(fetchCtx, folio, order.Variant, order.Signed)
	fetchSpan.End()

	deliveries := make([]notify.Delivery, 0, len(fetched.Documents))
	var storeErr error
	for _, doc := range fetched.Documents {
		art, err := s.artifacts.Save(ctx, order.OrderNumber, folio, doc.Variant, doc.Signed, doc.PDF, order.DigitalStorage)
		if err != nil {
			// Earlier artifacts in the same run stay: each represents a
			// billed, non-refundable upstream transaction.
			storeErr = err
			s.metrics.RecordFailure("store")
			break
		}
		order.Documents = append(order.Documents, art)
		deliveries = append(deliveries, notify.Delivery{FileName: art.FileName, PDF: doc.PDF})

		s.emit(ctx, order.ID, audit.Entry{
			Kind:    audit.KindFetch,
			Message: fmt.Sprintf("retrieved %s (%d bytes)", art.FileName, art.Size),
		})
		s.emit(ctx, order.ID, audit.Entry{
			Kind:        audit.KindCost,
			Message:     costMessage(folio, doc),
			AmountCents: doc.CostCents,
		})
		s.metrics.RecordExtract(doc.CostCents)
	}

	if fetchErr != nil {
		s.metrics.RecordFailure("fetch")
		s.emit(ctx, order.ID, audit.Entry{Kind: audit.KindFailure, Message: fetchErr.Error()})
	}
	if storeErr != nil {
		s.emit(ctx, order.ID, audit.Entry{Kind: audit.KindFailure, Message: storeErr.Error()})
	}

	if len(deliveries) == 0 {
		if fetchErr != nil {
			return Result{}, fetchErr
		}
		return Result{}, storeErr
	}

	// At least one document was stored and billed, so the order advances even
	// when a later fetch or store failed; the failure note keeps the gap
	// visible to operators.
	order.Status = domain.StatusProcessed
	s.emit(ctx, order.ID, audit.Entry{Kind: audit.KindStatus, Message: "order processed"})
	if err := s.orders.Save(ctx, order); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist processed order")
	}
	s.metrics.RecordProcessed()

	emailErr := s.notifier.SendDelivery(ctx, order, deliveries)
	if emailErr != nil {
		// The document is already the customer's; notification failures go
		// to process logs only and never revert the status.
		s.metrics.RecordFailure("notify")
		s.log.Error("delivery mail failed", "order", order.OrderNumber, "error", emailErr)
	} else {
		s.emit(ctx, order.ID, audit.Entry{Kind: audit.KindNotify, Message: "delivery email sent"})
	}

	s.notifier.NotifyOps(ctx,
		fmt.Sprintf("Bestellung %s verarbeitet", order.OrderNumber),
		fmt.Sprintf("KG %s EZ %s, %d Dokument(e), %d Cent", order.RegistryArea, order.FolioNumber,
			len(order.Documents), fetched.TotalCostCents),
	)

	return Result{
		Success:        true,
		RegistryArea:   order.RegistryArea,
		FolioNumber:    order.FolioNumber,
		TotalCostCents: fetched.TotalCostCents,
		DocumentCount:  len(deliveries),
		EmailSent:      emailErr == nil,
	}, nil
}

// recordFailure appends the failure note and restores the pre-run status so
// the order stays actionable. Both writes are best-effort: a failing note
// write must not mask the original error.
func (s *Service) recordFailure(ctx context.Context, order *domain.Order, previous domain.OrderStatus, cause error) {
	ctx = context.WithoutCancel(ctx)
	s.emit(ctx, order.ID, audit.Entry{Kind: audit.KindFailure, Message: cause.Error()})

	order.Status = previous
	if err := s.orders.Save(ctx, order); err != nil {
		s.log.Error("restore order status after failure", "order", order.OrderNumber, "error", err)
	}
}

// emit writes a ledger entry, logging instead of failing when the ledger
// itself is unavailable.
func (s *Service) emit(ctx context.Context, orderID uuid.UUID, entry audit.Entry) {
	if err := s.ledger.Emit(ctx, orderID, entry); err != nil {
		s.log.Error("append audit entry", "order_id", orderID, "kind", entry.Kind, "error", err)
	}
}

func costMessage(folio domain.ResolvedFolio, doc fetch.Document) string {
	code := "GB_AKTUELL"
	if doc.Variant == domain.VariantHistorical {
		code = "GB_HIST"
	}
	msg := fmt.Sprintf("%s KG %s EZ %s", code, folio.RegistryArea, folio.FolioNumber)
	if doc.Signed {
		msg += " signiert"
	}
	return msg
}
