package fulfillment

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auszug/internal/artifact"
	"auszug/internal/audit"
	"auszug/internal/domain"
	"auszug/internal/fetch"
	"auszug/internal/fulfillment/store"
	"auszug/internal/notify"
	dErrors "auszug/pkg/domain-errors"
)

type stubResolver struct {
	folio domain.ResolvedFolio
	err   error
	calls int
}

func (r *stubResolver) Resolve(_ context.Context, order *domain.Order) (domain.ResolvedFolio, error) {
	r.calls++
	if r.err != nil {
		return domain.ResolvedFolio{}, r.err
	}
	order.RegistryArea = r.folio.RegistryArea
	order.FolioNumber = r.folio.FolioNumber
	order.RegistryAreaName = r.folio.RegistryAreaName
	return r.folio, nil
}

type stubFetcher struct {
	result fetch.Result
	err    error
}

func (f *stubFetcher) Fetch(context.Context, domain.ResolvedFolio, domain.ProductVariant, bool) (fetch.Result, error) {
	return f.result, f.err
}

type stubNotifier struct {
	deliveryErr error
	deliveries  [][]notify.Delivery
	opsSubjects []string
}

func (n *stubNotifier) SendDelivery(_ context.Context, _ *domain.Order, docs []notify.Delivery) error {
	if n.deliveryErr != nil {
		return n.deliveryErr
	}
	n.deliveries = append(n.deliveries, docs)
	return nil
}

func (n *stubNotifier) NotifyOps(_ context.Context, subject, _ string) {
	n.opsSubjects = append(n.opsSubjects, subject)
}

type fixture struct {
	orders   *store.MemoryOrderStore
	claims   *MemoryClaims
	resolver *stubResolver
	fetcher  *stubFetcher
	blobs    *artifact.MemoryStore
	ledger   *audit.Publisher
	notifier *stubNotifier
	service  *Service
}

var wienFolio = domain.ResolvedFolio{RegistryArea: "01004", FolioNumber: "1879", RegistryAreaName: "Innere Stadt"}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)

	f := &fixture{
		orders:   store.NewMemoryOrderStore(),
		claims:   NewMemoryClaims(),
		resolver: &stubResolver{folio: wienFolio},
		fetcher: &stubFetcher{result: fetch.Result{
			Documents:      []fetch.Document{{Variant: domain.VariantCurrent, PDF: []byte("pdf"), CostCents: 356}},
			TotalCostCents: 356,
		}},
		blobs:    artifact.NewMemoryStore(),
		ledger:   audit.NewPublisher(audit.NewMemoryStore(), log),
		notifier: &stubNotifier{},
	}
	f.service = NewService(f.orders, f.claims, f.resolver, f.fetcher,
		artifact.NewService(f.blobs), f.ledger, f.notifier, log, opts...)
	return f
}

func (f *fixture) seedOrder(t *testing.T, order domain.Order) uuid.UUID {
	t.Helper()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = "A-2025-0042"
	}
	if order.Status == "" {
		order.Status = domain.StatusOpen
	}
	require.NoError(t, f.orders.Save(context.Background(), &order))
	return order.ID
}

func (f *fixture) entries(t *testing.T, orderID uuid.UUID) []audit.Entry {
	t.Helper()
	entries, err := f.ledger.List(context.Background(), orderID)
	require.NoError(t, err)
	return entries
}

func kinds(entries []audit.Entry) []audit.Kind {
	out := make([]audit.Kind, len(entries))
	for i, e := range entries {
		out[i] = e.Kind
	}
	return out
}

func TestFulfillHappyPath(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedOrder(t, domain.Order{
		CustomerEmail:  "maria@example.at",
		Variant:        domain.VariantCurrent,
		Street:         "Kärntner Straße",
		HouseNumber:    "1",
		DigitalStorage: true,
	})

	result, err := f.service.Fulfill(context.Background(), orderID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "01004", result.RegistryArea)
	assert.Equal(t, "1879", result.FolioNumber)
	assert.Equal(t, int64(356), result.TotalCostCents)
	assert.Equal(t, 1, result.DocumentCount)
	assert.True(t, result.EmailSent)

	saved, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, saved.Status)
	require.Len(t, saved.Documents, 1)
	assert.Equal(t, "grundbuch_01004_1879_aktuell.pdf", saved.Documents[0].FileName)
	assert.True(t, saved.Documents[0].Visible)
	assert.Equal(t, 1, f.blobs.Len())

	entries := f.entries(t, orderID)
	assert.Equal(t, []audit.Kind{audit.KindFetch, audit.KindCost, audit.KindStatus, audit.KindNotify}, kinds(entries))
	assert.Equal(t, int64(356), audit.TotalCents(entries))
	assert.Equal(t, "GB_AKTUELL KG 01004 EZ 1879", entries[1].Message)

	require.Len(t, f.notifier.deliveries, 1)
	assert.Len(t, f.notifier.deliveries[0], 1)
	require.Len(t, f.notifier.opsSubjects, 1)
	assert.Contains(t, f.notifier.opsSubjects[0], "A-2025-0042")
}

func TestFulfillTerminalOrderIsRefused(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedOrder(t, domain.Order{Status: domain.StatusProcessed})

	_, err := f.service.Fulfill(context.Background(), orderID)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	assert.Zero(t, f.resolver.calls)
	assert.Empty(t, f.entries(t, orderID))

	saved, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, saved.Status)
}

func TestFulfillUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Fulfill(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFulfillResolveFailureRestoresStatus(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = dErrors.New(dErrors.CodeNoMatch, "address matched no folio")
	orderID := f.seedOrder(t, domain.Order{Street: "Nirgendwogasse"})

	result, err := f.service.Fulfill(context.Background(), orderID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNoMatch, dErrors.CodeOf(err))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	saved, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, saved.Status)
	assert.Empty(t, saved.Documents)

	entries := f.entries(t, orderID)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.KindFailure, entries[0].Kind)
	assert.Contains(t, entries[0].Message, "address matched no folio")
}

func TestFulfillPartialFetchStillProcesses(t *testing.T) {
	f := newFixture(t)
	f.fetcher.result = fetch.Result{
		Documents:      []fetch.Document{{Variant: domain.VariantCurrent, PDF: []byte("pdf"), CostCents: 356}},
		TotalCostCents: 356,
	}
	f.fetcher.err = dErrors.New(dErrors.CodeUpstream, "extract historical failed")
	orderID := f.seedOrder(t, domain.Order{Variant: domain.VariantCombined, Street: "x"})

	result, err := f.service.Fulfill(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.DocumentCount)

	saved, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, saved.Status)
	require.Len(t, saved.Documents, 1)

	// The failed half of the combined product stays visible as a ledger note.
	entries := f.entries(t, orderID)
	assert.Equal(t, []audit.Kind{audit.KindFetch, audit.KindCost, audit.KindFailure, audit.KindStatus, audit.KindNotify}, kinds(entries))
}

func TestFulfillTotalFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.fetcher.result = fetch.Result{}
	f.fetcher.err = dErrors.New(dErrors.CodeUpstream, "gateway down")
	orderID := f.seedOrder(t, domain.Order{Street: "x"})

	_, err := f.service.Fulfill(context.Background(), orderID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUpstream, dErrors.CodeOf(err))

	saved, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, saved.Status)

	// One failure entry from run, one from recordFailure.
	for _, e := range f.entries(t, orderID) {
		assert.Equal(t, audit.KindFailure, e.Kind)
	}
	assert.Empty(t, f.notifier.deliveries)
}

func TestFulfillClaimConflict(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedOrder(t, domain.Order{Street: "x"})

	held, err := f.claims.Acquire(context.Background(), orderID, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = f.service.Fulfill(context.Background(), orderID)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	assert.Zero(t, f.resolver.calls)
}

func TestFulfillReleasesClaimAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = dErrors.New(dErrors.CodeNoMatch, "no match")
	orderID := f.seedOrder(t, domain.Order{Street: "x"})

	_, err := f.service.Fulfill(context.Background(), orderID)
	require.Error(t, err)

	// A retry after the operator fixes the address must not hit the claim.
	f.resolver.err = nil
	_, err = f.service.Fulfill(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.resolver.calls)
}

func TestFulfillEmailFailureDoesNotRevert(t *testing.T) {
	f := newFixture(t)
	f.notifier.deliveryErr = errors.New("mail gateway down")
	orderID := f.seedOrder(t, domain.Order{Street: "x"})

	result, err := f.service.Fulfill(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.EmailSent)

	saved, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, saved.Status)

	// No notify entry: the failure lives in process logs only.
	assert.NotContains(t, kinds(f.entries(t, orderID)), audit.KindNotify)
}

func TestFulfillPersistsResolvedPairBeforeFetch(t *testing.T) {
	f := newFixture(t)
	f.fetcher.result = fetch.Result{}
	f.fetcher.err = dErrors.New(dErrors.CodeUpstream, "gateway down")
	orderID := f.seedOrder(t, domain.Order{Street: "Kärntner Straße"})

	_, err := f.service.Fulfill(context.Background(), orderID)
	require.Error(t, err)

	// The paid search result survives the fetch failure so a retry validates
	// instead of searching again.
	saved, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "01004", saved.RegistryArea)
	assert.Equal(t, "1879", saved.FolioNumber)
}
