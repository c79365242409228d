// Package artifact persists retrieved registry documents to object storage
// and produces the addressable references that go onto the order.
package artifact

import (
	"context"
	"fmt"
	"time"

	"auszug/internal/domain"
	dErrors "auszug/pkg/domain-errors"
)

// PDFContentType is the only media type this pipeline stores.
const PDFContentType = "application/pdf"

// Store uploads a blob to durable object storage and returns its retrieval
// URL. Implementations: HTTPStore for the hosted bucket, MemoryStore for
// tests.
type Store interface {
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// Service names and stores documents. The file name encodes KG/EZ, the
// variant and the signature flag so operators can identify a document from
// the listing alone.
type Service struct {
	store Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock fixes the timestamp source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileName builds the customer-visible document name, e.g.
// grundbuch_01004_1879_aktuell.pdf or grundbuch_01004_1879_historisch_signiert.pdf.
func FileName(folio domain.ResolvedFolio, variant domain.ProductVariant, signed bool) string {
	suffix := "aktuell"
	if variant == domain.VariantHistorical {
		suffix = "historisch"
	}
	if signed {
		suffix += "_signiert"
	}
	return fmt.Sprintf("grundbuch_%s_%s_%s.pdf", folio.RegistryArea, folio.FolioNumber, suffix)
}

// Save uploads one PDF under {orderNumber}/{unixMillis}_{fileName} and
// returns the immutable stored-artifact reference.
func (s *Service) Save(ctx context.Context, orderNumber string, folio domain.ResolvedFolio, variant domain.ProductVariant, signed bool, pdf []byte, visible bool) (domain.StoredArtifact, error) {
	addedAt := s.now()
	fileName := FileName(folio, variant, signed)
	path := fmt.Sprintf("%s/%d_%s", orderNumber, addedAt.UnixMilli(), fileName)

	url, err := s.store.Put(ctx, path, PDFContentType, pdf)
	if err != nil {
		return domain.StoredArtifact{}, dErrors.Wrap(err, dErrors.CodeStorage,
			"store document "+fileName)
	}

	return domain.StoredArtifact{
		FileName:    fileName,
		Path:        path,
		URL:         url,
		Size:        int64(len(pdf)),
		ContentType: PDFContentType,
		Visible:     visible,
		AddedAt:     addedAt,
	}, nil
}
