// Package fetch purchases registry extracts for a resolved folio and decodes
// the embedded PDF payloads.
package fetch

import (
	"context"
	"log/slog"

	"auszug/internal/domain"
	"auszug/internal/gateway"
	dErrors "auszug/pkg/domain-errors"
)

// Gateway is the extract operation of the registry gateway.
type Gateway interface {
	ExtractDocument(ctx context.Context, req gateway.ExtractRequest) (gateway.ExtractResult, error)
}

// PayloadParser pulls the base64 PDF blob out of a raw extract response.
type PayloadParser interface {
	Payload(raw string) ([]byte, bool, error)
}

// Document is one successfully fetched and decoded extract.
type Document struct {
	Variant   domain.ProductVariant
	Signed    bool
	PDF       []byte
	CostCents int64
}

// Result aggregates fetched documents and their summed gross cost. On error
// it still carries every document fetched before the failure: each one is a
// billed, non-refundable upstream transaction and must not be discarded.
type Result struct {
	Documents      []Document
	TotalCostCents int64
}

type Fetcher struct {
	gateway Gateway
	parser  PayloadParser
	log     *slog.Logger
}

func New(gw Gateway, parser PayloadParser, log *slog.Logger) *Fetcher {
	return &Fetcher{gateway: gw, parser: parser, log: log}
}

// variantsFor expands the purchased product into individual extract requests.
func variantsFor(variant domain.ProductVariant) []domain.ProductVariant {
	switch variant {
	case domain.VariantCombined:
		return []domain.ProductVariant{domain.VariantCurrent, domain.VariantHistorical}
	case domain.VariantHistorical:
		return []domain.ProductVariant{domain.VariantHistorical}
	default:
		return []domain.ProductVariant{domain.VariantCurrent}
	}
}

// Fetch retrieves one extract per requested variant, failing fast on the
// first error. Callers always receive the partial Result alongside the error.
func (f *Fetcher) Fetch(ctx context.Context, folio domain.ResolvedFolio, variant domain.ProductVariant, signed bool) (Result, error) {
	var result Result

	for _, v := range variantsFor(variant) {
		extract, err := f.gateway.ExtractDocument(ctx, gateway.ExtractRequest{
			RegistryArea: folio.RegistryArea,
			FolioNumber:  folio.FolioNumber,
			Historical:   v == domain.VariantHistorical,
			Signed:       signed,
		})
		if err != nil {
			return result, dErrors.Wrap(err, dErrors.CodeUpstream, "extract "+string(v)+" failed")
		}

		pdf, found, err := f.parser.Payload(extract.Raw)
		if err != nil || !found {
			// A success envelope without a payload is a data-quality defect
			// on the upstream side, not a transport failure.
			return result, dErrors.Wrap(errOrMissing(err), dErrors.CodeMalformedResponse,
				"extract "+string(v)+" returned no document payload")
		}

		result.Documents = append(result.Documents, Document{
			Variant:   v,
			Signed:    signed,
			PDF:       pdf,
			CostCents: extract.CostCents,
		})
		result.TotalCostCents += extract.CostCents

		f.log.Info("fetched registry extract",
			"registry_area", folio.RegistryArea,
			"folio_number", folio.FolioNumber,
			"variant", v,
			"signed", signed,
			"size", len(pdf),
			"cost_cents", extract.CostCents,
		)
	}

	return result, nil
}

func errOrMissing(err error) error {
	if err != nil {
		return err
	}
	return dErrors.New(dErrors.CodeMalformedResponse, "payload tag missing")
}
