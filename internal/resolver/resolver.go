// Package resolver turns an order's address and identifier data into a
// confirmed (registry area, folio number) pair. It chooses between direct
// validation and address search, and between the standard and the
// extended/fuzzy search product.
package resolver

import (
	"context"
	"log/slog"

	"auszug/internal/domain"
	"auszug/internal/gateway"
	"auszug/internal/geocode"
	dErrors "auszug/pkg/domain-errors"
)

// Normalizer is the geocoding collaborator. A false ok means no
// normalization is available and the raw order fields are used instead.
type Normalizer interface {
	Normalize(ctx context.Context, q geocode.Query) (geocode.Normalization, bool)
}

// Gateway is the subset of the registry gateway the resolver needs.
type Gateway interface {
	ValidateFolio(ctx context.Context, registryArea, folioNumber string) error
	SearchByAddress(ctx context.Context, req gateway.SearchRequest) (string, error)
}

// MatchParser extracts typed search hits from a raw result document.
type MatchParser interface {
	Matches(raw string) ([]gateway.Match, error)
}

type Resolver struct {
	normalizer Normalizer
	gateway    Gateway
	parser     MatchParser
	log        *slog.Logger
}

func New(normalizer Normalizer, gw Gateway, parser MatchParser, log *slog.Logger) *Resolver {
	return &Resolver{normalizer: normalizer, gateway: gw, parser: parser, log: log}
}

// Resolve confirms the order's KG/EZ pair, mutating the order's identifier
// fields in place. The caller persists the order afterwards so a retried run
// never re-resolves.
//
// A pre-known pair that fails validation is cleared and the resolver falls
// through to address search exactly once. Validation failure is never fatal
// on its own; it only means "try search next". The original pair is not
// restored if the search also fails.
func (r *Resolver) Resolve(ctx context.Context, order *domain.Order) (domain.ResolvedFolio, error) {
	if order.HasFolio() {
		err := r.gateway.ValidateFolio(ctx, order.RegistryArea, order.FolioNumber)
		if err == nil {
			return domain.ResolvedFolio{
				RegistryArea:     order.RegistryArea,
				FolioNumber:      order.FolioNumber,
				RegistryAreaName: order.RegistryAreaName,
			}, nil
		}
		r.log.Info("known KG/EZ pair failed validation, falling back to address search",
			"order", order.OrderNumber,
			"registry_area", order.RegistryArea,
			"folio_number", order.FolioNumber,
			"error", err,
		)
		order.RegistryArea = ""
		order.FolioNumber = ""
		order.RegistryAreaName = ""
	}

	if !order.HasAddress() {
		return domain.ResolvedFolio{}, dErrors.New(dErrors.CodeInsufficientInput,
			"order has neither a registry identifier nor an address to search with")
	}

	raw, err := r.search(ctx, order)
	if err != nil {
		return domain.ResolvedFolio{}, err
	}

	matches, err := r.parser.Matches(raw)
	if err != nil {
		return domain.ResolvedFolio{}, dErrors.Wrap(err, dErrors.CodeMalformedResponse,
			"unreadable search result document")
	}
	if len(matches) == 0 {
		return domain.ResolvedFolio{}, dErrors.New(dErrors.CodeNoMatch,
			"address search returned no registry matches")
	}

	// Upstream ranks by relevance, first hit wins.
	best := matches[0]
	resolved := domain.ResolvedFolio{
		RegistryArea:     best.RegistryArea,
		FolioNumber:      best.FolioNumber,
		RegistryAreaName: best.RegistryAreaName,
	}
	order.RegistryArea = resolved.RegistryArea
	order.FolioNumber = resolved.FolioNumber
	order.RegistryAreaName = resolved.RegistryAreaName

	r.log.Info("resolved order to registry folio",
		"order", order.OrderNumber,
		"registry_area", resolved.RegistryArea,
		"folio_number", resolved.FolioNumber,
		"matches", len(matches),
	)
	return resolved, nil
}

// search picks the search product. Geocoding is best-effort: when it is
// unavailable the raw order fields go out as-is, with no fuzzy upgrade.
func (r *Resolver) search(ctx context.Context, order *domain.Order) (string, error) {
	norm, ok := r.normalizer.Normalize(ctx, geocode.Query{
		Street:      order.Street,
		HouseNumber: order.HouseNumber,
		PostalCode:  order.PostalCode,
		Town:        order.Town,
	})
	if !ok {
		return r.gateway.SearchByAddress(ctx, gateway.SearchRequest{
			Street:       order.Street,
			HouseNumber:  order.HouseNumber,
			PostalCode:   order.PostalCode,
			Town:         order.Town,
			FederalState: order.FederalState,
			Extended:     false,
		})
	}

	if norm.LocalityOnly {
		// The fuzzy product expects the locality in both the street and the
		// town field.
		return r.gateway.SearchByAddress(ctx, gateway.SearchRequest{
			Street:       norm.Town,
			HouseNumber:  order.HouseNumber,
			PostalCode:   order.PostalCode,
			Town:         norm.Town,
			FederalState: firstNonEmpty(norm.FederalState, order.FederalState),
			Extended:     true,
		})
	}

	return r.gateway.SearchByAddress(ctx, gateway.SearchRequest{
		Street:       norm.Street,
		HouseNumber:  firstNonEmpty(norm.HouseNumber, order.HouseNumber),
		PostalCode:   order.PostalCode,
		Town:         firstNonEmpty(norm.Town, order.Town),
		FederalState: firstNonEmpty(norm.FederalState, order.FederalState),
		Extended:     false,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
