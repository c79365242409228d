package domain

import (
	"time"

	"github.com/google/uuid"

	dErrors "auszug/pkg/domain-errors"
)

// ProductVariant identifies which registry extract the customer purchased.
// Invariant: the value must be one of the supported variants.
//
// Usage: construct via ParseProductVariant at trust boundaries to enforce
// the allowlist; direct casting bypasses validation.
type ProductVariant string

const (
	VariantCurrent    ProductVariant = "current"
	VariantHistorical ProductVariant = "historical"
	VariantCombined   ProductVariant = "combined"
)

var validVariants = map[ProductVariant]bool{
	VariantCurrent:    true,
	VariantHistorical: true,
	VariantCombined:   true,
}

// ParseProductVariant constructs a ProductVariant from external input.
func ParseProductVariant(raw string) (ProductVariant, error) {
	v := ProductVariant(raw)
	if !validVariants[v] {
		return "", dErrors.Newf(dErrors.CodeInternal, "unknown product variant %q", raw)
	}
	return v, nil
}

// OrderStatus is the order lifecycle state. The pipeline only ever drives the
// forward edge into StatusProcessed; the other terminal states are reached
// through explicit operator action.
type OrderStatus string

const (
	StatusOpen             OrderStatus = "open"
	StatusProcessing       OrderStatus = "processing"
	StatusProcessed        OrderStatus = "processed"
	StatusAwaitingCustomer OrderStatus = "awaiting_customer"
	StatusCancelled        OrderStatus = "cancelled"
	StatusDeleted          OrderStatus = "deleted"
)

var validStatuses = map[OrderStatus]bool{
	StatusOpen:             true,
	StatusProcessing:       true,
	StatusProcessed:        true,
	StatusAwaitingCustomer: true,
	StatusCancelled:        true,
	StatusDeleted:          true,
}

// ParseOrderStatus constructs an OrderStatus from external input.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !validStatuses[s] {
		return "", dErrors.Newf(dErrors.CodeInternal, "unknown order status %q", raw)
	}
	return s, nil
}

// Terminal reports whether fulfillment must refuse to touch the order again.
func (s OrderStatus) Terminal() bool {
	return s == StatusProcessed || s == StatusCancelled || s == StatusDeleted
}

// StoredArtifact is one retrieved registry document. Created exactly once per
// successful extract call and immutable afterwards.
type StoredArtifact struct {
	FileName    string    `json:"file_name"`
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Visible     bool      `json:"visible"`
	AddedAt     time.Time `json:"added_at"`
}

// ResolvedFolio is the confirmed (registry area, folio number) pair produced
// by resolution. Transient: it is folded back onto the order on success and
// never persisted on its own.
type ResolvedFolio struct {
	RegistryArea     string
	FolioNumber      string
	RegistryAreaName string
}

// Order is the unit of work for the fulfillment pipeline. The pipeline is the
// only writer of Status and Documents; admin and reporting collaborators read.
type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	CustomerName  string
	CustomerEmail string

	Variant ProductVariant
	Signed  bool
	// DigitalStorage controls whether stored documents stay visible to the
	// customer after delivery.
	DigitalStorage bool

	Street       string
	HouseNumber  string
	PostalCode   string
	Town         string
	FederalState string

	RegistryArea     string
	FolioNumber      string
	RegistryAreaName string

	Status    OrderStatus
	Documents []StoredArtifact

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasFolio reports whether the order already carries a complete KG/EZ pair.
func (o *Order) HasFolio() bool {
	return o.RegistryArea != "" && o.FolioNumber != ""
}

// HasAddress reports whether the order carries enough address data for a
// registry search. The upstream accepts a lone house number in rural areas.
func (o *Order) HasAddress() bool {
	return o.Street != "" || o.HouseNumber != ""
}
