// Package geocode normalizes free-text Austrian addresses through an external
// geocoding service. Normalization is an optimization for the registry
// search, not a requirement: every failure path reports "no normalization
// available" and the caller falls back to the raw order fields.
package geocode

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalization is the canonical form of an order address.
type Normalization struct {
	Street       string
	HouseNumber  string
	Town         string
	FederalState string
	// LocalityOnly is true when the geocoder found a named locality but no
	// resolvable street, i.e. the address is rural or unstructured. The
	// resolver upgrades to the extended search product in that case.
	LocalityOnly bool
}

// Query carries the raw address fields from the order.
type Query struct {
	Street      string
	HouseNumber string
	PostalCode  string
	Town        string
}

// Normalizer calls the geocoding service. One outbound GET per call, no
// retries; the per-call deadline comes from the injected client.
type Normalizer struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

func New(baseURL string, client *http.Client, log *slog.Logger) *Normalizer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Normalizer{baseURL: baseURL, client: client, log: log}
}

// geocodeResult mirrors the subset of the geocoder response we read.
type geocodeResult struct {
	Address struct {
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
		Village     string `json:"village"`
		Town        string `json:"town"`
		City        string `json:"city"`
		Hamlet      string `json:"hamlet"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

// Normalize resolves the query against the geocoder. ok is false when no
// normalization is available for any reason; it never returns an error
// because the caller always has the raw fields to fall back on.
func (n *Normalizer) Normalize(ctx context.Context, q Query) (Normalization, bool) {
	freeText := buildFreeText(q)
	if freeText == "" {
		return Normalization{}, false
	}

	params := url.Values{}
	params.Set("q", freeText)
	params.Set("format", "jsonv2")
	params.Set("countrycodes", "at")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Normalization{}, false
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn("geocoder unavailable, falling back to raw address", "error", err)
		return Normalization{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.log.Warn("geocoder returned non-200", "status", resp.StatusCode)
		return Normalization{}, false
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil || len(results) == 0 {
		return Normalization{}, false
	}

	addr := results[0].Address
	locality := firstNonEmpty(addr.Town, addr.City, addr.Village, addr.Hamlet)

	norm := Normalization{
		Town:         locality,
		FederalState: addr.State,
	}

	if addr.Road == "" {
		if locality == "" {
			return Normalization{}, false
		}
		norm.LocalityOnly = true
		return norm, true
	}

	norm.Street = titleCase(addr.Road)
	norm.HouseNumber = addr.HouseNumber
	if norm.HouseNumber == "" {
		norm.HouseNumber = q.HouseNumber
	}
	return norm, true
}

func buildFreeText(q Query) string {
	parts := make([]string, 0, 4)
	street := strings.TrimSpace(q.Street)
	if q.HouseNumber != "" {
		street = strings.TrimSpace(street + " " + q.HouseNumber)
	}
	for _, p := range []string{street, q.PostalCode, q.Town} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var streetCaser = cases.Title(language.German, cases.NoLower)

func titleCase(s string) string {
	return streetCaser.String(s)
}
