// Package gateway is the thin HTTP client over the metered land-registry
// gateway. Every operation is a single POST with a shared
// {success, data, error} envelope. Callers must not assume idempotency: a
// failed ExtractDocument may still have been billed upstream, so nothing in
// this package retries automatically.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	dErrors "auszug/pkg/domain-errors"
)

// UpstreamError reports an HTTP-level or envelope-level gateway failure.
// Envelope failures carry the HTTP status of the response that delivered
// them (usually 200).
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("registry gateway [%d]: %s", e.Status, e.Message)
}

// Client talks to the registry gateway. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

func NewClient(baseURL, apiKey string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, client: httpClient, log: log}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// SearchRequest describes an address search. Extended requests the
// fuzzy/locality-tolerant search product, which is priced differently
// upstream.
type SearchRequest struct {
	Street       string `json:"street"`
	HouseNumber  string `json:"houseNumber,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Town         string `json:"town,omitempty"`
	FederalState string `json:"federalState,omitempty"`
	Extended     bool   `json:"extended"`
}

// ExtractRequest identifies one document to purchase.
type ExtractRequest struct {
	RegistryArea string `json:"registryArea"`
	FolioNumber  string `json:"folioNumber"`
	Historical   bool   `json:"historical"`
	Signed       bool   `json:"signed"`
}

// ExtractResult carries the billed gross cost and the raw decoded response
// the PDF payload is extracted from.
type ExtractResult struct {
	CostCents int64
	Raw       string
}

// ValidateFolio checks that a KG/EZ pair exists. A gateway envelope failure
// means the pair is unknown and surfaces as CodeNotFound; transport failures
// stay UpstreamError so callers can tell outage from absence.
func (c *Client) ValidateFolio(ctx context.Context, registryArea, folioNumber string) error {
	body := map[string]string{
		"registryArea": registryArea,
		"folioNumber":  folioNumber,
	}
	_, err := c.post(ctx, "/validate", body)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusOK {
			return dErrors.Wrap(err, dErrors.CodeNotFound,
				fmt.Sprintf("KG %s EZ %s not found", registryArea, folioNumber))
		}
		return err
	}
	return nil
}

type searchData struct {
	ResponseDecoded string `json:"responseDecoded"`
}

// SearchByAddress runs a standard or extended address search and returns the
// raw decoded result document. Match extraction is the parser's job.
func (c *Client) SearchByAddress(ctx context.Context, req SearchRequest) (string, error) {
	data, err := c.post(ctx, "/search", req)
	if err != nil {
		return "", err
	}
	var payload searchData
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", &UpstreamError{Status: http.StatusOK, Message: "unreadable search payload"}
	}
	return payload.ResponseDecoded, nil
}

type extractData struct {
	ResponseDecoded string  `json:"responseDecoded"`
	Cost            float64 `json:"cost"`
}

// ExtractDocument purchases one extract. Every call is potentially billed,
// including failed ones; callers decide whether a retry is worth the cost.
func (c *Client) ExtractDocument(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	data, err := c.post(ctx, "/extract", req)
	if err != nil {
		return ExtractResult{}, err
	}
	var payload extractData
	if err := json.Unmarshal(data, &payload); err != nil {
		return ExtractResult{}, &UpstreamError{Status: http.StatusOK, Message: "unreadable extract payload"}
	}
	return ExtractResult{
		CostCents: int64(math.Round(payload.Cost * 100)),
		Raw:       payload.ResponseDecoded,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "read gateway response: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("gateway request failed", "path", path, "status", resp.StatusCode)
		return nil, &UpstreamError{Status: resp.StatusCode, Message: string(truncate(raw, 512))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "invalid gateway envelope"}
	}
	if !env.Success {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: env.Error}
	}
	return env.Data, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
