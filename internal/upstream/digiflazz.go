// Package upstream implements the Digiflazz reseller protocol: price-list
// retrieval, SKU matching, and top-up submission keyed by a caller-chosen
// idempotency reference.
package upstream

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ppob-service/internal/resilience"
	"ppob-service/internal/util"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrSKUNotFound is returned by FindSKU when no remote product matches.
var ErrSKUNotFound = errors.New("upstream: no matching sku")

// RawProduct is one entry of the reseller price list.
type RawProduct struct {
	BuyerSKUCode string `json:"buyer_sku_code"`
	ProductName  string `json:"product_name"`
	Category     string `json:"category"`
	Brand        string `json:"brand"`
	Type         string `json:"type"`
	Price        int64  `json:"price"`
	Status       string `json:"status"`
}

// TopupResult is the reseller's answer to a top-up submission or status
// check.
type TopupResult struct {
	RefID        string `json:"ref_id"`
	Status       string `json:"status"`
	CustomerNo   string `json:"customer_no"`
	BuyerSKUCode string `json:"buyer_sku_code"`
	Message      string `json:"message"`
	SerialNumber string `json:"sn,omitempty"`
}

// Reseller statuses
const (
	TopupStatusSuccess = "Sukses"
	TopupStatusPending = "Pending"
	TopupStatusFailed  = "Gagal"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	retryCfg   resilience.Config
	logger     *zap.Logger
}

// NewClient creates a Digiflazz client
func NewClient(baseURL, username, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		username:   username,
		apiKey:     apiKey,
		cb:         resilience.NewCircuitBreaker("digiflazz"),
		retryCfg:   resilience.DefaultConfig,
		logger:     util.GetLogger(),
	}
}

// sign computes the request signature: md5(username + apiKey + refID).
func (c *Client) sign(refID string) string {
	sum := md5.Sum([]byte(c.username + c.apiKey + refID))
	return hex.EncodeToString(sum[:])
}

// FetchCatalog retrieves the prepaid price list. Callers treat an error as
// "no products from upstream this cycle"; catalog sync keeps serving the
// previous generation.
func (c *Client) FetchCatalog(ctx context.Context) ([]RawProduct, error) {
	ctx, span := util.StartSpan(ctx, "upstream.FetchCatalog")
	defer span.End()

	start := time.Now()
	defer func() {
		util.UpstreamRequestLatency.WithLabelValues("price_list").Observe(time.Since(start).Seconds())
	}()

	payload := map[string]interface{}{
		"cmd":      "prepaid",
		"username": c.username,
		"sign":     c.sign("pricelist"),
	}

	var envelope struct {
		Data []RawProduct `json:"data"`
	}
	if err := c.post(ctx, "/price-list", payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch price list: %w", err)
	}

	return envelope.Data, nil
}

// FindSKU matches (category, provider, amount) against the live remote
// catalog. Exact price match wins; otherwise the closest price within the
// filtered set is used, ties going to the first entry in catalog order.
func (c *Client) FindSKU(ctx context.Context, category, provider string, amount int64) (*RawProduct, error) {
	ctx, span := util.StartSpan(ctx, "upstream.FindSKU")
	defer span.End()

	catalog, err := c.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	return matchSKU(catalog, category, provider, amount)
}

// matchSKU is the pure matching step, split out for tests.
func matchSKU(catalog []RawProduct, category, provider string, amount int64) (*RawProduct, error) {
	var candidates []RawProduct
	for _, p := range catalog {
		if p.Status != "available" {
			continue
		}
		if MapCategory(p.Category) != category {
			continue
		}
		if MapBrand(p.Brand) != provider {
			continue
		}
		candidates = append(candidates, p)
	}

	if len(candidates) == 0 {
		return nil, ErrSKUNotFound
	}

	best := -1
	var bestDiff int64
	for i := range candidates {
		if candidates[i].Price == amount {
			return &candidates[i], nil
		}
		diff := candidates[i].Price - amount
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	return &candidates[best], nil
}

// SubmitTopup places the actual order with the reseller. The reseller
// deduplicates by refID, so retries for the same transaction must always
// pass the same refID to avoid double fulfillment.
func (c *Client) SubmitTopup(ctx context.Context, skuCode, customerNo, refID string) (*TopupResult, error) {
	ctx, span := util.StartSpan(ctx, "upstream.SubmitTopup")
	defer span.End()

	start := time.Now()
	defer func() {
		util.UpstreamRequestLatency.WithLabelValues("topup").Observe(time.Since(start).Seconds())
	}()

	payload := map[string]interface{}{
		"username":       c.username,
		"buyer_sku_code": skuCode,
		"customer_no":    customerNo,
		"ref_id":         refID,
		"sign":           c.sign(refID),
	}

	var envelope struct {
		Data TopupResult `json:"data"`
	}
	if err := c.post(ctx, "/transaction", payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to submit topup: %w", err)
	}

	if envelope.Data.Status == TopupStatusFailed {
		return &envelope.Data, fmt.Errorf("topup rejected: %s", envelope.Data.Message)
	}

	return &envelope.Data, nil
}

// CheckStatus re-submits the same (sku, customer, ref) tuple. Because the
// reseller deduplicates by refID this never places a second order; it
// just returns the current state of the original one.
func (c *Client) CheckStatus(ctx context.Context, skuCode, customerNo, refID string) (*TopupResult, error) {
	ctx, span := util.StartSpan(ctx, "upstream.CheckStatus")
	defer span.End()

	start := time.Now()
	defer func() {
		util.UpstreamRequestLatency.WithLabelValues("status").Observe(time.Since(start).Seconds())
	}()

	payload := map[string]interface{}{
		"username":       c.username,
		"buyer_sku_code": skuCode,
		"customer_no":    customerNo,
		"ref_id":         refID,
		"sign":           c.sign(refID),
	}

	var envelope struct {
		Data TopupResult `json:"data"`
	}
	if err := c.post(ctx, "/transaction", payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to check topup status: %w", err)
	}

	return &envelope.Data, nil
}

// post runs a signed JSON POST through the circuit breaker and retry
// policy, decoding the response into out.
func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.retryCfg, func() error {
			body, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("call reseller api: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("reseller api returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
		return nil, innerErr
	})
	return err
}
