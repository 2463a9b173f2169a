// Package payment implements the Paydisini gateway protocol: hosted
// checkout creation and status checks, both signed with a keyed md5 over
// provider-specified fields.
package payment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ppob-service/internal/resilience"
	"ppob-service/internal/util"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Webhook statuses delivered by the gateway
const (
	WebhookStatusSuccess  = "Success"
	WebhookStatusCanceled = "Canceled"
	WebhookStatusExpired  = "Expired"
)

// Session is a created hosted-checkout payment.
type Session struct {
	GatewayRef  string
	CheckoutURL string
	Expired     string
}

// Status is the gateway's answer to a status check.
type Status struct {
	GatewayRef string
	Status     string
	Amount     int64
}

type createResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    struct {
		UniqueCode    string `json:"unique_code"`
		Status        string `json:"status"`
		Expired       string `json:"expired"`
		CheckoutURLV3 string `json:"checkout_url_v3"`
	} `json:"data"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    struct {
		UniqueCode string `json:"unique_code"`
		Status     string `json:"status"`
		Amount     int64  `json:"amount"`
	} `json:"data"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	retryCfg   resilience.Config
	logger     *zap.Logger
}

// NewClient creates a Paydisini client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         resilience.NewCircuitBreaker("paydisini"),
		retryCfg:   resilience.DefaultConfig,
		logger:     util.GetLogger(),
	}
}

// CreatePayment opens a hosted checkout for the given amount. uniqueCode
// doubles as the gateway-side idempotency key; the transaction id is used
// so retried creations reference the same payment. Any non-success
// response is an error: a transaction must never exist without a valid
// redirect URL.
func (c *Client) CreatePayment(ctx context.Context, uniqueCode string, amount int64, note, service string, validSeconds int) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "payment.CreatePayment")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PaymentGatewayLatency.WithLabelValues("create").Observe(time.Since(start).Seconds())
	}()

	signature := c.sign(uniqueCode + service + strconv.FormatInt(amount, 10) + strconv.Itoa(validSeconds) + "NewTransaction")

	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("request", "new")
	form.Set("unique_code", uniqueCode)
	form.Set("service", service)
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("note", note)
	form.Set("valid_time", strconv.Itoa(validSeconds))
	form.Set("type_fee", "1") // customer bears the gateway fee
	form.Set("signature", signature)

	var resp createResponse
	if err := c.post(ctx, form, &resp); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if !resp.Success {
		return nil, fmt.Errorf("payment gateway rejected request: %s", resp.Msg)
	}

	return &Session{
		GatewayRef:  resp.Data.UniqueCode,
		CheckoutURL: resp.Data.CheckoutURLV3,
		Expired:     resp.Data.Expired,
	}, nil
}

// CheckPaymentStatus queries the gateway by reference
func (c *Client) CheckPaymentStatus(ctx context.Context, uniqueCode string) (*Status, error) {
	ctx, span := util.StartSpan(ctx, "payment.CheckPaymentStatus")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PaymentGatewayLatency.WithLabelValues("status").Observe(time.Since(start).Seconds())
	}()

	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("request", "status")
	form.Set("unique_code", uniqueCode)
	form.Set("signature", c.sign(uniqueCode+"StatusTransaction"))

	var resp statusResponse
	if err := c.post(ctx, form, &resp); err != nil {
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}

	if !resp.Success {
		return nil, fmt.Errorf("payment gateway rejected status check: %s", resp.Msg)
	}

	return &Status{
		GatewayRef: resp.Data.UniqueCode,
		Status:     resp.Data.Status,
		Amount:     resp.Data.Amount,
	}, nil
}

// AvailableServices lists the gateway payment-method codes this system
// accepts.
func AvailableServices() map[string]string {
	return map[string]string{
		"11": "QRIS",
		"15": "BCA Virtual Account",
		"16": "BNI Virtual Account",
		"17": "BRI Virtual Account",
		"18": "Mandiri Virtual Account",
		"19": "BSI Virtual Account",
		"20": "Maybank Virtual Account",
		"21": "BJB Virtual Account",
		"22": "CIMB Virtual Account",
	}
}

// sign computes md5(apiKey + data) per the gateway protocol.
func (c *Client) sign(data string) string {
	sum := md5.Sum([]byte(c.apiKey + data))
	return hex.EncodeToString(sum[:])
}

func (c *Client) post(ctx context.Context, form url.Values, out interface{}) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.retryCfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("call payment gateway: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
		return nil, innerErr
	})
	return err
}
