// Package gateway talks to the external payment gateway. The gateway is
// untrusted and asynchronous: the only authoritative answer about a payment's
// outcome is its validate endpoint, never fields carried by redirects or
// webhooks.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/config"
	"github.com/maratgil/eventbooking/internal/domain"
)

const (
	SessionStatusSuccess = "SUCCESS"
	SessionStatusFailed  = "FAILED"

	ValidationStatusValid     = "VALID"
	ValidationStatusInvalid   = "INVALID"
	ValidationStatusCancelled = "CANCELLED"

	RefundStatusSuccess = "SUCCESS"
	RefundStatusFailed  = "FAILED"
)

// SessionRequest opens a payment session. The passthrough fields are echoed
// back by the gateway on every notification channel so booking intent can be
// correlated independently of the local payment record.
type SessionRequest struct {
	TransactionID string `json:"tran_id"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	SuccessURL    string `json:"success_url"`
	FailURL       string `json:"fail_url"`
	CancelURL     string `json:"cancel_url"`
	CallbackURL   string `json:"callback_url"`
	CustomerName  string `json:"cus_name,omitempty"`
	CustomerEmail string `json:"cus_email,omitempty"`

	// Passthrough fields.
	EventID   int64  `json:"value_event_id"`
	PackageID *int64 `json:"value_package_id,omitempty"`
	Quantity  int    `json:"value_quantity"`
	UserID    int64  `json:"value_user_id"`
}

type SessionResponse struct {
	Status      string          `json:"status"`
	RedirectURL string          `json:"redirect_url"`
	Reason      string          `json:"reason,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// ValidationResult is the authoritative settlement answer for one session.
type ValidationResult struct {
	Status            string          `json:"status"`
	TransactionID     string          `json:"tran_id"`
	ValidationID      string          `json:"val_id"`
	AmountCents       int64           `json:"amount_cents"`
	Currency          string          `json:"currency"`
	BankTransactionID string          `json:"bank_tran_id"`
	EventID           int64           `json:"value_event_id"`
	PackageID         *int64          `json:"value_package_id"`
	Quantity          int             `json:"value_quantity"`
	UserID            int64           `json:"value_user_id"`
	Raw               json.RawMessage `json:"-"`
}

func (v *ValidationResult) Valid() bool {
	return v.Status == ValidationStatusValid
}

type RefundRequest struct {
	BankTransactionID string `json:"bank_tran_id"`
	RefundRefID       string `json:"refund_ref_id"`
	AmountCents       int64  `json:"amount_cents"`
	Remarks           string `json:"remarks"`
}

type RefundResponse struct {
	Status   string          `json:"refund_status"`
	RefundID string          `json:"refund_id"`
	Reason   string          `json:"reason,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// Client is the gateway capability injected into the session manager,
// reconciler and refund coordinator so they can be tested against a fake.
type Client interface {
	InitSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)
	Validate(ctx context.Context, validationID string) (*ValidationResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
}

type HTTPClient struct {
	rc  *resty.Client
	cfg config.GatewayConfig
	log *logrus.Logger
}

func NewHTTPClient(cfg config.GatewayConfig, log *logrus.Logger) *HTTPClient {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout()).
		SetBasicAuth(cfg.StoreID, cfg.StorePassword).
		SetRetryCount(2).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only the validate GET is retried transparently; session init
			// and refund retries are the caller's decision.
			return err != nil && r != nil && r.Request.Method == http.MethodGet
		})

	return &HTTPClient{rc: rc, cfg: cfg, log: log}
}

func (c *HTTPClient) InitSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	var out SessionResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/session")
	if err != nil {
		return nil, fmt.Errorf("gateway session init: %w: %w", domain.ErrGatewayTransient, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway session init: status %d: %w", resp.StatusCode(), domain.ErrGatewayTransient)
	}

	out.Raw = json.RawMessage(resp.Body())
	return &out, nil
}

func (c *HTTPClient) Validate(ctx context.Context, validationID string) (*ValidationResult, error) {
	var out ValidationResult
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("val_id", validationID).
		SetResult(&out).
		Get("/v1/validate")
	if err != nil {
		return nil, fmt.Errorf("gateway validate %s: %w: %w", validationID, domain.ErrGatewayTransient, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway validate %s: status %d: %w", validationID, resp.StatusCode(), domain.ErrGatewayTransient)
	}

	out.Raw = json.RawMessage(resp.Body())
	c.log.WithFields(logrus.Fields{
		"val_id":  validationID,
		"tran_id": out.TransactionID,
		"status":  out.Status,
	}).Debug("gateway validation response")
	return &out, nil
}

func (c *HTTPClient) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	var out RefundResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/refund")
	if err != nil {
		return nil, fmt.Errorf("gateway refund %s: %w: %w", req.RefundRefID, domain.ErrGatewayTransient, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway refund %s: status %d: %w", req.RefundRefID, resp.StatusCode(), domain.ErrGatewayTransient)
	}

	out.Raw = json.RawMessage(resp.Body())
	return &out, nil
}

var _ Client = (*HTTPClient)(nil)
