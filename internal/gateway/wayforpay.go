package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/movapay/movapay/config"
	"github.com/shopspring/decimal"
)

// Client talks to the WayForPay invoice API. Credentials come from the
// config struct handed in at construction.
type Client struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Invoice describes a single-product invoice request.
type Invoice struct {
	OrderReference string
	OrderDate      int64
	Amount         decimal.Decimal
	Currency       string
	ProductName    string
	ClientEmail    string
	ReturnURL      string
}

// InvoiceResult is the gateway's answer. A missing URL is a business
// failure, not a transport error; ReasonCode and Reason carry the
// diagnostics for the caller.
type InvoiceResult struct {
	URL        string `json:"invoiceUrl"`
	ReasonCode int    `json:"reasonCode"`
	Reason     string `json:"reason"`
}

// CreateInvoice normalizes the amount to two decimal places, signs the
// normalized values and posts the CREATE_INVOICE request. The gateway
// recomputes the signature over the transmitted strings, so signing any
// other representation gets the request rejected.
func (cl *Client) CreateInvoice(ctx context.Context, inv Invoice) (*InvoiceResult, error) {
	amount := inv.Amount.StringFixed(2)

	signature := invoiceSignature(
		cl.cfg.SecretKey,
		cl.cfg.MerchantAccount,
		cl.cfg.MerchantDomain,
		inv.OrderReference,
		inv.OrderDate,
		amount,
		inv.Currency,
		inv.ProductName,
		"1",
		amount,
	)

	body := map[string]interface{}{
		"transactionType":    "CREATE_INVOICE",
		"apiVersion":         1,
		"merchantAccount":    cl.cfg.MerchantAccount,
		"merchantDomainName": cl.cfg.MerchantDomain,
		"merchantSignature":  signature,
		"orderReference":     inv.OrderReference,
		"orderDate":          inv.OrderDate,
		"amount":             amount,
		"currency":           inv.Currency,
		"productName":        []string{inv.ProductName},
		"productCount":       []int{1},
		"productPrice":       []string{amount},
		"language":           "ua",
		"notifyMethod":       "POST",
		"serviceUrl":         cl.cfg.ServiceURL,
		"returnUrl":          inv.ReturnURL,
		"clientEmail":        inv.ClientEmail,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("invoice creation failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("invoice creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoice creation failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("invoice creation failed: %w", err)
	}

	var result InvoiceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("invoice creation failed: invalid gateway response: %w", err)
	}

	return &result, nil
}

// Ack is the signed payload returned to the gateway in answer to a
// service callback.
type Ack struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
	Time           int64  `json:"time"`
	Signature      string `json:"signature"`
}

func (cl *Client) BuildAck(orderReference, status string, ts int64) Ack {
	return Ack{
		OrderReference: orderReference,
		Status:         status,
		Time:           ts,
		Signature:      ackSignature(cl.cfg.SecretKey, orderReference, status, ts),
	}
}

// Callback is the gateway's server-to-server transaction notification.
type Callback struct {
	MerchantAccount   string
	OrderReference    string
	MerchantSignature string
	Amount            string
	Currency          string
	AuthCode          string
	CardPan           string
	TransactionStatus string
	ReasonCode        int
}

// ReasonCodeApproved is the gateway's code for a cleared transaction.
const ReasonCodeApproved = 1100

// VerifyCallbackSignature recomputes the callback digest and compares it in
// constant time. Amount is compared as the exact string the gateway sent.
func (cl *Client) VerifyCallbackSignature(cb *Callback) bool {
	return verify(cl.cfg.SecretKey, cb.MerchantSignature,
		cl.cfg.MerchantAccount,
		cb.OrderReference,
		cb.Amount,
		cb.Currency,
		cb.AuthCode,
		cb.CardPan,
		cb.TransactionStatus,
		strconv.Itoa(cb.ReasonCode),
	)
}

type rawCallback struct {
	MerchantAccount   string      `json:"merchantAccount"`
	OrderReference    string      `json:"orderReference"`
	MerchantSignature string      `json:"merchantSignature"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	AuthCode          string      `json:"authCode"`
	CardPan           string      `json:"cardPan"`
	TransactionStatus string      `json:"transactionStatus"`
	ReasonCode        json.Number `json:"reasonCode"`
}

func (raw *rawCallback) toCallback() (*Callback, error) {
	cb := &Callback{
		MerchantAccount:   raw.MerchantAccount,
		OrderReference:    raw.OrderReference,
		MerchantSignature: raw.MerchantSignature,
		Amount:            raw.Amount.String(),
		Currency:          raw.Currency,
		AuthCode:          raw.AuthCode,
		CardPan:           raw.CardPan,
		TransactionStatus: raw.TransactionStatus,
	}
	if raw.ReasonCode != "" {
		code, err := strconv.Atoi(raw.ReasonCode.String())
		if err != nil {
			return nil, fmt.Errorf("invalid reasonCode %q", raw.ReasonCode)
		}
		cb.ReasonCode = code
	}
	return cb, nil
}

// ParseCallback decodes a callback body. WayForPay posts either a JSON
// document, a form whose single key is the JSON document, or plain form
// fields, so the attempts run in that order and the first hit wins.
func ParseCallback(body []byte) (*Callback, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty callback body")
	}

	if trimmed[0] == '{' {
		var raw rawCallback
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("malformed callback json: %w", err)
		}
		return raw.toCallback()
	}

	values, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("malformed callback body: %w", err)
	}

	for key := range values {
		if len(key) > 0 && key[0] == '{' {
			var raw rawCallback
			if err := json.Unmarshal([]byte(key), &raw); err != nil {
				return nil, fmt.Errorf("malformed callback json: %w", err)
			}
			return raw.toCallback()
		}
	}

	cb := &Callback{
		MerchantAccount:   values.Get("merchantAccount"),
		OrderReference:    values.Get("orderReference"),
		MerchantSignature: values.Get("merchantSignature"),
		Amount:            values.Get("amount"),
		Currency:          values.Get("currency"),
		AuthCode:          values.Get("authCode"),
		CardPan:           values.Get("cardPan"),
		TransactionStatus: values.Get("transactionStatus"),
	}
	if code := values.Get("reasonCode"); code != "" {
		parsed, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("invalid reasonCode %q", code)
		}
		cb.ReasonCode = parsed
	}
	return cb, nil
}
