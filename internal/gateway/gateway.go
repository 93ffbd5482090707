// Package gateway talks to the Pagar.me core v5 API and normalizes its
// responses for the checkout and webhook paths.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	PaymentMethodPix = "pix"

	// pix codes expire after one hour; a stale order stays pending until the
	// buyer checks out again.
	pixExpiresInSeconds = 3600
)

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) (*Client, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("gateway secret key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.pagar.me/core/v5"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type MobilePhone struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

type Customer struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Document string      `json:"document"`
	Phone    MobilePhone `json:"-"`
}

type TransactionInput struct {
	// Amount is the full charge in minor currency units.
	Amount        int64
	Description   string
	PaymentMethod string
	Customer      Customer
}

// TransactionResult is the normalized synchronous reply. QRCode and QRCodeURL
// are only set for pix transactions; card responses legitimately omit them.
type TransactionResult struct {
	ID        string
	ChargeID  string
	Status    string
	QRCode    string
	QRCodeURL string
}

// Error carries the gateway's raw error payload for diagnostics. A failed
// response is never partially interpreted as a successful one.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

// wire shapes for the v5 orders endpoint

type orderPayload struct {
	Items    []itemPayload    `json:"items"`
	Customer customerPayload  `json:"customer"`
	Payments []paymentPayload `json:"payments"`
}

type itemPayload struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Code        string `json:"code"`
}

type customerPayload struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Document string        `json:"document"`
	Type     string        `json:"type"`
	Phones   phonesPayload `json:"phones"`
}

type phonesPayload struct {
	MobilePhone MobilePhone `json:"mobile_phone"`
}

type paymentPayload struct {
	PaymentMethod string      `json:"payment_method"`
	Pix           *pixPayload `json:"pix,omitempty"`
}

type pixPayload struct {
	ExpiresIn int `json:"expires_in"`
}

type orderResponse struct {
	ID      string           `json:"id"`
	Status  string           `json:"status"`
	Charges []chargeResponse `json:"charges"`
	Errors  json.RawMessage  `json:"errors"`
}

type chargeResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	LastTransaction *struct {
		QRCode    string `json:"qr_code"`
		QRCodeURL string `json:"qr_code_url"`
	} `json:"last_transaction"`
}

// CreateTransaction submits one payment attempt and normalizes the reply.
// A single bounded round trip: no retries, cancellation via ctx.
func (g *Client) CreateTransaction(ctx context.Context, input TransactionInput) (*TransactionResult, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount must be a positive integer in minor units, got %d", input.Amount)
	}
	if input.Customer.Name == "" || input.Customer.Email == "" || input.Customer.Document == "" {
		return nil, fmt.Errorf("customer name, email and document are required")
	}

	payload := orderPayload{
		Items: []itemPayload{{
			Amount:      input.Amount,
			Description: input.Description,
			Quantity:    1,
			Code:        "video_access",
		}},
		Customer: customerPayload{
			Name:     input.Customer.Name,
			Email:    input.Customer.Email,
			Document: input.Customer.Document,
			Type:     "individual",
			Phones:   phonesPayload{MobilePhone: input.Customer.Phone},
		},
		Payments: []paymentPayload{{
			PaymentMethod: input.PaymentMethod,
		}},
	}
	if input.PaymentMethod == PaymentMethodPix {
		payload.Payments[0].Pix = &pixPayload{ExpiresIn: pixExpiresInSeconds}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.secretKey, "")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var decoded orderResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decoding gateway response: %w", err)
	}
	if len(decoded.Errors) > 0 && string(decoded.Errors) != "null" {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	result := &TransactionResult{
		ID:     decoded.ID,
		Status: decoded.Status,
	}
	if len(decoded.Charges) > 0 {
		charge := decoded.Charges[0]
		result.ChargeID = charge.ID
		if result.Status == "" {
			result.Status = charge.Status
		}
		if input.PaymentMethod == PaymentMethodPix && charge.LastTransaction != nil {
			result.QRCode = charge.LastTransaction.QRCode
			result.QRCodeURL = charge.LastTransaction.QRCodeURL
		}
	}
	if result.Status == "" {
		result.Status = "pending"
	}
	return result, nil
}
