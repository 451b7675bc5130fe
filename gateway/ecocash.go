package gateway

import (
	"context"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
)

// EcoCashGateway moves funds over the EcoCash mobile money rail. The
// destination reference is the subscriber's phone number.
type EcoCashGateway struct {
	client *client
}

// NewEcoCashGateway creates a new EcoCash gateway adapter
func NewEcoCashGateway(baseURL, apiKey string) *EcoCashGateway {
	return &EcoCashGateway{
		client: newClient("ecocash", baseURL, apiKey),
	}
}

// Method returns the payment method this gateway serves
func (g *EcoCashGateway) Method() entities.PaymentMethod {
	return entities.PaymentMethodEcocash
}

// ProcessPayment charges the subscriber's mobile money account
func (g *EcoCashGateway) ProcessPayment(ctx context.Context, req interfaces.PaymentRequest) (*interfaces.PaymentResult, error) {
	return g.client.post(ctx, "/api/v2/payments", req)
}

// ProcessWithdrawal pays out to the subscriber's mobile money account
func (g *EcoCashGateway) ProcessWithdrawal(ctx context.Context, req interfaces.PaymentRequest) (*interfaces.PaymentResult, error) {
	return g.client.post(ctx, "/api/v2/disbursements", req)
}
