package gateway

import (
	"context"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
)

// PayPalGateway moves funds over PayPal. The destination reference is the
// account email.
type PayPalGateway struct {
	client *client
}

// NewPayPalGateway creates a new PayPal gateway adapter
func NewPayPalGateway(baseURL, apiKey string) *PayPalGateway {
	return &PayPalGateway{
		client: newClient("paypal", baseURL, apiKey),
	}
}

// Method returns the payment method this gateway serves
func (g *PayPalGateway) Method() entities.PaymentMethod {
	return entities.PaymentMethodPaypal
}

// ProcessPayment captures a payment from the payer's account
func (g *PayPalGateway) ProcessPayment(ctx context.Context, req interfaces.PaymentRequest) (*interfaces.PaymentResult, error) {
	return g.client.post(ctx, "/v1/payments/capture", req)
}

// ProcessWithdrawal sends a payout to the payee's account
func (g *PayPalGateway) ProcessWithdrawal(ctx context.Context, req interfaces.PaymentRequest) (*interfaces.PaymentResult, error) {
	return g.client.post(ctx, "/v1/payouts", req)
}
