package lib

import (
	"context"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v82"
)

// GatewayConfirmation is the gateway's view of an order: whether the full
// amount was approved and under which transaction reference.
type GatewayConfirmation struct {
	OrderID       string
	Amount        float64
	Currency      string
	Approved      bool
	TransactionID string
}

type GatewayRefund struct {
	TransactionID string
	RefundID      string
	Amount        float64
}

// PaymentGateway is the only surface the settlement and refund engines see.
// Protocol details stay behind it.
type PaymentGateway interface {
	ConfirmOrder(ctx context.Context, orderId string) (*GatewayConfirmation, error)
	RefundPayment(ctx context.Context, transactionId string, amount float64) (*GatewayRefund, error)
}

type StripeGateway struct {
	inner *stripe.Client
}

func (g *StripeGateway) ConfirmOrder(ctx context.Context, orderId string) (*GatewayConfirmation, error) {
	sc := g.inner
	params := &stripe.PaymentIntentSearchParams{
		SearchParams: stripe.SearchParams{
			Query: fmt.Sprintf(`metadata["order_id"]:"%s"`, orderId),
		},
	}
	conf := &GatewayConfirmation{OrderID: orderId, Approved: true}
	found := 0
	results := sc.V1PaymentIntents.Search(ctx, params)
	for pi, err := range results {
		if err != nil {
			log.Printf("[stripe] Error searching payment intents for order [%s]: %s\n", orderId, err.Error())
			return nil, err
		}
		found++
		if pi.Status != stripe.PaymentIntentStatusSucceeded {
			conf.Approved = false
			continue
		}
		conf.Amount += float64(pi.Amount)
		conf.Currency = string(pi.Currency)
		if conf.TransactionID == "" {
			conf.TransactionID = pi.ID
		}
	}
	if found == 0 {
		conf.Approved = false
	}
	return conf, nil
}

func (g *StripeGateway) RefundPayment(ctx context.Context, transactionId string, amount float64) (*GatewayRefund, error) {
	sc := g.inner
	refund, err := sc.V1Refunds.Create(ctx, &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(transactionId),
		Amount:        stripe.Int64(int64(amount)),
	})
	if err != nil {
		log.Printf("[stripe] Error refunding payment intent [%s]: %s\n", transactionId, err.Error())
		return nil, err
	}
	return &GatewayRefund{
		TransactionID: transactionId,
		RefundID:      refund.ID,
		Amount:        float64(refund.Amount),
	}, nil
}

var paymentGateway PaymentGateway

func GetPaymentGateway() PaymentGateway {
	if paymentGateway != nil {
		return paymentGateway
	}
	g := &StripeGateway{inner: GetStripeClient()}
	paymentGateway = g
	return g
}

// NewPaymentGateway Replace gateway instance with custom implementation
func NewPaymentGateway(g PaymentGateway) {
	paymentGateway = g
}
