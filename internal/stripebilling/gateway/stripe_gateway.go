// Package gateway implements the Stripe port with stripe-go.
package gateway

import (
	"context"
	"strings"

	"github.com/citadia/citadia/internal/config"
	"github.com/citadia/citadia/internal/stripebilling/domain"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/invoice"
	"github.com/stripe/stripe-go/v81/invoiceitem"
)

type StripeGateway struct{}

// New configures the global stripe client key and returns the gateway.
func New(cfg config.Config) domain.Gateway {
	stripe.Key = cfg.StripeAPIKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, params domain.CustomerParams) (string, error) {
	cust, err := customer.New(&stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(params.Name),
		Email:  stripe.String(params.Email),
	})
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (g *StripeGateway) CreateInvoice(ctx context.Context, customerID, currency string, lines []domain.GatewayLine, daysUntilDue int64) (*domain.GatewayInvoice, error) {
	currency = strings.ToLower(currency)

	for _, line := range lines {
		quantity := line.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if _, err := invoiceitem.New(&stripe.InvoiceItemParams{
			Params:      stripe.Params{Context: ctx},
			Customer:    stripe.String(customerID),
			Description: stripe.String(line.Description),
			UnitAmount:  stripe.Int64(line.AmountCents),
			Quantity:    stripe.Int64(quantity),
			Currency:    stripe.String(currency),
		}); err != nil {
			return nil, err
		}
	}

	draft, err := invoice.New(&stripe.InvoiceParams{
		Params:           stripe.Params{Context: ctx},
		Customer:         stripe.String(customerID),
		CollectionMethod: stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:     stripe.Int64(daysUntilDue),
		PendingInvoiceItemsBehavior: stripe.String("include"),
	})
	if err != nil {
		return nil, err
	}

	finalized, err := invoice.FinalizeInvoice(draft.ID, &stripe.InvoiceFinalizeInvoiceParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, err
	}

	return &domain.GatewayInvoice{
		ID:               finalized.ID,
		Status:           string(finalized.Status),
		AmountDueCents:   finalized.AmountDue,
		HostedInvoiceURL: finalized.HostedInvoiceURL,
	}, nil
}
