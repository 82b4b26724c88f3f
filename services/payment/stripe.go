package paymentsvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"

	"github.com/kairosacademy/enrollment/core"
	"github.com/kairosacademy/enrollment/core/enrollment"
)

// StripeProvider collects card payments through Stripe Checkout: Begin opens
// a hosted checkout session and Confirm checks whether it has been paid.
type StripeProvider struct {
	successURL string
	cancelURL  string
}

var _ enrollment.PaymentProvider = (*StripeProvider)(nil)

func NewStripeProvider(conf *core.Config) *StripeProvider {
	stripe.Key = conf.Stripe.SecretKey
	return &StripeProvider{
		successURL: conf.Stripe.SuccessURL,
		cancelURL:  conf.Stripe.CancelURL,
	}
}

func (p *StripeProvider) Begin(ctx context.Context, draftID string, _ enrollment.PaymentMethod, amount int) (enrollment.Payment, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(draftID),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(int64(amount) * 100),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Application and Registration Fees"),
				},
			},
		}},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return enrollment.Payment{}, errors.Wrap(err, "creating checkout session")
	}
	return enrollment.Payment{Ref: sess.ID, RedirectURL: sess.URL}, nil
}

func (p *StripeProvider) Confirm(ctx context.Context, ref string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(ref, params)
	if err != nil {
		return false, errors.Wrap(err, "retrieving checkout session")
	}
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}
