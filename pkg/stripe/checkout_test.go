package stripe

import (
	"testing"

	"github.com/stripe/stripe-go/v84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trovemarket/trove-backend/pkg/config"
)

func cfgWith(apiKey, secret, env string) config.StripeConfig {
	return config.StripeConfig{APIKey: apiKey, Secret: secret, Env: env}
}

func TestConfirmationFromSessionMapsNarrowView(t *testing.T) {
	session := &stripe.CheckoutSession{
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   2100,
		Metadata:      map[string]string{"buyer_id": "u-1"},
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_abc"},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Name: "Ada Buyer",
			Address: &stripe.Address{
				Line1:      "1 Main St",
				City:       "Springfield",
				State:      "IL",
				PostalCode: "62701",
				Country:    "US",
			},
		},
	}

	conf := ConfirmationFromSession(session)
	require.NotNil(t, conf)
	assert.True(t, conf.Settled())
	assert.Equal(t, "pi_abc", conf.PaymentIntentID)
	assert.Equal(t, int64(2100), conf.AmountTotalCents)
	assert.Equal(t, "u-1", conf.Metadata["buyer_id"])
	require.NotNil(t, conf.CustomerAddress)
	assert.Equal(t, "Springfield", conf.CustomerAddress.City)
	assert.Equal(t, "Ada Buyer", conf.CustomerAddress.Name)
}

func TestConfirmationFromSessionUnpaid(t *testing.T) {
	session := &stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid}
	conf := ConfirmationFromSession(session)
	require.NotNil(t, conf)
	assert.False(t, conf.Settled())
	assert.Empty(t, conf.PaymentIntentID)
	assert.Nil(t, conf.CustomerAddress)
}

func TestNewClientValidatesKeys(t *testing.T) {
	_, err := NewClient(t.Context(), cfgWith("", "whsec_x", "test"), nil)
	require.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(t.Context(), cfgWith("sk_live_123", "whsec_x", "test"), nil)
	require.Error(t, err)

	client, err := NewClient(t.Context(), cfgWith("sk_test_123", "whsec_x", "test"), nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Equal(t, "whsec_x", client.SigningSecret())
}
