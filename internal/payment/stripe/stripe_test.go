package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v78"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIntentAPI struct {
	created *stripeapi.PaymentIntentParams
	intent  *stripeapi.PaymentIntent
	err     error
}

func (f *fakeIntentAPI) New(params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func (f *fakeIntentAPI) Get(id string, params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type fakeRefundAPI struct {
	params *stripeapi.RefundParams
	refund *stripeapi.Refund
}

func (f *fakeRefundAPI) New(params *stripeapi.RefundParams) (*stripeapi.Refund, error) {
	f.params = params
	return f.refund, nil
}

func signPayload(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, body)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestMinorAmountConversion(t *testing.T) {
	minor, err := ToMinorAmount(decimal.RequireFromString("129.99"), "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(12999), minor)

	minor, err = ToMinorAmount(decimal.NewFromInt(1500), "JPY")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), minor)

	_, err = ToMinorAmount(decimal.Zero, "usd")
	assert.ErrorIs(t, err, ErrConfigInvalid)

	_, err = ToMinorAmount(decimal.RequireFromString("10.005"), "usd")
	assert.ErrorIs(t, err, ErrConfigInvalid)

	assert.True(t, FromMinorAmount(12999, "usd").Equal(decimal.RequireFromString("129.99")))
	assert.True(t, FromMinorAmount(1500, "jpy").Equal(decimal.NewFromInt(1500)))
}

func TestCreateIntentSendsMinorAmountAndMetadata(t *testing.T) {
	intents := &fakeIntentAPI{intent: &stripeapi.PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret",
		Status:       stripeapi.PaymentIntentStatusRequiresPaymentMethod,
		Amount:       24000,
		Currency:     "usd",
		Metadata:     map[string]string{MetadataUserID: "7"},
	}}
	client := newClientWithAPI(Config{SecretKey: "sk_test"}, intents, &fakeRefundAPI{})

	intent, err := client.CreateIntent(context.Background(), decimal.NewFromInt(240), "", map[string]string{MetadataUserID: "7"})
	require.NoError(t, err)
	require.NotNil(t, intents.created)
	assert.Equal(t, int64(24000), *intents.created.Amount)
	assert.Equal(t, "usd", *intents.created.Currency)
	assert.Equal(t, "7", intents.created.Metadata[MetadataUserID])
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	assert.Equal(t, uint(7), intent.UserID())
	assert.False(t, intent.Succeeded())
}

func TestRetrieveIntentWrapsGatewayErrors(t *testing.T) {
	client := newClientWithAPI(Config{SecretKey: "sk_test"}, &fakeIntentAPI{err: errors.New("card_declined")}, &fakeRefundAPI{})

	_, err := client.RetrieveIntent(context.Background(), "pi_missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayRequest)

	_, err = client.RetrieveIntent(context.Background(), " ")
	assert.ErrorIs(t, err, ErrGatewayRequest)
}

func TestRefundPartialAndFull(t *testing.T) {
	refunds := &fakeRefundAPI{refund: &stripeapi.Refund{ID: "re_1", Status: stripeapi.RefundStatusSucceeded, Amount: 5000, Currency: "usd"}}
	client := newClientWithAPI(Config{SecretKey: "sk_test"}, &fakeIntentAPI{}, refunds)

	partial := decimal.NewFromInt(50)
	refund, err := client.Refund(context.Background(), "pi_1", &partial)
	require.NoError(t, err)
	require.NotNil(t, refunds.params.Amount)
	assert.Equal(t, int64(5000), *refunds.params.Amount)
	assert.True(t, refund.Amount.Equal(partial))

	_, err = client.Refund(context.Background(), "pi_1", nil)
	require.NoError(t, err)
	assert.Nil(t, refunds.params.Amount)
	assert.Equal(t, "pi_1", *refunds.params.PaymentIntent)
}

func TestVerifyWebhookPaymentSucceeded(t *testing.T) {
	secret := "whsec_test_abc"
	client := newClientWithAPI(Config{SecretKey: "sk_test", WebhookSecret: secret}, &fakeIntentAPI{}, &fakeRefundAPI{})
	body, err := json.Marshal(map[string]interface{}{
		"id":     "evt_1",
		"object": "event",
		"type":   "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       "pi_abc",
				"object":   "payment_intent",
				"status":   "succeeded",
				"amount":   12999,
				"currency": "usd",
				"metadata": map[string]string{"user_id": "3"},
			},
		},
	})
	require.NoError(t, err)

	event, err := client.VerifyWebhook(body, signPayload(secret, time.Now().Unix(), body))
	require.NoError(t, err)
	assert.True(t, event.IsPaymentSucceeded())
	assert.Equal(t, "pi_abc", event.IntentID)
	assert.Equal(t, "succeeded", event.Status)
	assert.True(t, event.Amount.Equal(decimal.RequireFromString("129.99")))
	assert.Equal(t, "3", event.Metadata["user_id"])
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	client := newClientWithAPI(Config{SecretKey: "sk_test", WebhookSecret: "whsec_real"}, &fakeIntentAPI{}, &fakeRefundAPI{})
	body := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_x"}}}`)

	_, err := client.VerifyWebhook(body, signPayload("whsec_forged", time.Now().Unix(), body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = client.VerifyWebhook(body, "")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	stale := time.Now().Add(-time.Hour).Unix()
	_, err = client.VerifyWebhook(body, signPayload("whsec_real", stale, body))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestNewClientRequiresSecretKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrConfigInvalid)

	client, err := NewClient(Config{SecretKey: " sk_test_123 ", Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "eur", client.cfg.Currency)
	assert.Equal(t, defaultTimeout, client.cfg.Timeout)
}
