package public

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/payment/stripe"
	"github.com/lumen-optics/internal/provider"
	"github.com/lumen-optics/internal/repository"
	"github.com/lumen-optics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_public_test"

func setupPublicHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:public_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	models.DB = db

	gateway, err := stripe.NewClient(stripe.Config{SecretKey: "sk_test_public", WebhookSecret: testWebhookSecret})
	require.NoError(t, err)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderSvc := service.NewOrderService(orderRepo, productRepo, cartRepo, gateway, nil, nil, config.OrderConfig{NumberPrefix: "LO"})
	return &Handler{Container: &provider.Container{
		CatalogService: service.NewCatalogService(productRepo, repository.NewCategoryRepository(db), repository.NewReviewRepository(db), 0),
		CartService:    service.NewCartService(cartRepo, productRepo, repository.NewPrescriptionRepository(db)),
		OrderService:   orderSvc,
		PaymentService: service.NewPaymentService(cartRepo, gateway, orderSvc, nil, "usd"),
	}}, db
}

func serve(handle gin.HandlerFunc, req *http.Request, userID uint) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	if userID > 0 {
		c.Set("user_id", userID)
	}
	handle(c)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func signWebhook(body []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, body)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func webhookRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	return req
}

func TestStripeWebhookSignature(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)
	body, err := json.Marshal(gin.H{
		"id":     "evt_public_1",
		"object": "event",
		"type":   "payment_intent.succeeded",
		"data": gin.H{
			"object": gin.H{
				"id":       "pi_unknown",
				"object":   "payment_intent",
				"status":   "succeeded",
				"amount":   4200,
				"currency": "usd",
			},
		},
	})
	require.NoError(t, err)

	rec := serve(h.StripeWebhook, webhookRequest(body, ""), 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid signature", decodeBody(t, rec)["error"])

	rec = serve(h.StripeWebhook, webhookRequest(body, "t=1,v1=deadbeef"), 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid signature", decodeBody(t, rec)["error"])

	rec = serve(h.StripeWebhook, webhookRequest(body, signWebhook(body)), 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["received"])
}

func TestAddCartItemReportsAvailableStock(t *testing.T) {
	h, db := setupPublicHandlerTest(t)
	product := &models.Product{
		Name:           "Round Tortoise",
		Slug:           "round-tortoise",
		SKU:            "RT-001",
		BasePrice:      models.NewMoneyFromDecimal(decimal.RequireFromString("89.00")),
		FrameType:      constants.FrameTypeEyeglasses,
		StockQuantity:  2,
		TrackInventory: true,
		IsActive:       true,
	}
	require.NoError(t, db.Create(product).Error)

	raw, err := json.Marshal(gin.H{"product_id": product.ID, "quantity": 5})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h.AddCartItem, req, 7)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["available_stock"])

	raw, err = json.Marshal(gin.H{"product_id": product.ID})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(h.AddCartItem, req, 7)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAddCartItemRequiresUser(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", bytes.NewReader([]byte(`{"product_id":1}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h.AddCartItem, req, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProductsRejectsOversizedPage(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)

	rec := serve(h.ListProducts, httptest.NewRequest(http.MethodGet, "/api/v1/products?per_page=500", nil), 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", decodeBody(t, rec)["error"])

	rec = serve(h.ListProducts, httptest.NewRequest(http.MethodGet, "/api/v1/products?min_price=abc", nil), 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid min_price", decodeBody(t, rec)["error"])

	rec = serve(h.ListProducts, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil), 0)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentMethods(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)
	rec := serve(h.PaymentMethods, httptest.NewRequest(http.MethodGet, "/api/v1/payments/payment-methods", nil), 0)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []service.PaymentMethod `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "card", resp.Data[0].Type)
}
