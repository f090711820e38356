package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/payment/stripe"
	"github.com/lumen-optics/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubGateway struct {
	mu        sync.Mutex
	seq       int
	intents   map[string]*stripe.Intent
	refunds   []stubRefundCall
	refundErr error
	event     *stripe.WebhookEvent
	verifyErr error
}

type stubRefundCall struct {
	IntentID string
	Amount   *decimal.Decimal
}

func newStubGateway() *stubGateway {
	return &stubGateway{intents: map[string]*stripe.Intent{}}
}

func (g *stubGateway) CreateIntent(_ context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*stripe.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("pi_test_%d", g.seq)
	intent := &stripe.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *stubGateway) RetrieveIntent(_ context.Context, intentID string) (*stripe.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, stripe.ErrGatewayRequest
	}
	copied := *intent
	return &copied, nil
}

func (g *stubGateway) VerifyWebhook(_ []byte, _ string) (*stripe.WebhookEvent, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

func (g *stubGateway) Refund(_ context.Context, intentID string, amount *decimal.Decimal) (*stripe.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, stubRefundCall{IntentID: intentID, Amount: amount})
	refunded := decimal.Zero
	if intent, ok := g.intents[intentID]; ok {
		refunded = intent.Amount
	}
	if amount != nil {
		refunded = *amount
	}
	return &stripe.Refund{ID: fmt.Sprintf("re_test_%d", len(g.refunds)), Status: "succeeded", Amount: refunded}, nil
}

func (g *stubGateway) markSucceeded(intentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.intents[intentID]; ok {
		intent.Status = "succeeded"
	}
}

type commerceTestEnv struct {
	db       *gorm.DB
	gateway  *stubGateway
	cartSvc  *CartService
	orderSvc *OrderService
	paySvc   *PaymentService
}

func setupCommerceTest(t *testing.T) *commerceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:commerce_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	gateway := newStubGateway()

	orderSvc := NewOrderService(orderRepo, productRepo, cartRepo, gateway, nil, nil, config.OrderConfig{NumberPrefix: "LO"})
	return &commerceTestEnv{
		db:       db,
		gateway:  gateway,
		cartSvc:  NewCartService(cartRepo, productRepo, prescriptionRepo),
		orderSvc: orderSvc,
		paySvc:   NewPaymentService(cartRepo, gateway, orderSvc, nil, "usd"),
	}
}

func (e *commerceTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hash", FirstName: "Test", Role: constants.UserRoleCustomer, Status: constants.UserStatusActive}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (e *commerceTestEnv) createProduct(t *testing.T, sku string, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:           "Frame " + sku,
		Slug:           "frame-" + sku,
		SKU:            sku,
		BasePrice:      models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		FrameType:      constants.FrameTypeEyeglasses,
		StockQuantity:  stock,
		TrackInventory: true,
		IsActive:       true,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (e *commerceTestEnv) stockOf(t *testing.T, productID uint) int {
	t.Helper()
	var product models.Product
	if err := e.db.First(&product, productID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.StockQuantity
}

func (e *commerceTestEnv) cartLines(t *testing.T, userID uint) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	return count
}

func (e *commerceTestEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return count
}

func testAddress() AddressSnapshot {
	return AddressSnapshot{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		AddressLine1: "1 Optic Way",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
		Country:      "US",
		Phone:        "+1 (555) 123-4567",
	}
}

// checkout 创建意图、模拟支付成功并确认
func (e *commerceTestEnv) checkout(t *testing.T, userID uint, shipping string) *models.Order {
	t.Helper()
	intent, err := e.paySvc.CreateIntent(context.Background(), CreateIntentInput{
		UserID:         userID,
		ShippingAmount: models.NewMoneyFromDecimal(decimal.RequireFromString(shipping)),
	})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	e.gateway.markSucceeded(intent.PaymentIntentID)
	order, created, err := e.paySvc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		UserID:          userID,
		PaymentIntentID: intent.PaymentIntentID,
		BillingAddress:  testAddress(),
		ShippingAddress: testAddress(),
		ShippingMethod:  "express",
	})
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if !created {
		t.Fatalf("expected a new order")
	}
	return order
}

func TestConfirmThenCancelRestoresStock(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "SKU-5", "100.00", 5)

	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}

	order := env.checkout(t, user.ID, "10.00")
	if order.Status != constants.OrderStatusConfirmed || order.PaymentStatus != constants.PaymentStatusCompleted {
		t.Fatalf("unexpected order state: %s/%s", order.Status, order.PaymentStatus)
	}
	if order.PaymentMethod != constants.PaymentMethodStripe {
		t.Fatalf("unexpected payment method: %s", order.PaymentMethod)
	}
	if order.TotalAmount.String() != "210.00" || order.Subtotal.String() != "200.00" {
		t.Fatalf("unexpected totals: subtotal=%s total=%s", order.Subtotal.String(), order.TotalAmount.String())
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || order.Items[0].UnitPrice.String() != "100.00" {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("expected stock 3 after confirm, got %d", got)
	}
	if got := env.cartLines(t, user.ID); got != 0 {
		t.Fatalf("expected empty cart after confirm, got %d lines", got)
	}

	cancelled, err := env.orderSvc.Cancel(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if cancelled.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment status, got %s", cancelled.PaymentStatus)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled_at to be set")
	}
	if got := env.stockOf(t, product.ID); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}
	if len(env.gateway.refunds) != 1 || env.gateway.refunds[0].Amount != nil {
		t.Fatalf("expected one full refund, got %+v", env.gateway.refunds)
	}

	if _, err := env.orderSvc.Cancel(context.Background(), user.ID, order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second cancel, got %v", err)
	}
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "repeat@example.com")
	product := env.createProduct(t, "SKU-IDEM", "50.00", 4)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}

	first := env.checkout(t, user.ID, "0")
	again, created, err := env.paySvc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		UserID:          user.ID,
		PaymentIntentID: first.PaymentIntentID,
		BillingAddress:  testAddress(),
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("second confirm failed: %v", err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("expected existing order %d, got %d (created=%v)", first.ID, again.ID, created)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("stock must only be decremented once, got %d", got)
	}

	other := env.createUser(t, "other@example.com")
	if _, _, err := env.paySvc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		UserID:          other.ID,
		PaymentIntentID: first.PaymentIntentID,
		BillingAddress:  testAddress(),
		ShippingAddress: testAddress(),
	}); !errors.Is(err, ErrPaymentUserMismatch) {
		t.Fatalf("expected ErrPaymentUserMismatch, got %v", err)
	}
}

func TestConfirmPaymentRequiresSucceededIntent(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "pending@example.com")
	product := env.createProduct(t, "SKU-PEND", "20.00", 2)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	intent, err := env.paySvc.CreateIntent(context.Background(), CreateIntentInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if got := env.gateway.intents[intent.PaymentIntentID].Metadata[stripe.MetadataUserID]; got != strconv.FormatUint(uint64(user.ID), 10) {
		t.Fatalf("expected user id metadata, got %q", got)
	}

	_, _, err = env.paySvc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		UserID:          user.ID,
		PaymentIntentID: intent.PaymentIntentID,
		BillingAddress:  testAddress(),
		ShippingAddress: testAddress(),
	})
	if !errors.Is(err, ErrPaymentNotSucceeded) {
		t.Fatalf("expected ErrPaymentNotSucceeded, got %v", err)
	}
	if env.orderCount(t) != 0 {
		t.Fatalf("no order should be created")
	}
}

func TestConfirmPaymentIsAllOrNothing(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "atomic@example.com")
	product := env.createProduct(t, "SKU-ATOM", "30.00", 3)
	prescription := &models.Prescription{UserID: user.ID, PrescriptionName: "Reading"}
	if err := env.db.Create(prescription).Error; err != nil {
		t.Fatalf("create prescription failed: %v", err)
	}

	// 两行各自不超库存，合计超出，第二行扣减失败
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add first line failed: %v", err)
	}
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, PrescriptionID: prescription.ID, Quantity: 2}); err != nil {
		t.Fatalf("add second line failed: %v", err)
	}

	intent, err := env.paySvc.CreateIntent(context.Background(), CreateIntentInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	env.gateway.markSucceeded(intent.PaymentIntentID)
	_, _, err = env.paySvc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		UserID:          user.ID,
		PaymentIntentID: intent.PaymentIntentID,
		BillingAddress:  testAddress(),
		ShippingAddress: testAddress(),
	})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("stock must be rolled back to 3, got %d", got)
	}
	if got := env.cartLines(t, user.ID); got != 2 {
		t.Fatalf("cart must be untouched, got %d lines", got)
	}
	if env.orderCount(t) != 0 {
		t.Fatalf("order must be rolled back")
	}
}

func TestConfirmPaymentRejectsInvalidAddress(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "address@example.com")
	product := env.createProduct(t, "SKU-ADDR", "15.00", 2)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	intent, err := env.paySvc.CreateIntent(context.Background(), CreateIntentInput{UserID: user.ID})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	env.gateway.markSucceeded(intent.PaymentIntentID)

	bad := testAddress()
	bad.PostalCode = "!"
	_, _, err = env.paySvc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		UserID:          user.ID,
		PaymentIntentID: intent.PaymentIntentID,
		BillingAddress:  testAddress(),
		ShippingAddress: bad,
	})
	if !errors.Is(err, ErrAddressInvalid) {
		t.Fatalf("expected ErrAddressInvalid, got %v", err)
	}
}

func TestCreateIntentRejectsEmptyCart(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "empty@example.com")
	if _, err := env.paySvc.CreateIntent(context.Background(), CreateIntentInput{UserID: user.ID}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func createPendingOrder(t *testing.T, env *commerceTestEnv, userID uint, intentID string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:     "LO-TEST-" + intentID,
		UserID:          userID,
		Status:          constants.OrderStatusPending,
		PaymentStatus:   constants.PaymentStatusPending,
		PaymentMethod:   constants.PaymentMethodStripe,
		PaymentIntentID: intentID,
		Currency:        "usd",
		TotalAmount:     models.NewMoneyFromInt(40),
	}
	if err := env.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestWebhookSucceededIsIdempotent(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "webhook@example.com")
	order := createPendingOrder(t, env, user.ID, "pi_hook_1")
	env.gateway.event = &stripe.WebhookEvent{ID: "evt_1", Type: constants.StripeEventPaymentSucceeded, IntentID: "pi_hook_1"}

	first, err := env.paySvc.HandleWebhook([]byte("{}"), "sig")
	if err != nil {
		t.Fatalf("first webhook failed: %v", err)
	}
	if first.Outcome != webhookOutcomeApplied {
		t.Fatalf("expected applied outcome, got %s", first.Outcome)
	}
	second, err := env.paySvc.HandleWebhook([]byte("{}"), "sig")
	if err != nil {
		t.Fatalf("second webhook failed: %v", err)
	}
	if second.Outcome != webhookOutcomeNoop {
		t.Fatalf("expected noop outcome, got %s", second.Outcome)
	}

	reloaded, err := env.orderSvc.Get(user.ID, order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusConfirmed || reloaded.PaymentStatus != constants.PaymentStatusCompleted {
		t.Fatalf("unexpected state after webhooks: %s/%s", reloaded.Status, reloaded.PaymentStatus)
	}
}

func TestWebhookSucceededWithoutOrderCreatesNothing(t *testing.T) {
	env := setupCommerceTest(t)
	env.gateway.event = &stripe.WebhookEvent{ID: "evt_2", Type: constants.StripeEventPaymentSucceeded, IntentID: "pi_unknown"}
	result, err := env.paySvc.HandleWebhook([]byte("{}"), "sig")
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if result.Outcome != webhookOutcomeNoOrder {
		t.Fatalf("expected no_order outcome, got %s", result.Outcome)
	}
	if env.orderCount(t) != 0 {
		t.Fatalf("webhook must never create orders")
	}
}

func TestWebhookFailedAfterCompletedIsNoop(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "late-fail@example.com")
	product := env.createProduct(t, "SKU-LATE", "40.00", 5)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	order := env.checkout(t, user.ID, "0")

	env.gateway.event = &stripe.WebhookEvent{ID: "evt_3", Type: constants.StripeEventPaymentFailed, IntentID: order.PaymentIntentID}
	result, err := env.paySvc.HandleWebhook([]byte("{}"), "sig")
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if result.Outcome != webhookOutcomeNoop {
		t.Fatalf("expected noop outcome, got %s", result.Outcome)
	}
	reloaded, _ := env.orderSvc.Get(user.ID, order.ID)
	if reloaded.Status != constants.OrderStatusConfirmed || reloaded.PaymentStatus != constants.PaymentStatusCompleted {
		t.Fatalf("state must be unchanged, got %s/%s", reloaded.Status, reloaded.PaymentStatus)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("stock must be unchanged, got %d", got)
	}
}

func TestWebhookFailedCancelsPendingOrder(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "fail@example.com")
	product := env.createProduct(t, "SKU-FAIL", "20.00", 1)
	order := createPendingOrder(t, env, user.ID, "pi_fail_1")
	item := models.OrderItem{OrderID: order.ID, ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPrice: models.NewMoneyFromInt(20), TotalPrice: models.NewMoneyFromInt(40)}
	if err := env.db.Create(&item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}

	env.gateway.event = &stripe.WebhookEvent{ID: "evt_4", Type: constants.StripeEventPaymentFailed, IntentID: "pi_fail_1"}
	if _, err := env.paySvc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	reloaded, _ := env.orderSvc.Get(user.ID, order.ID)
	if reloaded.Status != constants.OrderStatusCancelled || reloaded.PaymentStatus != constants.PaymentStatusFailed {
		t.Fatalf("unexpected state: %s/%s", reloaded.Status, reloaded.PaymentStatus)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("expected stock restored to 3, got %d", got)
	}

	// 重复失败事件不再回补库存
	if _, err := env.paySvc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("repeat webhook failed: %v", err)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("repeat failure must not restore stock again, got %d", got)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := setupCommerceTest(t)
	env.gateway.verifyErr = stripe.ErrSignatureInvalid
	if _, err := env.paySvc.HandleWebhook([]byte("{}"), "bad"); !errors.Is(err, stripe.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestShipDeliverAndTrack(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "ship@example.com")
	product := env.createProduct(t, "SKU-SHIP", "75.00", 3)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	order := env.checkout(t, user.ID, "5.00")

	if _, err := env.orderSvc.Deliver(order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("deliver before ship must fail, got %v", err)
	}
	shipped, err := env.orderSvc.Ship(order.ID, "1Z999", "")
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.Status != constants.OrderStatusShipped || shipped.TrackingNumber != "1Z999" || shipped.ShippedAt == nil {
		t.Fatalf("unexpected shipped order: %+v", shipped)
	}
	if _, err := env.orderSvc.Cancel(context.Background(), user.ID, order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel after ship must fail, got %v", err)
	}
	if _, err := env.orderSvc.Deliver(order.ID); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	info, err := env.orderSvc.Track(user.ID, order.ID)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if len(info.Timeline) != 4 {
		t.Fatalf("expected 4 timeline events, got %d", len(info.Timeline))
	}
	if info.Timeline[2].Description != "Order shipped via express" {
		t.Fatalf("unexpected shipped description: %s", info.Timeline[2].Description)
	}
	if info.Timeline[3].Status != constants.OrderStatusDelivered {
		t.Fatalf("unexpected last event: %s", info.Timeline[3].Status)
	}
}

func TestRefundFullAndPartial(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "refund@example.com")
	product := env.createProduct(t, "SKU-REF", "60.00", 4)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	order := env.checkout(t, user.ID, "0")

	zero := decimal.Zero
	if _, err := env.paySvc.RefundOrder(context.Background(), order.ID, &zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	partial := decimal.RequireFromString("10")
	result, err := env.paySvc.RefundOrder(context.Background(), order.ID, &partial)
	if err != nil {
		t.Fatalf("partial refund failed: %v", err)
	}
	if result.Full || result.Order.Status != constants.OrderStatusConfirmed || result.Order.PaymentStatus != constants.PaymentStatusCompleted {
		t.Fatalf("partial refund must keep statuses: %+v", result.Order)
	}
	if result.Order.AdminNotes == "" {
		t.Fatalf("partial refund must record an admin note")
	}

	result, err = env.paySvc.RefundOrder(context.Background(), order.ID, nil)
	if err != nil {
		t.Fatalf("full refund failed: %v", err)
	}
	if !result.Full || result.Order.Status != constants.OrderStatusReturned || result.Order.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("unexpected full refund state: %s/%s", result.Order.Status, result.Order.PaymentStatus)
	}
	if _, err := env.paySvc.RefundOrder(context.Background(), order.ID, nil); !errors.Is(err, ErrOrderNotRefundable) {
		t.Fatalf("expected ErrOrderNotRefundable, got %v", err)
	}
}

func TestRefundGatewayFailureRollsBack(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "refund-fail@example.com")
	product := env.createProduct(t, "SKU-RFAIL", "60.00", 4)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	order := env.checkout(t, user.ID, "0")
	env.gateway.refundErr = stripe.ErrGatewayRequest

	if _, err := env.orderSvc.Cancel(context.Background(), user.ID, order.ID); !errors.Is(err, ErrPaymentGateway) {
		t.Fatalf("expected ErrPaymentGateway, got %v", err)
	}
	reloaded, _ := env.orderSvc.Get(user.ID, order.ID)
	if reloaded.Status != constants.OrderStatusConfirmed || reloaded.PaymentStatus != constants.PaymentStatusCompleted {
		t.Fatalf("state must be rolled back, got %s/%s", reloaded.Status, reloaded.PaymentStatus)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("stock must stay decremented, got %d", got)
	}
}

func TestListOrdersValidatesStatus(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "list@example.com")
	createPendingOrder(t, env, user.ID, "pi_list_1")
	createPendingOrder(t, env, user.ID, "pi_list_2")

	if _, _, _, _, err := env.orderSvc.List(ListOrdersInput{UserID: user.ID, Status: "teleported"}); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Fatalf("expected ErrInvalidOrderStatus, got %v", err)
	}
	orders, total, page, pageSize, err := env.orderSvc.List(ListOrdersInput{UserID: user.ID, Status: "pending", PageSize: 500})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 2 || len(orders) != 2 || page != 1 || pageSize != defaultMaxPageSize {
		t.Fatalf("unexpected list result: total=%d len=%d page=%d size=%d", total, len(orders), page, pageSize)
	}
	if _, err := env.orderSvc.GetByNumber(user.ID, orders[0].OrderNumber); err != nil {
		t.Fatalf("get by number failed: %v", err)
	}
	if _, err := env.orderSvc.Get(user.ID+1, orders[0].ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for other user, got %v", err)
	}
}

func TestNextOrderState(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		from    orderState
		want    orderState
		wantErr bool
	}{
		{name: "webhook_success_pending", trigger: triggerWebhookSuccess, from: statePendingUnpaid, want: stateConfirmedPaid},
		{name: "cancel_unpaid", trigger: triggerCancel, from: stateConfirmedUnpaid, want: stateCancelledPending},
		{name: "cancel_paid_refunds", trigger: triggerCancel, from: stateConfirmedPaid, want: stateCancelledRefunded},
		{name: "cancel_shipped", trigger: triggerCancel, from: stateShippedPaid, wantErr: true},
		{name: "refund_delivered", trigger: triggerRefundFull, from: stateDeliveredPaid, want: stateReturnedRefunded},
		{name: "refund_unpaid", trigger: triggerRefundFull, from: statePendingUnpaid, wantErr: true},
		{name: "ship_processing", trigger: triggerShip, from: stateProcessingPaid, want: stateShippedPaid},
		{name: "deliver_confirmed", trigger: triggerDeliver, from: stateConfirmedPaid, wantErr: true},
		{name: "unknown_trigger", trigger: "teleport", from: statePendingUnpaid, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextOrderState(tt.trigger, tt.from)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}

	// 任何流转都不会产生 cancelled/completed
	for trigger, targets := range orderTransitions {
		for from, to := range targets {
			if to.Status == constants.OrderStatusCancelled && to.PaymentStatus == constants.PaymentStatusCompleted {
				t.Fatalf("%s from %s leads to cancelled/completed", trigger, from)
			}
		}
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	number := generateOrderNumber("", now)
	if len(number) != len("LO-20260304-")+8 || number[:12] != "LO-20260304-" {
		t.Fatalf("unexpected order number: %s", number)
	}
	if generateOrderNumber("lo", now) == number {
		t.Fatalf("order numbers must be random")
	}
}
