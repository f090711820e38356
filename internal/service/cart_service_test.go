package service

import (
	"errors"
	"testing"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/models"

	"github.com/shopspring/decimal"
)

func TestCartAddThenRemoveRestoresTotal(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "cart@example.com")
	first := env.createProduct(t, "SKU-C1", "120.00", 10)
	second := env.createProduct(t, "SKU-C2", "35.50", 10)

	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: first.ID, Quantity: 1}); err != nil {
		t.Fatalf("add first failed: %v", err)
	}
	before, err := env.cartSvc.List(user.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}

	added, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: second.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add second failed: %v", err)
	}
	during, _ := env.cartSvc.List(user.ID)
	if during.Subtotal.String() != "191.00" || during.ItemCount != 3 {
		t.Fatalf("unexpected cart during: subtotal=%s count=%d", during.Subtotal.String(), during.ItemCount)
	}

	if err := env.cartSvc.Remove(user.ID, added.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	after, _ := env.cartSvc.List(user.ID)
	if !after.Subtotal.Equal(before.Subtotal.Decimal) || after.ItemCount != before.ItemCount {
		t.Fatalf("cart total not restored: before=%s after=%s", before.Subtotal.String(), after.Subtotal.String())
	}

	// 删除不存在的行视为成功
	if err := env.cartSvc.Remove(user.ID, added.ID); err != nil {
		t.Fatalf("removing a missing line must succeed: %v", err)
	}
}

func TestCartAddMergesMatchingLine(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "merge@example.com")
	product := env.createProduct(t, "SKU-M", "10.00", 5)

	first, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2, LensOptions: models.JSON{"coating": "blue"}})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	merged, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1, LensOptions: models.JSON{"coating": "ar"}})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if merged.ID != first.ID || merged.Quantity != 3 {
		t.Fatalf("expected merged line %d with qty 3, got %d qty %d", first.ID, merged.ID, merged.Quantity)
	}
	if merged.LensOptions["coating"] != "ar" {
		t.Fatalf("expected options overwritten, got %v", merged.LensOptions)
	}
	count, err := env.cartSvc.Count(user.ID)
	if err != nil || count != 3 {
		t.Fatalf("expected count 3, got %d (%v)", count, err)
	}
}

func TestCartRejectsQuantityOverStock(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "stock@example.com")
	product := env.createProduct(t, "SKU-S", "10.00", 3)

	_, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 4})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.Available != 3 {
		t.Fatalf("expected InsufficientStockError with 3 available, got %v", err)
	}

	item, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("merged quantity over stock must fail, got %v", err)
	}

	tooMany := 5
	if _, err := env.cartSvc.Update(user.ID, item.ID, UpdateCartItemInput{Quantity: &tooMany}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("update over stock must fail, got %v", err)
	}
	zero := 0
	if _, err := env.cartSvc.Update(user.ID, item.ID, UpdateCartItemInput{Quantity: &zero}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := env.cartSvc.Update(user.ID+100, item.ID, UpdateCartItemInput{Quantity: &zero}); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}

	// 不跟踪库存的商品不受限制
	if err := env.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("track_inventory", false).Error; err != nil {
		t.Fatalf("disable tracking failed: %v", err)
	}
	if _, err := env.cartSvc.Update(user.ID, item.ID, UpdateCartItemInput{Quantity: &tooMany}); err != nil {
		t.Fatalf("untracked product must accept any quantity: %v", err)
	}
}

func TestCartAddValidatesReferences(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "refs@example.com")
	other := env.createUser(t, "refs-other@example.com")
	product := env.createProduct(t, "SKU-R", "10.00", 3)
	otherProduct := env.createProduct(t, "SKU-R2", "10.00", 3)

	variant := &models.ProductVariant{ProductID: otherProduct.ID, Name: "Black", SKU: "SKU-R2-BLK", StockQuantity: 3, IsActive: true}
	if err := env.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	prescription := &models.Prescription{UserID: other.ID, PrescriptionName: "Other"}
	if err := env.db.Create(prescription).Error; err != nil {
		t.Fatalf("create prescription failed: %v", err)
	}

	tests := []struct {
		name  string
		input AddCartItemInput
		want  error
	}{
		{name: "zero_quantity", input: AddCartItemInput{UserID: user.ID, ProductID: product.ID}, want: ErrInvalidQuantity},
		{name: "missing_product", input: AddCartItemInput{UserID: user.ID, ProductID: 9999, Quantity: 1}, want: ErrProductNotFound},
		{name: "foreign_variant", input: AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 1}, want: ErrVariantNotFound},
		{name: "foreign_prescription", input: AddCartItemInput{UserID: user.ID, ProductID: product.ID, PrescriptionID: prescription.ID, Quantity: 1}, want: ErrPrescriptionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.cartSvc.Add(tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCartVariantUsesLowerStockAndAdjustedPrice(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "variant@example.com")
	product := env.createProduct(t, "SKU-V", "100.00", 10)
	variant := &models.ProductVariant{
		ProductID:       product.ID,
		Name:            "Tortoise",
		SKU:             "SKU-V-TOR",
		PriceAdjustment: models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")),
		StockQuantity:   2,
		IsActive:        true,
	}
	if err := env.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}

	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 3}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("variant stock must limit quantity, got %v", err)
	}
	item, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add variant failed: %v", err)
	}
	if item.UnitPrice().String() != "115.00" || item.LineTotal().String() != "230.00" {
		t.Fatalf("unexpected variant pricing: unit=%s total=%s", item.UnitPrice().String(), item.LineTotal().String())
	}
}

func TestValidateForCheckout(t *testing.T) {
	env := setupCommerceTest(t)
	user := env.createUser(t, "validate@example.com")
	if _, err := env.cartSvc.ValidateForCheckout(user.ID); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}

	active := env.createProduct(t, "SKU-VA", "10.00", 5)
	retired := env.createProduct(t, "SKU-VR", "10.00", 5)
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: active.ID, Quantity: 4}); err != nil {
		t.Fatalf("add active failed: %v", err)
	}
	if _, err := env.cartSvc.Add(AddCartItemInput{UserID: user.ID, ProductID: retired.ID, Quantity: 1}); err != nil {
		t.Fatalf("add retired failed: %v", err)
	}
	env.db.Model(&models.Product{}).Where("id = ?", active.ID).Update("stock_quantity", 1)
	env.db.Model(&models.Product{}).Where("id = ?", retired.ID).Update("is_active", false)

	violations, err := env.cartSvc.ValidateForCheckout(user.ID)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", violations)
	}
	reasons := map[uint]CartViolation{}
	for _, v := range violations {
		reasons[v.ProductID] = v
	}
	if reasons[active.ID].Reason != constants.CartViolationInsufficientStock || reasons[active.ID].Available != 1 {
		t.Fatalf("unexpected stock violation: %+v", reasons[active.ID])
	}
	if reasons[retired.ID].Reason != constants.CartViolationInactiveProduct {
		t.Fatalf("unexpected inactive violation: %+v", reasons[retired.ID])
	}
	if got := env.cartLines(t, user.ID); got != 2 {
		t.Fatalf("validation must not mutate the cart, got %d lines", got)
	}
}
