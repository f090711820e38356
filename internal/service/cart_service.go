package service

import (
	"time"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/repository"
)

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	UserID              uint
	ProductID           uint
	VariantID           uint
	PrescriptionID      uint
	Quantity            int
	LensOptions         models.JSON
	FrameAdjustments    models.JSON
	SpecialInstructions string
}

// UpdateCartItemInput 更新购物车项输入（nil 表示不修改）
type UpdateCartItemInput struct {
	Quantity            *int
	LensOptions         models.JSON
	FrameAdjustments    models.JSON
	SpecialInstructions *string
}

// CartSummary 购物车汇总
type CartSummary struct {
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  models.Money      `json:"subtotal"`
}

// CartViolation 结算校验问题
type CartViolation struct {
	ItemID    uint   `json:"item_id"`
	ProductID uint   `json:"product_id"`
	Reason    string `json:"reason"`
	Available int    `json:"available_stock"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo         repository.CartRepository
	productRepo      repository.ProductRepository
	prescriptionRepo repository.PrescriptionRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, prescriptionRepo repository.PrescriptionRepository) *CartService {
	return &CartService{
		cartRepo:         cartRepo,
		productRepo:      productRepo,
		prescriptionRepo: prescriptionRepo,
	}
}

// List 获取购物车及小计
func (s *CartService) List(userID uint) (*CartSummary, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return summarizeCart(items), nil
}

// Count 购物车商品总件数
func (s *CartService) Count(userID uint) (int64, error) {
	return s.cartRepo.CountQuantity(userID)
}

// Add 加入购物车，相同 (商品, 变体, 处方) 合并数量
func (s *CartService) Add(input AddCartItemInput) (*models.CartItem, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(input.ProductID, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	var variant *models.ProductVariant
	if input.VariantID > 0 {
		variant, err = s.productRepo.GetVariant(product.ID, input.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil || !variant.IsActive {
			return nil, ErrVariantNotFound
		}
	}

	if input.PrescriptionID > 0 {
		prescription, err := s.prescriptionRepo.GetByIDAndUser(input.PrescriptionID, input.UserID)
		if err != nil {
			return nil, err
		}
		if prescription == nil {
			return nil, ErrPrescriptionNotFound
		}
	}

	existing, err := s.cartRepo.FindLine(input.UserID, product.ID, input.VariantID, input.PrescriptionID)
	if err != nil {
		return nil, err
	}
	requested := input.Quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if err := checkStock(product, variant, requested); err != nil {
		return nil, err
	}

	now := time.Now()
	instructions := sanitizePlainText(input.SpecialInstructions)
	if existing != nil {
		if err := s.mergeLine(existing, requested, input, instructions, now); err != nil {
			return nil, err
		}
		return s.cartRepo.GetByIDAndUser(existing.ID, input.UserID)
	}

	item := &models.CartItem{
		UserID:              input.UserID,
		ProductID:           product.ID,
		VariantID:           input.VariantID,
		PrescriptionID:      input.PrescriptionID,
		Quantity:            input.Quantity,
		LensOptions:         input.LensOptions,
		FrameAdjustments:    input.FrameAdjustments,
		SpecialInstructions: instructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.cartRepo.Create(item); err != nil {
		// 并发插入同一行时唯一索引冲突，回退为合并
		raced, findErr := s.cartRepo.FindLine(input.UserID, product.ID, input.VariantID, input.PrescriptionID)
		if findErr != nil || raced == nil {
			return nil, err
		}
		requested = raced.Quantity + input.Quantity
		if err := checkStock(product, variant, requested); err != nil {
			return nil, err
		}
		if err := s.mergeLine(raced, requested, input, instructions, now); err != nil {
			return nil, err
		}
		return s.cartRepo.GetByIDAndUser(raced.ID, input.UserID)
	}
	return s.cartRepo.GetByIDAndUser(item.ID, input.UserID)
}

func (s *CartService) mergeLine(line *models.CartItem, quantity int, input AddCartItemInput, instructions string, now time.Time) error {
	line.Quantity = quantity
	line.LensOptions = input.LensOptions
	line.FrameAdjustments = input.FrameAdjustments
	line.SpecialInstructions = instructions
	line.UpdatedAt = now
	return s.cartRepo.Update(line)
}

// Update 修改购物车项数量或定制信息
func (s *CartService) Update(userID, itemID uint, input UpdateCartItemInput) (*models.CartItem, error) {
	item, err := s.cartRepo.GetByIDAndUser(itemID, userID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if item.Product == nil || !item.Product.IsActive {
			return nil, ErrProductNotFound
		}
		if err := checkStock(item.Product, item.Variant, *input.Quantity); err != nil {
			return nil, err
		}
		item.Quantity = *input.Quantity
	}
	if input.LensOptions != nil {
		item.LensOptions = input.LensOptions
	}
	if input.FrameAdjustments != nil {
		item.FrameAdjustments = input.FrameAdjustments
	}
	if input.SpecialInstructions != nil {
		item.SpecialInstructions = sanitizePlainText(*input.SpecialInstructions)
	}
	item.UpdatedAt = time.Now()
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByIDAndUser(item.ID, userID)
}

// Remove 删除购物车项（不存在时视为成功）
func (s *CartService) Remove(userID, itemID uint) error {
	return s.cartRepo.DeleteByIDAndUser(itemID, userID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}

// ValidateForCheckout 结算前校验购物车，不修改任何数据
func (s *CartService) ValidateForCheckout(userID uint) ([]CartViolation, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	violations := collectCartViolations(items)
	if len(violations) > 0 {
		logger.Debugw("cart_checkout_validation_failed", "user_id", userID, "violations", len(violations))
	}
	return violations, nil
}

func collectCartViolations(items []models.CartItem) []CartViolation {
	violations := make([]CartViolation, 0)
	for _, item := range items {
		product := item.Product
		if product == nil || !product.IsActive || (item.VariantID > 0 && (item.Variant == nil || !item.Variant.IsActive)) {
			violations = append(violations, CartViolation{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Reason:    constants.CartViolationInactiveProduct,
			})
			continue
		}
		available, tracked := availableStock(product, item.Variant)
		if tracked && item.Quantity > available {
			violations = append(violations, CartViolation{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Reason:    constants.CartViolationInsufficientStock,
				Available: available,
			})
		}
	}
	return violations
}

func summarizeCart(items []models.CartItem) *CartSummary {
	summary := &CartSummary{Items: items}
	if summary.Items == nil {
		summary.Items = []models.CartItem{}
	}
	totals := make([]models.Money, 0, len(items))
	for i := range items {
		summary.ItemCount += items[i].Quantity
		totals = append(totals, items[i].LineTotal())
	}
	summary.Subtotal = models.SumMoney(totals...)
	return summary
}

// availableStock 可售库存；选择变体时取变体与商品库存的较小值
func availableStock(product *models.Product, variant *models.ProductVariant) (int, bool) {
	if product == nil || !product.TrackInventory {
		return 0, false
	}
	available := product.StockQuantity
	if variant != nil && variant.StockQuantity < available {
		available = variant.StockQuantity
	}
	if available < 0 {
		available = 0
	}
	return available, true
}

func checkStock(product *models.Product, variant *models.ProductVariant, quantity int) error {
	available, tracked := availableStock(product, variant)
	if !tracked || quantity <= available {
		return nil
	}
	return &InsufficientStockError{ProductID: product.ID, Available: available}
}
