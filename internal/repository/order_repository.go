package repository

import (
	"errors"

	"github.com/lumen-optics/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetByNumberAndUser(orderNumber string, userID uint) (*models.Order, error)
	GetByPaymentIntent(intentID string) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateState(id uint, fromStatus, fromPaymentStatus string, updates map[string]interface{}) (int64, error)
	ResolveReceiver(orderID uint) (*models.User, error)
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *GormOrderRepository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(query).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items", "User").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	return r.first(r.db.Where("id = ? AND user_id = ?", id, userID))
}

// GetByNumberAndUser 按订单号获取用户订单
func (r *GormOrderRepository) GetByNumberAndUser(orderNumber string, userID uint) (*models.Order, error) {
	return r.first(r.db.Where("order_number = ? AND user_id = ?", orderNumber, userID))
}

// GetByPaymentIntent 按支付意图查找订单
func (r *GormOrderRepository) GetByPaymentIntent(intentID string) (*models.Order, error) {
	if intentID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("payment_intent_id = ?", intentID))
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.withItems(query).Scopes(paginate(filter.Page, filter.PageSize))
	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateState 以当前状态为条件更新订单（状态未变时才写入），返回受影响行数
func (r *GormOrderRepository) UpdateState(id uint, fromStatus, fromPaymentStatus string, updates map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, fromStatus, fromPaymentStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// ResolveReceiver 获取订单通知收件人
func (r *GormOrderRepository) ResolveReceiver(orderID uint) (*models.User, error) {
	var user models.User
	err := r.db.Model(&models.User{}).
		Joins("JOIN orders ON orders.user_id = users.id").
		Where("orders.id = ?", orderID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
