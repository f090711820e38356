package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OrderNumber     string         `gorm:"uniqueIndex;not null" json:"order_number"`                       // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                                  // 用户ID
	Status          string         `gorm:"index;not null" json:"status"`                                   // 订单状态
	PaymentStatus   string         `gorm:"index;not null" json:"payment_status"`                           // 支付状态
	PaymentMethod   string         `gorm:"type:varchar(40)" json:"payment_method"`                         // 支付方式
	PaymentIntentID string         `gorm:"uniqueIndex;type:varchar(120)" json:"payment_intent_id"`         // 支付意图ID
	Currency        string         `gorm:"type:varchar(10);not null" json:"currency"`                      // 币种
	Subtotal        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`          // 商品小计
	TaxAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`        // 税费
	ShippingAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"`   // 运费
	DiscountAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`   // 优惠金额
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`      // 实付金额
	BillingAddress  JSON           `gorm:"type:json" json:"billing_address"`                               // 账单地址快照
	ShippingAddress JSON           `gorm:"type:json" json:"shipping_address"`                              // 收货地址快照
	ShippingMethod  string         `gorm:"type:varchar(60)" json:"shipping_method"`                        // 配送方式
	TrackingNumber  string         `gorm:"type:varchar(120)" json:"tracking_number"`                       // 物流单号
	Notes           string         `gorm:"type:text" json:"notes"`                                         // 客户备注
	AdminNotes      string         `gorm:"type:text" json:"admin_notes,omitempty"`                         // 后台备注
	ShippedAt       *time.Time     `gorm:"index" json:"shipped_at"`                                        // 发货时间
	DeliveredAt     *time.Time     `gorm:"index" json:"delivered_at"`                                      // 签收时间
	CancelledAt     *time.Time     `gorm:"index" json:"cancelled_at"`                                      // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	User  *User       `gorm:"foreignKey:UserID" json:"-"`               // 下单用户
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
