package models

import (
	"time"
)

// Prescription 验光处方
type Prescription struct {
	ID                   uint       `gorm:"primarykey" json:"id"`                                  // 主键
	UserID               uint       `gorm:"index;not null" json:"user_id"`                         // 用户ID
	PrescriptionName     string     `gorm:"type:varchar(100);not null" json:"prescription_name"`   // 处方名称
	RightSphere          *float64   `json:"right_sphere"`                                          // 右眼球镜
	RightCylinder        *float64   `json:"right_cylinder"`                                        // 右眼柱镜
	RightAxis            *int       `json:"right_axis"`                                            // 右眼轴位
	RightAdd             *float64   `json:"right_add"`                                             // 右眼下加光
	LeftSphere           *float64   `json:"left_sphere"`                                           // 左眼球镜
	LeftCylinder         *float64   `json:"left_cylinder"`                                         // 左眼柱镜
	LeftAxis             *int       `json:"left_axis"`                                             // 左眼轴位
	LeftAdd              *float64   `json:"left_add"`                                              // 左眼下加光
	PupillaryDistance    *float64   `json:"pupillary_distance"`                                    // 瞳距
	DoctorName           string     `gorm:"type:varchar(100)" json:"doctor_name"`                  // 验光师
	PrescriptionDate     *time.Time `json:"prescription_date"`                                     // 验光日期
	ExpiryDate           *time.Time `json:"expiry_date"`                                           // 过期日期
	Notes                string     `gorm:"type:text" json:"notes"`                                // 备注
	IsDefault            bool       `gorm:"default:false;index" json:"is_default"`                 // 是否默认
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt            time.Time  `json:"updated_at"`                                            // 更新时间
}

// TableName 指定表名
func (Prescription) TableName() string {
	return "prescriptions"
}
