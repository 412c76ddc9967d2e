package models

import (
	"time"
)

// Product 商品主档表（主商品，按公司租户隔离）
type Product struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                               // 主键
	CompanyID   uint      `gorm:"not null;default:1;index;uniqueIndex:idx_products_company_legacy" json:"company_id"` // 公司（租户）ID
	Name        string    `gorm:"size:200;not null" json:"name"`                                                      // 商品名称
	Price       int64     `gorm:"not null;default:0" json:"price"`                                                    // 价格（非负整数，币种随租户）
	BrandSeq    *uint     `gorm:"index" json:"brand_seq"`                                                             // 品牌编码主键（codes.id）
	CategorySeq *uint     `gorm:"index" json:"category_seq"`                                                          // 品类编码主键（ProductGroup 组）
	TypeSeq     *uint     `gorm:"index" json:"type_seq"`                                                              // 类型编码主键（ProductType 组）
	YearSeq     *uint     `gorm:"index" json:"year_seq"`                                                              // 年度编码主键（Year 组）
	UseYn       string    `gorm:"size:1;not null;default:Y;index" json:"use_yn"`                                      // 使用标记 Y/N（可发布）
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`                                       // 是否有效（业务软删标记）
	LegacySeq   *int64    `gorm:"uniqueIndex:idx_products_company_legacy" json:"legacy_seq"`                          // 旧系统主键回溯（导入来源）
	CreatedBy   string    `gorm:"size:50" json:"created_by"`                                                          // 创建人
	UpdatedBy   string    `gorm:"size:50" json:"updated_by"`                                                          // 更新人
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                                            // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                                         // 更新时间

	// 关联
	Variants []ProductVariant `gorm:"foreignKey:MasterID" json:"variants,omitempty"` // 规格行列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// IsComplete 四个主档编码外键是否齐全
func (p *Product) IsComplete() bool {
	return p.BrandSeq != nil && p.CategorySeq != nil && p.TypeSeq != nil && p.YearSeq != nil
}
