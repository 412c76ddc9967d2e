package models

import (
	"time"
)

// SelfCodeLength 自定编码（자가코드）固定长度
const SelfCodeLength = 16

// ProductVariant 商品规格行（SKU，主商品 × 颜色 × 年度）
// 八个编码字段直接存放短编码字符串而非 codes 主键，
// 行内自描述，self_code 恒等于八段拼接
type ProductVariant struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                         // 主键
	MasterID    uint      `gorm:"not null;index;uniqueIndex:idx_variants_master_self" json:"master_id"`         // 所属主商品ID
	Brand       string    `gorm:"size:2;not null" json:"brand"`                                                 // 品牌（宽2）
	DivType     string    `gorm:"size:1;not null" json:"div_type"`                                              // 区分类型（宽1）
	ProdGroup   string    `gorm:"size:2;not null" json:"prod_group"`                                            // 品类（宽2）
	ProdType    string    `gorm:"size:2;not null" json:"prod_type"`                                             // 类型（宽2）
	ProdCode    string    `gorm:"size:2;not null" json:"prod_code"`                                             // 流水编码（宽2，XX 表示未分配）
	ProdType2   string    `gorm:"size:2;not null" json:"prod_type2"`                                            // 二级类型（宽2，常为 00）
	Year        string    `gorm:"size:2;not null" json:"year"`                                                  // 年度（宽2）
	Color       string    `gorm:"size:3;not null" json:"color"`                                                 // 颜色（宽3）
	SelfCode    string    `gorm:"size:16;not null;index;uniqueIndex:idx_variants_master_self" json:"self_code"` // 16位自定编码
	VariantName string    `gorm:"size:200" json:"variant_name"`                                                 // 规格名称（一般为主商品名+颜色）
	Status      string    `gorm:"size:10;not null;default:Active;index" json:"status"`                          // 状态 Active/Inactive
	LegacySeq   *int64    `gorm:"uniqueIndex" json:"legacy_seq"`                                                // 旧系统主键回溯
	CreatedBy   string    `gorm:"size:50" json:"created_by"`                                                    // 创建人
	UpdatedBy   string    `gorm:"size:50" json:"updated_by"`                                                    // 更新人
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                                      // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                                   // 更新时间

	Master *Product `gorm:"foreignKey:MasterID;constraint:OnDelete:CASCADE" json:"master,omitempty"` // 关联主商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// Tokens 返回八个编码字段
func (v *ProductVariant) Tokens() [8]string {
	return [8]string{v.Brand, v.DivType, v.ProdGroup, v.ProdType, v.ProdCode, v.ProdType2, v.Year, v.Color}
}
