package models

import (
	"time"
)

// Code 编码字典表（자가코드控制词表，自引用树结构）
// depth=0 为编码组根节点，depth=1 为组内成员
type Code struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                  // 主键
	ParentID    *uint     `gorm:"uniqueIndex:idx_codes_parent_short;index" json:"parent_id"`             // 父节点主键（NULL 表示根编码组）
	Depth       int       `gorm:"not null;default:0;index" json:"depth"`                                 // 树深度（0=组，1=成员）
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`                                  // 同级排序
	ShortCode   string    `gorm:"size:16;not null;uniqueIndex:idx_codes_parent_short" json:"short_code"` // 短编码（同父节点下唯一，各组定宽）
	Name        string    `gorm:"size:100;not null" json:"name"`                                         // 显示名称
	Description string    `gorm:"size:255" json:"description"`                                           // 备注说明
	UseYn       string    `gorm:"size:1;not null;default:Y;index" json:"use_yn"`                         // 使用标记 Y/N
	CreatedBy   string    `gorm:"size:50" json:"created_by"`                                             // 创建人
	UpdatedBy   string    `gorm:"size:50" json:"updated_by"`                                             // 更新人
	CreatedAt   time.Time `json:"created_at"`                                                            // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                            // 更新时间
}

// TableName 指定表名
func (Code) TableName() string {
	return "codes"
}

// IsGroup 是否为根编码组
func (c *Code) IsGroup() bool {
	return c.Depth == 0
}
