package models

import (
	"time"
)

// CatalogMeta 目录元数据键值表（存放词表版本号等全局状态）
type CatalogMeta struct {
	Key       string    `gorm:"primarykey;size:64" json:"key"` // 元数据键
	Value     string    `gorm:"size:255" json:"value"`         // 元数据值
	UpdatedAt time.Time `json:"updated_at"`                    // 更新时间
}

// TableName 指定表名
func (CatalogMeta) TableName() string {
	return "catalog_meta"
}
