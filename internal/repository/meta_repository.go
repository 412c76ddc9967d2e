package repository

import (
	"errors"
	"strconv"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetaRepository 目录元数据访问接口
type MetaRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
	VocabularyVersion() (uint64, error)
	BumpVocabularyVersion(tx *gorm.DB) error
}

// GormMetaRepository GORM 实现
type GormMetaRepository struct {
	db *gorm.DB
}

// NewMetaRepository 创建元数据仓库
func NewMetaRepository(db *gorm.DB) *GormMetaRepository {
	return &GormMetaRepository{db: db}
}

// Get 读取元数据值，键不存在时返回空串
func (r *GormMetaRepository) Get(key string) (string, error) {
	var meta models.CatalogMeta
	if err := r.db.First(&meta, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// Set 写入元数据值（存在则覆盖）
func (r *GormMetaRepository) Set(key, value string) error {
	meta := models.CatalogMeta{Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// VocabularyVersion 读取词表版本号，缺省为 0
func (r *GormMetaRepository) VocabularyVersion() (uint64, error) {
	raw, err := r.Get(constants.MetaKeyVocabularyVersion)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	version, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		// 脏值按 0 处理，下次写入会覆盖
		return 0, nil
	}
	return version, nil
}

// BumpVocabularyVersion 词表版本号加一
// 在词表写事务内调用，读侧解析器据此惰性刷新缓存
// 单条 UPDATE 自增，并发写事务不会相互覆盖版本号
func (r *GormMetaRepository) BumpVocabularyVersion(tx *gorm.DB) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	result := db.Model(&models.CatalogMeta{}).
		Where("key = ?", constants.MetaKeyVocabularyVersion).
		Update("value", gorm.Expr("CAST(CAST(value AS INTEGER) + 1 AS TEXT)"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	first := models.CatalogMeta{
		Key:   constants.MetaKeyVocabularyVersion,
		Value: "1",
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value": gorm.Expr("CAST(CAST(value AS INTEGER) + 1 AS TEXT)"),
		}),
	}).Create(&first).Error
}
