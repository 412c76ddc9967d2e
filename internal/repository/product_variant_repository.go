package repository

import (
	"errors"

	"github.com/catalog-next/internal/models"

	"gorm.io/gorm"
)

// ProductVariantRepository 商品规格行数据访问接口
type ProductVariantRepository interface {
	ListByMaster(masterID uint) ([]models.ProductVariant, error)
	ListByMasterIDs(masterIDs []uint) ([]models.ProductVariant, error)
	GetByID(id uint) (*models.ProductVariant, error)
	GetByLegacy(legacySeq int64) (*models.ProductVariant, error)
	GetByMasterAndSelfCode(masterID uint, selfCode string) (*models.ProductVariant, error)
	CountBySelfCodeInCompany(companyID uint, selfCode string, excludeID *uint) (int64, error)
	CountBySelfCodeInOtherMasters(companyID uint, selfCode string, masterID uint) (int64, error)
	ListProdCodesByPrefix(prefix VariantPrefixFilter) ([]string, error)
	Create(variant *models.ProductVariant) error
	Update(variant *models.ProductVariant) error
	Delete(id uint) error
	DeleteByMasterAndSelfCodes(masterID uint, selfCodes []string) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductVariantRepository
}

// GormProductVariantRepository GORM 实现
type GormProductVariantRepository struct {
	db *gorm.DB
}

// NewProductVariantRepository 创建商品规格仓库
func NewProductVariantRepository(db *gorm.DB) *GormProductVariantRepository {
	return &GormProductVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductVariantRepository) WithTx(tx *gorm.DB) ProductVariantRepository {
	if tx == nil {
		return r
	}
	return &GormProductVariantRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductVariantRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// ListByMaster 列出某主商品的全部规格行
func (r *GormProductVariantRepository) ListByMaster(masterID uint) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	if err := r.db.Where("master_id = ?", masterID).
		Order("self_code ASC, id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// ListByMasterIDs 批量列出多个主商品的规格行（列表页装配用）
func (r *GormProductVariantRepository) ListByMasterIDs(masterIDs []uint) ([]models.ProductVariant, error) {
	if len(masterIDs) == 0 {
		return []models.ProductVariant{}, nil
	}
	var variants []models.ProductVariant
	if err := r.db.Where("master_id IN ?", masterIDs).
		Order("master_id ASC, self_code ASC, id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// GetByID 根据主键获取规格行
func (r *GormProductVariantRepository) GetByID(id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// GetByLegacy 根据旧系统主键获取规格行
func (r *GormProductVariantRepository) GetByLegacy(legacySeq int64) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.Where("legacy_seq = ?", legacySeq).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// GetByMasterAndSelfCode 按（主商品，自定编码）获取规格行
func (r *GormProductVariantRepository) GetByMasterAndSelfCode(masterID uint, selfCode string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.Where("master_id = ? AND self_code = ?", masterID, selfCode).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// CountBySelfCodeInCompany 统计自定编码在租户内的出现次数
// 同一租户内自定编码应唯一，约束在写入时程序化检查
func (r *GormProductVariantRepository) CountBySelfCodeInCompany(companyID uint, selfCode string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.ProductVariant{}).
		Joins("JOIN products p ON p.id = product_variants.master_id").
		Where("p.company_id = ? AND product_variants.self_code = ?", companyID, selfCode)
	if excludeID != nil {
		query = query.Where("product_variants.id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySelfCodeInOtherMasters 统计自定编码被租户内其他主商品占用的次数
func (r *GormProductVariantRepository) CountBySelfCodeInOtherMasters(companyID uint, selfCode string, masterID uint) (int64, error) {
	var count int64
	result := r.db.Model(&models.ProductVariant{}).
		Joins("JOIN products p ON p.id = product_variants.master_id").
		Where("p.company_id = ? AND product_variants.self_code = ? AND product_variants.master_id != ?",
			companyID, selfCode, masterID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// ListProdCodesByPrefix 列出同（品牌，区分，品类，类型）前缀下已占用的流水编码
func (r *GormProductVariantRepository) ListProdCodesByPrefix(prefix VariantPrefixFilter) ([]string, error) {
	prodCodes := make([]string, 0)
	result := r.db.Model(&models.ProductVariant{}).
		Where("brand = ? AND div_type = ? AND prod_group = ? AND prod_type = ?",
			prefix.Brand, prefix.DivType, prefix.ProdGroup, prefix.ProdType).
		Distinct().
		Pluck("prod_code", &prodCodes)
	if result.Error != nil {
		return nil, result.Error
	}
	return prodCodes, nil
}

// Create 创建规格行
func (r *GormProductVariantRepository) Create(variant *models.ProductVariant) error {
	return r.db.Create(variant).Error
}

// Update 更新规格行
func (r *GormProductVariantRepository) Update(variant *models.ProductVariant) error {
	return r.db.Save(variant).Error
}

// Delete 删除规格行
func (r *GormProductVariantRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.ProductVariant{}, id).Error
}

// DeleteByMasterAndSelfCodes 删除主商品下指定自定编码的规格行
func (r *GormProductVariantRepository) DeleteByMasterAndSelfCodes(masterID uint, selfCodes []string) error {
	if len(selfCodes) == 0 {
		return nil
	}
	return r.db.Where("master_id = ? AND self_code IN ?", masterID, selfCodes).
		Delete(&models.ProductVariant{}).Error
}
