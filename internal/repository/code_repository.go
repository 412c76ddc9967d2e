package repository

import (
	"errors"
	"strings"

	"github.com/catalog-next/internal/models"

	"gorm.io/gorm"
)

// CodeRepository 编码字典数据访问接口
type CodeRepository interface {
	ListGroups() ([]models.Code, error)
	ListMembers(parentID uint) ([]models.Code, error)
	ListAll() ([]models.Code, error)
	GetByID(id uint) (*models.Code, error)
	GetGroupByName(name string) (*models.Code, error)
	GetByParentAndShortCode(parentID uint, shortCode string) (*models.Code, error)
	CountByParentAndShortCode(parentID uint, shortCode string, excludeID *uint) (int64, error)
	Create(code *models.Code) error
	Update(code *models.Code) error
	Reorder(parentID uint, orderedIDs []uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CodeRepository
}

// GormCodeRepository GORM 实现
type GormCodeRepository struct {
	db *gorm.DB
}

// NewCodeRepository 创建编码字典仓库
func NewCodeRepository(db *gorm.DB) *GormCodeRepository {
	return &GormCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCodeRepository) WithTx(tx *gorm.DB) CodeRepository {
	if tx == nil {
		return r
	}
	return &GormCodeRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCodeRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// ListGroups 列出全部根编码组（depth=0），按 sort_order, id 排序
func (r *GormCodeRepository) ListGroups() ([]models.Code, error) {
	var groups []models.Code
	if err := r.db.Where("depth = ?", 0).
		Order("sort_order ASC, id ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// ListMembers 列出某编码组的成员，按 sort_order, short_code 排序
func (r *GormCodeRepository) ListMembers(parentID uint) ([]models.Code, error) {
	var members []models.Code
	if err := r.db.Where("parent_id = ?", parentID).
		Order("sort_order ASC, short_code ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListAll 列出词表全量行（解析器快照加载用）
func (r *GormCodeRepository) ListAll() ([]models.Code, error) {
	var codes []models.Code
	if err := r.db.Order("depth ASC, sort_order ASC, id ASC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// GetByID 根据主键获取编码
func (r *GormCodeRepository) GetByID(id uint) (*models.Code, error) {
	var code models.Code
	if err := r.db.First(&code, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetGroupByName 根据组名获取根编码组
func (r *GormCodeRepository) GetGroupByName(name string) (*models.Code, error) {
	var group models.Code
	err := r.db.Where("depth = ? AND short_code = ?", 0, strings.TrimSpace(name)).
		First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// GetByParentAndShortCode 按（父节点，短编码）获取成员，写校验热路径
func (r *GormCodeRepository) GetByParentAndShortCode(parentID uint, shortCode string) (*models.Code, error) {
	var code models.Code
	err := r.db.Where("parent_id = ? AND short_code = ?", parentID, shortCode).
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// CountByParentAndShortCode 统计同父节点下短编码出现次数
func (r *GormCodeRepository) CountByParentAndShortCode(parentID uint, shortCode string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Code{}).
		Where("parent_id = ? AND short_code = ?", parentID, shortCode)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create 创建编码
func (r *GormCodeRepository) Create(code *models.Code) error {
	return r.db.Create(code).Error
}

// Update 更新编码
func (r *GormCodeRepository) Update(code *models.Code) error {
	return r.db.Save(code).Error
}

// Reorder 重排某父节点下全部兄弟节点的 sort_order
// 整个兄弟集合在一个事务内重写，要么全部生效要么全部回滚
func (r *GormCodeRepository) Reorder(parentID uint, orderedIDs []uint) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for index, id := range orderedIDs {
			result := tx.Model(&models.Code{}).
				Where("id = ? AND parent_id = ?", id, parentID).
				Update("sort_order", index+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}
