package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/catalog-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const variantExistsSQL = "EXISTS (SELECT 1 FROM product_variants pv WHERE pv.master_id = products.id)"
const completeCodeExistsSQL = "EXISTS (SELECT 1 FROM product_variants pv WHERE pv.master_id = products.id AND LENGTH(pv.self_code) = 16)"

// productSortColumns 列表排序字段白名单
var productSortColumns = map[string]string{
	"name":          "products.name",
	"price":         "products.price",
	"created_at":    "products.created_at",
	"updated_at":    "products.updated_at",
	"brand_name":    "brand_code.name",
	"category_name": "category_code.name",
	"type_name":     "type_code.name",
	"year_name":     "year_code.name",
}

// ProductRepository 商品主档数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]ProductRow, int64, error)
	Aggregates(filter ProductListFilter) (CatalogAggregates, error)
	GetByID(id uint) (*models.Product, error)
	GetByLegacy(companyID uint, legacySeq int64) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	UpdateColumns(id uint, values map[string]interface{}) error
	LockByID(id uint) (*models.Product, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品主档仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// listQuery 构建带编码名联接与过滤条件的基础查询
func (r *GormProductRepository) listQuery(filter ProductListFilter) *gorm.DB {
	query := r.db.Model(&models.Product{}).
		Joins("LEFT JOIN codes brand_code ON brand_code.id = products.brand_seq").
		Joins("LEFT JOIN codes category_code ON category_code.id = products.category_seq").
		Joins("LEFT JOIN codes type_code ON type_code.id = products.type_seq").
		Joins("LEFT JOIN codes year_code ON year_code.id = products.year_seq").
		Where("products.company_id = ?", filter.CompanyID)

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(fmt.Sprintf("products.name %s ?", likeOperator(r.db)), "%"+search+"%")
	}
	if filter.BrandSeq != nil {
		query = query.Where("products.brand_seq = ?", *filter.BrandSeq)
	}
	if filter.CategorySeq != nil {
		query = query.Where("products.category_seq = ?", *filter.CategorySeq)
	}
	if filter.TypeSeq != nil {
		query = query.Where("products.type_seq = ?", *filter.TypeSeq)
	}
	if filter.YearSeq != nil {
		query = query.Where("products.year_seq = ?", *filter.YearSeq)
	}
	if useYn := strings.TrimSpace(filter.UseYn); useYn != "" {
		query = query.Where("products.use_yn = ?", useYn)
	}
	if filter.IsActive != nil {
		query = query.Where("products.is_active = ?", *filter.IsActive)
	}
	if filter.HasVariants != nil {
		if *filter.HasVariants {
			query = query.Where(variantExistsSQL)
		} else {
			query = query.Where("NOT " + variantExistsSQL)
		}
	}
	return query
}

// List 商品主档分页列表，返回行与过滤条件下的总数
// 同一（过滤、排序、页码）组合的行序稳定，排序键并列时按主键升序
func (r *GormProductRepository) List(filter ProductListFilter) ([]ProductRow, int64, error) {
	query := r.listQuery(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn, ok := productSortColumns[strings.TrimSpace(filter.SortBy)]
	if !ok {
		sortColumn = "products.name"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	rows := make([]ProductRow, 0)
	err := applyPagination(query, filter.Page, filter.PageSize).
		Select("products.id, products.company_id, products.name, products.price, " +
			"products.brand_seq, products.category_seq, products.type_seq, products.year_seq, " +
			"products.use_yn, products.is_active, products.legacy_seq, " +
			"brand_code.name AS brand_name, category_code.name AS category_name, " +
			"type_code.name AS type_name, year_code.name AS year_name").
		Order(fmt.Sprintf("%s %s, products.id ASC", sortColumn, direction)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Aggregates 列表聚合统计（与列表同一过滤条件，忽略分页）
func (r *GormProductRepository) Aggregates(filter ProductListFilter) (CatalogAggregates, error) {
	var agg CatalogAggregates

	if err := r.listQuery(filter).Count(&agg.TotalProducts).Error; err != nil {
		return CatalogAggregates{}, err
	}
	if err := r.listQuery(filter).Where(variantExistsSQL).Count(&agg.WithVariants).Error; err != nil {
		return CatalogAggregates{}, err
	}
	if err := r.listQuery(filter).Where(completeCodeExistsSQL).Count(&agg.WithCompleteCode).Error; err != nil {
		return CatalogAggregates{}, err
	}
	return agg, nil
}

// GetByID 根据 ID 获取商品主档（含规格行）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("self_code ASC, id ASC")
	}).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByLegacy 根据（租户，旧系统主键）获取商品主档
func (r *GormProductRepository) GetByLegacy(companyID uint, legacySeq int64) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("company_id = ? AND legacy_seq = ?", companyID, legacySeq).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品主档
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品主档
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// UpdateColumns 按列更新商品主档
func (r *GormProductRepository) UpdateColumns(id uint, values map[string]interface{}) error {
	if id == 0 || len(values) == 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(values).Error
}

// LockByID 行锁读取商品主档
// 在事务内调用时串行化同一主商品的并发编辑
// sqlite 不支持 FOR UPDATE，写事务本身已持库级写锁
func (r *GormProductRepository) LockByID(id uint) (*models.Product, error) {
	query := r.db
	switch dbDialectName(r.db) {
	case "postgres", "postgresql":
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	err := query.First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}
