package service

import (
	"strings"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
)

// CatalogQueryService 目录查询服务
// 分页、排序、过滤的商品列表，联接词表解析显示名并装配规格行
type CatalogQueryService struct {
	productRepo repository.ProductRepository
	variantRepo repository.ProductVariantRepository
}

// NewCatalogQueryService 创建目录查询服务
func NewCatalogQueryService(productRepo repository.ProductRepository, variantRepo repository.ProductVariantRepository) *CatalogQueryService {
	return &CatalogQueryService{productRepo: productRepo, variantRepo: variantRepo}
}

// CatalogListInput 目录列表查询输入
type CatalogListInput struct {
	CompanyID   uint
	Search      string
	BrandSeq    *uint
	CategorySeq *uint
	TypeSeq     *uint
	YearSeq     *uint
	HasVariants *bool
	SortBy      string
	SortDesc    bool
	Page        int
	PageSize    int
	// ShowAll 为 false 时仅返回 use_yn=Y 且 is_active=true 的商品
	ShowAll bool
	// UseYn / IsActive 显式过滤条件，设置后覆盖 ShowAll 的缺省约束
	UseYn    string
	IsActive *bool
}

// CatalogProductRow 目录列表单行（主档 + 显示名 + 规格行）
type CatalogProductRow struct {
	repository.ProductRow
	Variants []models.ProductVariant `json:"variants"`
}

// CatalogListResult 目录列表查询结果
type CatalogListResult struct {
	Rows       []CatalogProductRow          `json:"rows"`
	Total      int64                        `json:"total"`
	Aggregates repository.CatalogAggregates `json:"aggregates"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"page_size"`
}

// buildFilter 由查询输入构建仓库过滤条件，统一页码与页宽边界
func (s *CatalogQueryService) buildFilter(input CatalogListInput) repository.ProductListFilter {
	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}
	companyID := input.CompanyID
	if companyID == 0 {
		companyID = constants.DefaultCompanyID
	}

	filter := repository.ProductListFilter{
		Page:        page,
		PageSize:    pageSize,
		CompanyID:   companyID,
		Search:      input.Search,
		BrandSeq:    input.BrandSeq,
		CategorySeq: input.CategorySeq,
		TypeSeq:     input.TypeSeq,
		YearSeq:     input.YearSeq,
		HasVariants: input.HasVariants,
		SortBy:      input.SortBy,
		SortDesc:    input.SortDesc,
	}
	if !input.ShowAll {
		active := true
		filter.UseYn = constants.UseYes
		filter.IsActive = &active
	}
	if useYn := strings.TrimSpace(input.UseYn); useYn != "" {
		filter.UseYn = useYn
	}
	if input.IsActive != nil {
		filter.IsActive = input.IsActive
	}
	return filter
}

// List 目录分页列表，返回行、总数与聚合统计
func (s *CatalogQueryService) List(input CatalogListInput) (*CatalogListResult, error) {
	filter := s.buildFilter(input)

	rows, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, err
	}
	aggregates, err := s.productRepo.Aggregates(filter)
	if err != nil {
		return nil, err
	}

	masterIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		masterIDs = append(masterIDs, row.Product.ID)
	}
	variants, err := s.variantRepo.ListByMasterIDs(masterIDs)
	if err != nil {
		return nil, err
	}
	variantsByMaster := make(map[uint][]models.ProductVariant, len(rows))
	for _, variant := range variants {
		variantsByMaster[variant.MasterID] = append(variantsByMaster[variant.MasterID], variant)
	}

	out := make([]CatalogProductRow, 0, len(rows))
	for _, row := range rows {
		rowVariants := variantsByMaster[row.Product.ID]
		if rowVariants == nil {
			rowVariants = []models.ProductVariant{}
		}
		out = append(out, CatalogProductRow{ProductRow: row, Variants: rowVariants})
	}

	return &CatalogListResult{
		Rows:       out,
		Total:      total,
		Aggregates: aggregates,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}
