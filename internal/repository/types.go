package repository

import "time"

// CodeListFilter 查询编码字典的过滤条件
type CodeListFilter struct {
	ParentID *uint
	Depth    *int
	UseYn    string
	Search   string
}

// ProductListFilter 查询商品主档列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CompanyID    uint
	Search       string
	BrandSeq     *uint
	CategorySeq  *uint
	TypeSeq      *uint
	YearSeq      *uint
	UseYn        string
	IsActive     *bool
	HasVariants  *bool
	SortBy       string
	SortDesc     bool
	WithVariants bool
}

// ProductRow 商品列表行（主档字段 + 编码显示名）
type ProductRow struct {
	Product      ProductRecord `gorm:"embedded" json:"product"`
	BrandName    *string       `json:"brand_name"`
	CategoryName *string       `json:"category_name"`
	TypeName     *string       `json:"type_name"`
	YearName     *string       `json:"year_name"`
}

// ProductRecord 商品主档列（与 models.Product 同构，用于列表扫描）
type ProductRecord struct {
	ID          uint   `json:"id"`
	CompanyID   uint   `json:"company_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	BrandSeq    *uint  `json:"brand_seq"`
	CategorySeq *uint  `json:"category_seq"`
	TypeSeq     *uint  `json:"type_seq"`
	YearSeq     *uint  `json:"year_seq"`
	UseYn       string `json:"use_yn"`
	IsActive    bool   `json:"is_active"`
	LegacySeq   *int64 `json:"legacy_seq"`
}

// CatalogAggregates 商品列表聚合统计
type CatalogAggregates struct {
	TotalProducts    int64 `json:"total_products"`     // 商品总数（按同一过滤条件）
	WithVariants     int64 `json:"with_variants"`      // 至少有一条规格行的商品数
	WithCompleteCode int64 `json:"with_complete_code"` // 至少有一条 16 位完整自定编码规格的商品数
}

// VariantPrefixFilter 规格流水编码前缀查询条件（品牌+区分+品类+类型）
type VariantPrefixFilter struct {
	Brand     string
	DivType   string
	ProdGroup string
	ProdType  string
}

// AuthzAuditLogListFilter 权限审计日志查询条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
	Role            string
	Object          string
	Method          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
