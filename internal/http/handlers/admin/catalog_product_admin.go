package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/http/response"
	"github.com/catalog-next/internal/selfcode"
	"github.com/catalog-next/internal/service"

	"github.com/gin-gonic/gin"
)

// currentCompanyID 读取租户中间件注入的公司标识
func currentCompanyID(c *gin.Context) uint {
	if value, ok := c.Get("company_id"); ok {
		if id, ok := value.(uint); ok && id != 0 {
			return id
		}
	}
	return constants.DefaultCompanyID
}

func currentOperator(c *gin.Context) string {
	if value, ok := c.Get("admin_username"); ok {
		if username, ok := value.(string); ok && username != "" {
			return username
		}
	}
	return "admin"
}

func parseIDParam(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

func queryUintPtr(c *gin.Context, name string) *uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	converted := uint(value)
	return &converted
}

func queryBoolPtr(c *gin.Context, name string) *bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// GetCatalogProducts 获取商品目录列表
func (h *Handler) GetCatalogProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	input := service.CatalogListInput{
		CompanyID:   currentCompanyID(c),
		Search:      strings.TrimSpace(c.Query("search")),
		BrandSeq:    queryUintPtr(c, "brand_seq"),
		CategorySeq: queryUintPtr(c, "category_seq"),
		TypeSeq:     queryUintPtr(c, "type_seq"),
		YearSeq:     queryUintPtr(c, "year_seq"),
		HasVariants: queryBoolPtr(c, "has_variants"),
		SortBy:      strings.TrimSpace(c.Query("sort_by")),
		SortDesc:    strings.EqualFold(c.Query("sort_dir"), "desc"),
		Page:        page,
		PageSize:    pageSize,
		ShowAll:     strings.EqualFold(c.Query("show_all"), "true"),
		UseYn:       strings.ToUpper(strings.TrimSpace(c.Query("use"))),
		IsActive:    queryBoolPtr(c, "active"),
	}

	result, err := h.CatalogQueryService.List(input)
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      result.Page,
		PageSize:  result.PageSize,
		Total:     result.Total,
		TotalPage: (result.Total + int64(result.PageSize) - 1) / int64(result.PageSize),
	}
	response.SuccessWithPage(c, gin.H{
		"items":      result.Rows,
		"aggregates": result.Aggregates,
	}, pagination)
}

// GetCatalogProduct 获取商品主档详情（含规格行）
func (h *Handler) GetCatalogProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	product, err := h.ProductService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.Success(c, product)
}

// CatalogProductRequest 创建/更新商品主档请求
type CatalogProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Price       int64  `json:"price"`
	BrandSeq    *uint  `json:"brand_seq"`
	CategorySeq *uint  `json:"category_seq"`
	TypeSeq     *uint  `json:"type_seq"`
	YearSeq     *uint  `json:"year_seq"`
	UseYn       string `json:"use_yn"`
	LegacySeq   *int64 `json:"legacy_seq"`
}

// CreateCatalogProduct 创建商品主档
func (h *Handler) CreateCatalogProduct(c *gin.Context) {
	var req CatalogProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Create(service.CreateProductInput{
		CompanyID:   currentCompanyID(c),
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		BrandSeq:    req.BrandSeq,
		CategorySeq: req.CategorySeq,
		TypeSeq:     req.TypeSeq,
		YearSeq:     req.YearSeq,
		UseYn:       req.UseYn,
		LegacySeq:   req.LegacySeq,
		Operator:    currentOperator(c),
	})
	if err != nil {
		respondCatalogProductError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateCatalogProduct 更新商品主档
func (h *Handler) UpdateCatalogProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CatalogProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	name := strings.TrimSpace(req.Name)
	useYn := req.UseYn
	input := service.UpdateProductInput{
		Name:        &name,
		Price:       &req.Price,
		BrandSeq:    req.BrandSeq,
		CategorySeq: req.CategorySeq,
		TypeSeq:     req.TypeSeq,
		YearSeq:     req.YearSeq,
		Operator:    currentOperator(c),
	}
	if useYn != "" {
		input.UseYn = &useYn
	}

	product, err := h.ProductService.Update(id, input)
	if err != nil {
		respondCatalogProductError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteCatalogProduct 下架商品主档（软删除，规格行保留）
func (h *Handler) DeleteCatalogProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.ProductService.SoftDelete(id, currentOperator(c)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product delete failed", err)
		return
	}
	response.Success(c, nil)
}

func respondCatalogProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "product not found", nil)
	case errors.Is(err, service.ErrInvalidPrice):
		respondError(c, response.CodeBadRequest, "price must be non-negative", nil)
	case errors.Is(err, service.ErrUnknownCode):
		respondError(c, response.CodeBadRequest, "code reference not in vocabulary", err)
	case errors.Is(err, service.ErrDuplicateLegacyKey):
		respondError(c, response.CodeBadRequest, "legacy key already imported", nil)
	default:
		respondError(c, response.CodeInternal, "product save failed", err)
	}
}

// ==================== 规格行 ====================

// VariantTokensRequest 八个编码段取值
type VariantTokensRequest struct {
	Brand     string `json:"brand" binding:"required"`
	DivType   string `json:"div_type" binding:"required"`
	ProdGroup string `json:"prod_group" binding:"required"`
	ProdType  string `json:"prod_type" binding:"required"`
	ProdCode  string `json:"prod_code" binding:"required"`
	ProdType2 string `json:"prod_type2" binding:"required"`
	Year      string `json:"year" binding:"required"`
	Color     string `json:"color" binding:"required"`
}

func (r VariantTokensRequest) toTokens() selfcode.Tokens {
	return selfcode.Tokens{
		Brand:     strings.TrimSpace(r.Brand),
		DivType:   strings.TrimSpace(r.DivType),
		ProdGroup: strings.TrimSpace(r.ProdGroup),
		ProdType:  strings.TrimSpace(r.ProdType),
		ProdCode:  strings.TrimSpace(r.ProdCode),
		ProdType2: strings.TrimSpace(r.ProdType2),
		Year:      strings.TrimSpace(r.Year),
		Color:     strings.TrimSpace(r.Color),
	}
}

// CatalogVariantRequest 创建规格行请求
type CatalogVariantRequest struct {
	Tokens    VariantTokensRequest `json:"tokens" binding:"required"`
	Name      string               `json:"name"`
	Status    string               `json:"status"`
	LegacySeq *int64               `json:"legacy_seq"`
}

// GetCatalogProductVariants 获取商品规格行列表
func (h *Handler) GetCatalogProductVariants(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	variants, err := h.VariantRepo.ListByMaster(id)
	if err != nil {
		respondError(c, response.CodeInternal, "variant list failed", err)
		return
	}
	response.Success(c, variants)
}

// CreateCatalogVariant 为商品追加一条规格行
func (h *Handler) CreateCatalogVariant(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CatalogVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	variant, warnings, err := h.VariantService.Create(service.CreateVariantInput{
		MasterID:    id,
		Tokens:      req.Tokens.toTokens(),
		VariantName: strings.TrimSpace(req.Name),
		Status:      req.Status,
		LegacySeq:   req.LegacySeq,
		Operator:    currentOperator(c),
	})
	if err != nil {
		respondCatalogVariantError(c, err)
		return
	}
	response.Success(c, gin.H{
		"variant":  variant,
		"warnings": warnings,
	})
}

// ReplaceVariantsRequest 整组替换规格行请求
type ReplaceVariantsRequest struct {
	Variants []CatalogVariantRequest `json:"variants" binding:"required"`
}

// ReplaceCatalogProductVariants 整组替换商品规格行（幂等）
func (h *Handler) ReplaceCatalogProductVariants(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ReplaceVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	specs := make([]service.VariantSpec, 0, len(req.Variants))
	for _, item := range req.Variants {
		specs = append(specs, service.VariantSpec{
			Tokens:      item.Tokens.toTokens(),
			VariantName: strings.TrimSpace(item.Name),
			Status:      item.Status,
			LegacySeq:   item.LegacySeq,
		})
	}

	result, warnings, err := h.VariantService.ReplaceVariantsForMaster(id, specs, currentOperator(c))
	if err != nil {
		respondCatalogVariantError(c, err)
		return
	}
	response.Success(c, gin.H{
		"result":   result,
		"warnings": warnings,
	})
}

// UpdateCatalogVariantRequest 更新规格行请求（nil 字段不变更）
type UpdateCatalogVariantRequest struct {
	Brand     *string `json:"brand"`
	DivType   *string `json:"div_type"`
	ProdGroup *string `json:"prod_group"`
	ProdType  *string `json:"prod_type"`
	ProdCode  *string `json:"prod_code"`
	ProdType2 *string `json:"prod_type2"`
	Year      *string `json:"year"`
	Color     *string `json:"color"`
	Name      *string `json:"name"`
	Status    *string `json:"status"`
}

// UpdateCatalogVariant 更新规格行，编码字段变更后重新拼装自定编码
func (h *Handler) UpdateCatalogVariant(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateCatalogVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	variant, warnings, err := h.VariantService.Update(id, service.UpdateVariantInput{
		Brand:       req.Brand,
		DivType:     req.DivType,
		ProdGroup:   req.ProdGroup,
		ProdType:    req.ProdType,
		ProdCode:    req.ProdCode,
		ProdType2:   req.ProdType2,
		Year:        req.Year,
		Color:       req.Color,
		VariantName: req.Name,
		Status:      req.Status,
		Operator:    currentOperator(c),
	})
	if err != nil {
		respondCatalogVariantError(c, err)
		return
	}
	response.Success(c, gin.H{
		"variant":  variant,
		"warnings": warnings,
	})
}

func respondCatalogVariantError(c *gin.Context, err error) {
	var widthErr *selfcode.WidthMismatchError
	var tokenErr *selfcode.UnknownTokenError
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "variant not found", nil)
	case errors.Is(err, service.ErrMasterMissing):
		respondError(c, response.CodeNotFound, "master product missing", nil)
	case errors.Is(err, service.ErrDuplicateSelfCode):
		respondError(c, response.CodeBadRequest, "self code already exists", nil)
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(c, response.CodeBadRequest, "invalid variant status", nil)
	case errors.As(err, &widthErr):
		respondError(c, response.CodeBadRequest, widthErr.Error(), nil)
	case errors.As(err, &tokenErr):
		respondError(c, response.CodeBadRequest, tokenErr.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "variant save failed", err)
	}
}
