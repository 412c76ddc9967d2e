// Package importer 从旧系统目录批量迁移商品主档与规格行。
// 源库只读，自定编码逐字节保留，旧编码主键经词表短编码重映射到本地主键。
// 每行独立提交，单行失败只记入报表，不中断批次。
package importer

import (
	"errors"
	"strings"

	"github.com/catalog-next/internal/config"
	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/logger"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"
	"github.com/catalog-next/internal/selfcode"
	"github.com/catalog-next/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 旧系统根编码组的组编码
const (
	legacyGroupProductGroup = "PRT"
	legacyGroupProductType  = "TP"
	legacyGroupYear         = "YR"
)

const importOperator = "legacy_import"

// codeMaps 旧系统编码主键到本地编码主键的映射表
type codeMaps struct {
	brand    map[int64]uint
	category map[int64]uint
	prodType map[int64]uint
	year     map[int64]uint
}

// Importer 旧系统目录导入器
type Importer struct {
	source         *gorm.DB
	cfg            config.ImporterConfig
	codeService    *service.CodeService
	productService *service.ProductService
	variantService *service.VariantService
	codeRepo       repository.CodeRepository
	productRepo    repository.ProductRepository
	variantRepo    repository.ProductVariantRepository
	resolver       *resolver.Resolver
}

// New 创建导入器
func New(
	source *gorm.DB,
	cfg config.ImporterConfig,
	codeService *service.CodeService,
	productService *service.ProductService,
	variantService *service.VariantService,
	codeRepo repository.CodeRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.ProductVariantRepository,
	codeResolver *resolver.Resolver,
) *Importer {
	if cfg.MasterBatchSize <= 0 {
		cfg.MasterBatchSize = 50
	}
	if cfg.DetailBatchSize <= 0 {
		cfg.DetailBatchSize = 100
	}
	if cfg.CompanyID == 0 {
		cfg.CompanyID = constants.DefaultCompanyID
	}
	return &Importer{
		source:         source,
		cfg:            cfg,
		codeService:    codeService,
		productService: productService,
		variantService: variantService,
		codeRepo:       codeRepo,
		productRepo:    productRepo,
		variantRepo:    variantRepo,
		resolver:       codeResolver,
	}
}

// Run 执行一次完整导入，返回执行报表
// 返回 error 仅表示源库级致命故障，行级失败都记入报表
func (im *Importer) Run() (*Report, error) {
	report := NewReport()

	if err := im.codeService.EnsureCodecGroups(importOperator); err != nil {
		return nil, err
	}

	maps, err := im.buildCodeMaps()
	if err != nil {
		return nil, err
	}
	if err := im.importMasters(maps, report); err != nil {
		return nil, err
	}
	if err := im.importVariants(report); err != nil {
		return nil, err
	}

	logger.Infow("legacy_import_finished", "summary", report.Summary())
	return report, nil
}

// mapShortCode 按短编码把旧系统编码行映射到本地词表，可选自动建码
func (im *Importer) mapShortCode(groupName, shortCode, displayName string) (uint, bool, error) {
	shortCode = strings.TrimSpace(shortCode)
	if shortCode == "" {
		return 0, false, nil
	}
	member, err := im.resolver.Member(groupName, shortCode)
	if err != nil {
		return 0, false, err
	}
	if member != nil {
		return member.ID, true, nil
	}
	if !im.cfg.AutoCreateCodes {
		return 0, false, nil
	}

	group, err := im.codeRepo.GetGroupByName(groupName)
	if err != nil {
		return 0, false, err
	}
	if group == nil {
		return 0, false, nil
	}
	if displayName == "" {
		displayName = shortCode
	}
	created, err := im.codeService.CreateMember(service.CreateCodeInput{
		ParentID:  group.ID,
		ShortCode: shortCode,
		Name:      displayName,
		Operator:  importOperator,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCode) {
			// 并发建码后重查
			member, lookupErr := im.resolver.Member(groupName, shortCode)
			if lookupErr != nil || member == nil {
				return 0, false, lookupErr
			}
			return member.ID, true, nil
		}
		logger.Warnw("legacy_import_auto_create_code_failed",
			"group", groupName, "short_code", shortCode, "error", err)
		return 0, false, nil
	}
	return created.ID, true, nil
}

// buildCodeMaps 构建四张旧编码主键到本地主键的映射表
func (im *Importer) buildCodeMaps() (*codeMaps, error) {
	maps := &codeMaps{
		brand:    make(map[int64]uint),
		category: make(map[int64]uint),
		prodType: make(map[int64]uint),
		year:     make(map[int64]uint),
	}

	var brands []LegacyBrand
	if err := im.source.Find(&brands).Error; err != nil {
		return nil, err
	}
	for _, brand := range brands {
		localSeq, ok, err := im.mapShortCode(constants.GroupBrand, brand.BrandCode, brand.BrandName)
		if err != nil {
			return nil, err
		}
		if ok {
			maps.brand[brand.Seq] = localSeq
		}
	}

	groupBindings := []struct {
		legacyCode string
		groupName  string
		target     map[int64]uint
	}{
		{legacyGroupProductGroup, constants.GroupProductGroup, maps.category},
		{legacyGroupProductType, constants.GroupProductType, maps.prodType},
		{legacyGroupYear, constants.GroupYear, maps.year},
	}
	for _, binding := range groupBindings {
		var root LegacyCode
		err := im.source.Where("Code = ? AND Depth = ?", binding.legacyCode, 0).First(&root).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warnw("legacy_import_group_missing", "legacy_group", binding.legacyCode)
				continue
			}
			return nil, err
		}
		var members []LegacyCode
		if err := im.source.Where("ParentSeq = ?", root.Seq).Find(&members).Error; err != nil {
			return nil, err
		}
		for _, member := range members {
			localSeq, ok, err := im.mapShortCode(binding.groupName, member.Code, member.CodeName)
			if err != nil {
				return nil, err
			}
			if ok {
				binding.target[member.Seq] = localSeq
			}
		}
	}
	return maps, nil
}

// mapLegacySeq 旧编码外键换算为本地外键
// 返回 (本地外键, 是否映射失败)：源字段为空不算失败
func mapLegacySeq(mapping map[int64]uint, legacySeq *int64) (*uint, bool) {
	if legacySeq == nil || *legacySeq == 0 {
		return nil, false
	}
	localSeq, ok := mapping[*legacySeq]
	if !ok {
		return nil, true
	}
	return &localSeq, false
}

// parseTagAmt 解析旧系统吊牌价，容忍千分位与空串
func parseTagAmt(raw string) int64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil || amount.IsNegative() {
		return 0
	}
	return amount.IntPart()
}

// importMasters 分批迁移商品主档，按 legacy_seq 幂等插入或更新
func (im *Importer) importMasters(maps *codeMaps, report *Report) error {
	var batch []LegacyProduct
	result := im.source.Where("UseYn = ?", constants.UseYes).
		Order("Seq ASC").
		FindInBatches(&batch, im.cfg.MasterBatchSize, func(tx *gorm.DB, batchNo int) error {
			for _, row := range batch {
				im.importMaster(maps, report, row)
			}
			return nil
		})
	return result.Error
}

func (im *Importer) importMaster(maps *codeMaps, report *Report, row LegacyProduct) {
	brandSeq, brandMiss := mapLegacySeq(maps.brand, row.Brand)
	categorySeq, categoryMiss := mapLegacySeq(maps.category, row.ProdGroup)
	typeSeq, typeMiss := mapLegacySeq(maps.prodType, row.ProdType)
	yearSeq, yearMiss := mapLegacySeq(maps.year, row.ProdYear)
	if brandMiss || categoryMiss || typeMiss || yearMiss {
		report.Skip("tbl_Product", row.Seq, constants.SkipReasonUnknownCode, "legacy code reference not mapped")
		return
	}

	name := strings.TrimSpace(row.ProdName)
	price := parseTagAmt(row.ProdTagAmt)

	existing, err := im.productRepo.GetByLegacy(im.cfg.CompanyID, row.Seq)
	if err != nil {
		report.Skip("tbl_Product", row.Seq, constants.SkipReasonDBError, err.Error())
		return
	}

	if existing == nil {
		legacySeq := row.Seq
		_, err = im.productService.Create(service.CreateProductInput{
			CompanyID:   im.cfg.CompanyID,
			Name:        name,
			Price:       price,
			BrandSeq:    brandSeq,
			CategorySeq: categorySeq,
			TypeSeq:     typeSeq,
			YearSeq:     yearSeq,
			UseYn:       row.UseYn,
			LegacySeq:   &legacySeq,
			Operator:    importOperator,
		})
		if err != nil {
			report.Skip("tbl_Product", row.Seq, skipReasonForError(err), err.Error())
			return
		}
		report.MastersInserted++
		return
	}

	_, err = im.productService.Update(existing.ID, service.UpdateProductInput{
		Name:        &name,
		Price:       &price,
		BrandSeq:    brandSeq,
		CategorySeq: categorySeq,
		TypeSeq:     typeSeq,
		YearSeq:     yearSeq,
		UseYn:       &row.UseYn,
		Operator:    importOperator,
	})
	if err != nil {
		report.Skip("tbl_Product", row.Seq, skipReasonForError(err), err.Error())
		return
	}
	report.MastersUpdated++
}

// importVariants 分批迁移规格行，自定编码逐字节校验后保留
func (im *Importer) importVariants(report *Report) error {
	var batch []LegacyProductDetail
	result := im.source.Order("Seq ASC").
		FindInBatches(&batch, im.cfg.DetailBatchSize, func(tx *gorm.DB, batchNo int) error {
			for _, row := range batch {
				im.importVariant(report, row)
			}
			return nil
		})
	return result.Error
}

func (im *Importer) importVariant(report *Report, row LegacyProductDetail) {
	// 自定编码整串长度先行校验
	if _, err := selfcode.Decompose(row.StdDivProdCode); err != nil {
		report.Skip("tbl_Product_DTL", row.Seq, constants.SkipReasonLengthMismatch, err.Error())
		return
	}

	tokens := selfcode.Tokens{
		Brand:     strings.TrimSpace(row.BrandCode),
		DivType:   strings.TrimSpace(row.DivTypeCode),
		ProdGroup: strings.TrimSpace(row.ProdGroupCode),
		ProdType:  strings.TrimSpace(row.ProdTypeCode),
		ProdCode:  strings.TrimSpace(row.ProdCode),
		ProdType2: strings.TrimSpace(row.ProdType2Code),
		Year:      strings.TrimSpace(row.YearCode),
		Color:     strings.TrimSpace(row.ProdColorCode),
	}
	composed, err := selfcode.Compose(tokens)
	if err != nil {
		report.Skip("tbl_Product_DTL", row.Seq, constants.SkipReasonWidthMismatch, err.Error())
		return
	}
	// 拼接结果与源库整串不一致的行不可信
	if composed != row.StdDivProdCode {
		report.Skip("tbl_Product_DTL", row.Seq, constants.SkipReasonCodeMismatch,
			"composed "+composed+" != "+row.StdDivProdCode)
		return
	}

	master, err := im.productRepo.GetByLegacy(im.cfg.CompanyID, row.MstSeq)
	if err != nil {
		report.Skip("tbl_Product_DTL", row.Seq, constants.SkipReasonDBError, err.Error())
		return
	}
	if master == nil {
		report.Skip("tbl_Product_DTL", row.Seq, constants.SkipReasonMasterMissing, "")
		return
	}

	existing, err := im.variantRepo.GetByLegacy(row.Seq)
	if err != nil {
		report.Skip("tbl_Product_DTL", row.Seq, constants.SkipReasonDBError, err.Error())
		return
	}

	status := strings.TrimSpace(row.Status)
	if status != constants.VariantStatusInactive {
		status = constants.VariantStatusActive
	}

	if existing != nil {
		im.updateVariant(report, row, existing, tokens, status)
		return
	}
	im.createVariant(report, row, master, tokens, status, true)
}

func (im *Importer) createVariant(report *Report, row LegacyProductDetail, master *models.Product, tokens selfcode.Tokens, status string, allowAutoCreate bool) {
	legacySeq := row.Seq
	_, _, err := im.variantService.Create(service.CreateVariantInput{
		MasterID:    master.ID,
		Tokens:      tokens,
		VariantName: strings.TrimSpace(row.ProductName),
		Status:      status,
		LegacySeq:   &legacySeq,
		Operator:    importOperator,
	})
	if err == nil {
		report.VariantsInserted++
		return
	}

	var tokenErr *selfcode.UnknownTokenError
	if errors.As(err, &tokenErr) {
		if allowAutoCreate && im.cfg.AutoCreateCodes {
			if im.backfillTokens(tokens) {
				im.createVariant(report, row, master, tokens, status, false)
				return
			}
		}
		report.Skip("tbl_Product_DTL", row.Seq, constants.SkipReasonUnknownCode, tokenErr.Error())
		return
	}
	report.Skip("tbl_Product_DTL", row.Seq, skipReasonForError(err), err.Error())
}

func (im *Importer) updateVariant(report *Report, row LegacyProductDetail, existing *models.ProductVariant, tokens selfcode.Tokens, status string) {
	name := strings.TrimSpace(row.ProductName)
	_, _, err := im.variantService.Update(existing.ID, service.UpdateVariantInput{
		Brand:       &tokens.Brand,
		DivType:     &tokens.DivType,
		ProdGroup:   &tokens.ProdGroup,
		ProdType:    &tokens.ProdType,
		ProdCode:    &tokens.ProdCode,
		ProdType2:   &tokens.ProdType2,
		Year:        &tokens.Year,
		Color:       &tokens.Color,
		VariantName: &name,
		Status:      &status,
		Operator:    importOperator,
	})
	if err != nil {
		report.Skip("tbl_Product_DTL", row.Seq, skipReasonForError(err), err.Error())
		return
	}
	report.VariantsUpdated++
}

// backfillTokens 为规格行缺失的短编码自动建码，返回是否有新增
func (im *Importer) backfillTokens(tokens selfcode.Tokens) bool {
	values := tokens.Slice()
	created := false
	for i, spec := range selfcode.Fields {
		localSeq, ok, err := im.mapShortCode(spec.Group, values[i], "")
		if err != nil {
			return false
		}
		if ok && localSeq != 0 {
			created = true
		}
	}
	return created
}

// skipReasonForError 行级错误到报表原因的映射
func skipReasonForError(err error) string {
	switch {
	case errors.Is(err, service.ErrDuplicateSelfCode),
		errors.Is(err, service.ErrDuplicateLegacyKey),
		errors.Is(err, service.ErrDuplicateCode):
		return constants.SkipReasonDuplicate
	case errors.Is(err, service.ErrUnknownCode),
		errors.Is(err, service.ErrUnknownParent):
		return constants.SkipReasonUnknownCode
	case errors.Is(err, service.ErrMasterMissing):
		return constants.SkipReasonMasterMissing
	}
	var widthErr *selfcode.WidthMismatchError
	if errors.As(err, &widthErr) {
		return constants.SkipReasonWidthMismatch
	}
	var lengthErr *selfcode.LengthMismatchError
	if errors.As(err, &lengthErr) {
		return constants.SkipReasonLengthMismatch
	}
	var tokenErr *selfcode.UnknownTokenError
	if errors.As(err, &tokenErr) {
		return constants.SkipReasonUnknownCode
	}
	return constants.SkipReasonDBError
}
