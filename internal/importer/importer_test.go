package importer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/catalog-next/internal/config"
	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"
	"github.com/catalog-next/internal/service"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type importerTestEnv struct {
	source      *gorm.DB
	target      *gorm.DB
	codeService *service.CodeService
	codeRepo    repository.CodeRepository
	productRepo repository.ProductRepository
	variantRepo repository.ProductVariantRepository
	resolver    *resolver.Resolver
	importer    *Importer
}

func openTestDB(t *testing.T, suffix string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), suffix)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	return db
}

func setupImporterTest(t *testing.T, autoCreate bool) *importerTestEnv {
	t.Helper()

	source := openTestDB(t, "source")
	if err := source.AutoMigrate(&LegacyCode{}, &LegacyBrand{}, &LegacyProduct{}, &LegacyProductDetail{}); err != nil {
		t.Fatalf("migrate source failed: %v", err)
	}

	target := openTestDB(t, "target")
	if err := target.AutoMigrate(&models.Code{}, &models.Product{}, &models.ProductVariant{}, &models.CatalogMeta{}); err != nil {
		t.Fatalf("migrate target failed: %v", err)
	}

	codeRepo := repository.NewCodeRepository(target)
	metaRepo := repository.NewMetaRepository(target)
	productRepo := repository.NewProductRepository(target)
	variantRepo := repository.NewProductVariantRepository(target)
	codeResolver := resolver.New(codeRepo, metaRepo)

	codeService := service.NewCodeService(codeRepo, metaRepo, 0)
	productService := service.NewProductService(productRepo, codeResolver, 0)
	variantService := service.NewVariantService(productRepo, variantRepo, codeResolver, 0)

	cfg := config.ImporterConfig{
		CompanyID:       1,
		AutoCreateCodes: autoCreate,
		MasterBatchSize: 50,
		DetailBatchSize: 100,
	}
	imp := New(source, cfg, codeService, productService, variantService,
		codeRepo, productRepo, variantRepo, codeResolver)

	return &importerTestEnv{
		source:      source,
		target:      target,
		codeService: codeService,
		codeRepo:    codeRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
		resolver:    codeResolver,
		importer:    imp,
	}
}

// seedTargetVocabulary 预置本地词表，覆盖测试规格行用到的全部短编码
func (env *importerTestEnv) seedTargetVocabulary(t *testing.T) {
	t.Helper()
	if err := env.codeService.EnsureCodecGroups("tester"); err != nil {
		t.Fatalf("ensure groups failed: %v", err)
	}
	members := map[string][]string{
		constants.GroupBrand:        {"RY"},
		constants.GroupDivisionType: {"2"},
		constants.GroupProductGroup: {"SG"},
		constants.GroupProductType:  {"WC"},
		constants.GroupProductCode:  {"01", "XX"},
		constants.GroupType2:        {"00"},
		constants.GroupYear:         {"24"},
		constants.GroupColor:        {"BLK", "WHT"},
	}
	for groupName, shortCodes := range members {
		group, err := env.codeRepo.GetGroupByName(groupName)
		if err != nil || group == nil {
			t.Fatalf("group %s missing: %v", groupName, err)
		}
		for i, shortCode := range shortCodes {
			if _, err := env.codeService.CreateMember(service.CreateCodeInput{
				ParentID:  group.ID,
				ShortCode: shortCode,
				Name:      groupName + " " + shortCode,
				SortOrder: i + 1,
				Operator:  "tester",
			}); err != nil {
				t.Fatalf("create member %s/%s failed: %v", groupName, shortCode, err)
			}
		}
	}
}

// seedSourceCatalog 写入旧系统品牌表与三棵编码树
func (env *importerTestEnv) seedSourceCatalog(t *testing.T) {
	t.Helper()
	if err := env.source.Create(&LegacyBrand{Seq: 10, BrandCode: "RY", BrandName: "로이드"}).Error; err != nil {
		t.Fatalf("seed brand failed: %v", err)
	}
	roots := []LegacyCode{
		{Seq: 100, Code: "PRT", CodeName: "품목", Depth: 0},
		{Seq: 200, Code: "TP", CodeName: "타입", Depth: 0},
		{Seq: 300, Code: "YR", CodeName: "연도", Depth: 0},
	}
	for i := range roots {
		if err := env.source.Create(&roots[i]).Error; err != nil {
			t.Fatalf("seed root code failed: %v", err)
		}
	}
	parent := func(seq int64) *int64 { return &seq }
	members := []LegacyCode{
		{Seq: 101, ParentSeq: parent(100), Code: "SG", CodeName: "선글라스", Depth: 1},
		{Seq: 201, ParentSeq: parent(200), Code: "WC", CodeName: "워치", Depth: 1},
		{Seq: 301, ParentSeq: parent(300), Code: "24", CodeName: "2024", Depth: 1},
	}
	for i := range members {
		if err := env.source.Create(&members[i]).Error; err != nil {
			t.Fatalf("seed member code failed: %v", err)
		}
	}
}

func legacySeqRef(seq int64) *int64 { return &seq }

func TestImporterMigratesMastersAndVariants(t *testing.T) {
	env := setupImporterTest(t, false)
	env.seedTargetVocabulary(t)
	env.seedSourceCatalog(t)

	master := LegacyProduct{
		Seq:        1001,
		Brand:      legacySeqRef(10),
		ProdGroup:  legacySeqRef(101),
		ProdType:   legacySeqRef(201),
		ProdYear:   legacySeqRef(301),
		ProdName:   "ROY WATCH",
		ProdTagAmt: "1,280,000",
		UseYn:      constants.UseYes,
	}
	if err := env.source.Create(&master).Error; err != nil {
		t.Fatalf("seed master failed: %v", err)
	}
	details := []LegacyProductDetail{
		{
			Seq: 5001, MstSeq: 1001,
			BrandCode: "RY", DivTypeCode: "2", ProdGroupCode: "SG", ProdTypeCode: "WC",
			ProdCode: "01", ProdType2Code: "00", YearCode: "24", ProdColorCode: "BLK",
			StdDivProdCode: "RY2SGWC010024BLK",
			ProductName:    "ROY WATCH BLACK", Status: constants.VariantStatusActive,
		},
		{
			// 17 字节整串，迁移时整行跳过
			Seq: 5002, MstSeq: 1001,
			BrandCode: "RY", DivTypeCode: "2", ProdGroupCode: "SG", ProdTypeCode: "WC",
			ProdCode: "00", ProdType2Code: "00", YearCode: "24", ProdColorCode: "WIR",
			StdDivProdCode: "RY2SGWC0000024WIR",
			ProductName:    "ROY WATCH WIRED", Status: constants.VariantStatusActive,
		},
	}
	for i := range details {
		if err := env.source.Create(&details[i]).Error; err != nil {
			t.Fatalf("seed detail failed: %v", err)
		}
	}

	report, err := env.importer.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.MastersInserted != 1 || report.MastersUpdated != 0 {
		t.Fatalf("masters inserted=%d updated=%d, want 1/0", report.MastersInserted, report.MastersUpdated)
	}
	if report.VariantsInserted != 1 {
		t.Fatalf("variants inserted=%d, want 1", report.VariantsInserted)
	}
	if got := report.SkippedByReason[constants.SkipReasonLengthMismatch]; got != 1 {
		t.Fatalf("length mismatch skips=%d, want 1 (%s)", got, report.Summary())
	}

	imported, err := env.productRepo.GetByLegacy(1, 1001)
	if err != nil || imported == nil {
		t.Fatalf("imported master missing: %v", err)
	}
	if imported.Price != 1280000 {
		t.Fatalf("price=%d, want 1280000", imported.Price)
	}
	if imported.BrandSeq == nil || imported.CategorySeq == nil || imported.TypeSeq == nil || imported.YearSeq == nil {
		t.Fatalf("master code references not mapped: %+v", imported)
	}

	variant, err := env.variantRepo.GetByLegacy(5001)
	if err != nil || variant == nil {
		t.Fatalf("imported variant missing: %v", err)
	}
	if variant.SelfCode != "RY2SGWC010024BLK" {
		t.Fatalf("self code=%q, want RY2SGWC010024BLK", variant.SelfCode)
	}
	if variant.MasterID != imported.ID {
		t.Fatalf("variant master=%d, want %d", variant.MasterID, imported.ID)
	}
	skipped, err := env.variantRepo.GetByLegacy(5002)
	if err != nil {
		t.Fatalf("lookup skipped variant failed: %v", err)
	}
	if skipped != nil {
		t.Fatalf("malformed row was persisted: %+v", skipped)
	}

	// 重复执行应走更新路径且不产生新行
	second, err := env.importer.Run()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.MastersInserted != 0 || second.MastersUpdated != 1 {
		t.Fatalf("second run masters inserted=%d updated=%d, want 0/1", second.MastersInserted, second.MastersUpdated)
	}
	if second.VariantsInserted != 0 || second.VariantsUpdated != 1 {
		t.Fatalf("second run variants inserted=%d updated=%d, want 0/1", second.VariantsInserted, second.VariantsUpdated)
	}
}

func TestImporterSkipsRowsWithUnknownCodes(t *testing.T) {
	env := setupImporterTest(t, false)
	env.seedTargetVocabulary(t)
	env.seedSourceCatalog(t)

	// 源编码树里存在但本地词表没有的年份
	if err := env.source.Create(&LegacyCode{Seq: 302, ParentSeq: legacySeqRef(300), Code: "25", CodeName: "2025", Depth: 1}).Error; err != nil {
		t.Fatalf("seed code failed: %v", err)
	}
	master := LegacyProduct{
		Seq:       1002,
		Brand:     legacySeqRef(10),
		ProdGroup: legacySeqRef(101),
		ProdType:  legacySeqRef(201),
		ProdYear:  legacySeqRef(302),
		ProdName:  "NEXT YEAR WATCH",
		UseYn:     constants.UseYes,
	}
	if err := env.source.Create(&master).Error; err != nil {
		t.Fatalf("seed master failed: %v", err)
	}

	report, err := env.importer.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.MastersInserted != 0 {
		t.Fatalf("masters inserted=%d, want 0", report.MastersInserted)
	}
	if got := report.SkippedByReason[constants.SkipReasonUnknownCode]; got != 1 {
		t.Fatalf("unknown code skips=%d, want 1 (%s)", got, report.Summary())
	}
}

func TestImporterAutoCreatesMissingCodes(t *testing.T) {
	env := setupImporterTest(t, true)
	env.seedTargetVocabulary(t)
	env.seedSourceCatalog(t)

	master := LegacyProduct{
		Seq:       1003,
		Brand:     legacySeqRef(10),
		ProdGroup: legacySeqRef(101),
		ProdType:  legacySeqRef(201),
		ProdYear:  legacySeqRef(301),
		ProdName:  "GREEN WATCH",
		UseYn:     constants.UseYes,
	}
	if err := env.source.Create(&master).Error; err != nil {
		t.Fatalf("seed master failed: %v", err)
	}
	detail := LegacyProductDetail{
		Seq: 5003, MstSeq: 1003,
		BrandCode: "RY", DivTypeCode: "2", ProdGroupCode: "SG", ProdTypeCode: "WC",
		ProdCode: "01", ProdType2Code: "00", YearCode: "24", ProdColorCode: "GRN",
		StdDivProdCode: "RY2SGWC010024GRN",
		ProductName:    "GREEN WATCH", Status: constants.VariantStatusActive,
	}
	if err := env.source.Create(&detail).Error; err != nil {
		t.Fatalf("seed detail failed: %v", err)
	}

	report, err := env.importer.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.VariantsInserted != 1 {
		t.Fatalf("variants inserted=%d, want 1 (%s)", report.VariantsInserted, report.Summary())
	}
	member, err := env.resolver.Member(constants.GroupColor, "GRN")
	if err != nil {
		t.Fatalf("resolve GRN failed: %v", err)
	}
	if member == nil {
		t.Fatalf("GRN color was not auto created")
	}
}

func TestImporterSkipsDetailWithoutMaster(t *testing.T) {
	env := setupImporterTest(t, false)
	env.seedTargetVocabulary(t)
	env.seedSourceCatalog(t)

	// 主档 UseYn=N 不会被迁移，其规格行应按主档缺失跳过
	master := LegacyProduct{
		Seq:      1004,
		Brand:    legacySeqRef(10),
		ProdName: "RETIRED WATCH",
		UseYn:    constants.UseNo,
	}
	if err := env.source.Create(&master).Error; err != nil {
		t.Fatalf("seed master failed: %v", err)
	}
	detail := LegacyProductDetail{
		Seq: 5004, MstSeq: 1004,
		BrandCode: "RY", DivTypeCode: "2", ProdGroupCode: "SG", ProdTypeCode: "WC",
		ProdCode: "01", ProdType2Code: "00", YearCode: "24", ProdColorCode: "WHT",
		StdDivProdCode: "RY2SGWC010024WHT",
		ProductName:    "RETIRED WATCH WHITE", Status: constants.VariantStatusActive,
	}
	if err := env.source.Create(&detail).Error; err != nil {
		t.Fatalf("seed detail failed: %v", err)
	}

	report, err := env.importer.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := report.SkippedByReason[constants.SkipReasonMasterMissing]; got != 1 {
		t.Fatalf("master missing skips=%d, want 1 (%s)", got, report.Summary())
	}
}

func TestImporterSkipsCodeMismatch(t *testing.T) {
	env := setupImporterTest(t, false)
	env.seedTargetVocabulary(t)
	env.seedSourceCatalog(t)

	master := LegacyProduct{
		Seq:       1005,
		Brand:     legacySeqRef(10),
		ProdGroup: legacySeqRef(101),
		ProdType:  legacySeqRef(201),
		ProdYear:  legacySeqRef(301),
		ProdName:  "MISMATCH WATCH",
		UseYn:     constants.UseYes,
	}
	if err := env.source.Create(&master).Error; err != nil {
		t.Fatalf("seed master failed: %v", err)
	}
	// 分段列与整串不一致，说明源数据被手工改过
	detail := LegacyProductDetail{
		Seq: 5005, MstSeq: 1005,
		BrandCode: "RY", DivTypeCode: "2", ProdGroupCode: "SG", ProdTypeCode: "WC",
		ProdCode: "01", ProdType2Code: "00", YearCode: "24", ProdColorCode: "BLK",
		StdDivProdCode: "RY2SGWC010024WHT",
		ProductName:    "MISMATCH WATCH", Status: constants.VariantStatusActive,
	}
	if err := env.source.Create(&detail).Error; err != nil {
		t.Fatalf("seed detail failed: %v", err)
	}

	report, err := env.importer.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.VariantsInserted != 0 {
		t.Fatalf("variants inserted=%d, want 0", report.VariantsInserted)
	}
	if got := report.SkippedByReason[constants.SkipReasonCodeMismatch]; got != 1 {
		t.Fatalf("code mismatch skips=%d, want 1 (%s)", got, report.Summary())
	}
}
