package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"
	"github.com/catalog-next/internal/selfcode"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type catalogTestEnv struct {
	db             *gorm.DB
	codeService    *CodeService
	productService *ProductService
	variantService *VariantService
	queryService   *CatalogQueryService
	codeRepo       repository.CodeRepository
	variantRepo    repository.ProductVariantRepository
}

func setupCatalogServiceTest(t *testing.T) *catalogTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Code{}, &models.Product{}, &models.ProductVariant{}, &models.CatalogMeta{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	codeRepo := repository.NewCodeRepository(db)
	metaRepo := repository.NewMetaRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewProductVariantRepository(db)
	codeResolver := resolver.New(codeRepo, metaRepo)

	return &catalogTestEnv{
		db:             db,
		codeService:    NewCodeService(codeRepo, metaRepo, 0),
		productService: NewProductService(productRepo, codeResolver, 0),
		variantService: NewVariantService(productRepo, variantRepo, codeResolver, 0),
		queryService:   NewCatalogQueryService(productRepo, variantRepo),
		codeRepo:       codeRepo,
		variantRepo:    variantRepo,
	}
}

// seedVocabulary 写入八个编码组与基础成员
func (env *catalogTestEnv) seedVocabulary(t *testing.T) {
	t.Helper()
	if err := env.codeService.EnsureCodecGroups("tester"); err != nil {
		t.Fatalf("ensure groups failed: %v", err)
	}
	members := map[string][]string{
		constants.GroupBrand:        {"RY"},
		constants.GroupDivisionType: {"2"},
		constants.GroupProductGroup: {"SG"},
		constants.GroupProductType:  {"WC"},
		constants.GroupProductCode:  {"01", "02", "XX"},
		constants.GroupType2:        {"00"},
		constants.GroupYear:         {"24"},
		constants.GroupColor:        {"BLK", "WHT", "RED"},
	}
	for groupName, shortCodes := range members {
		group, err := env.codeRepo.GetGroupByName(groupName)
		if err != nil || group == nil {
			t.Fatalf("group %s missing: %v", groupName, err)
		}
		for i, shortCode := range shortCodes {
			if _, err := env.codeService.CreateMember(CreateCodeInput{
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

func (env *catalogTestEnv) createMaster(t *testing.T, name string) *models.Product {
	t.Helper()
	product, err := env.productService.Create(CreateProductInput{
		CompanyID: 1,
		Name:      name,
		Price:     10000,
		Operator:  "tester",
	})
	if err != nil {
		t.Fatalf("create master failed: %v", err)
	}
	return product
}

func tokensWith(prodCode, color string) selfcode.Tokens {
	return selfcode.Tokens{
		Brand:     "RY",
		DivType:   "2",
		ProdGroup: "SG",
		ProdType:  "WC",
		ProdCode:  prodCode,
		ProdType2: "00",
		Year:      "24",
		Color:     color,
	}
}

func TestVariantCreateRejectsUnknownToken(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)
	master := env.createMaster(t, "unknown-token-master")

	_, _, err := env.variantService.Create(CreateVariantInput{
		MasterID: master.ID,
		Tokens:   tokensWith("99", "BLK"),
		Operator: "tester",
	})
	var tokenErr *selfcode.UnknownTokenError
	if !errors.As(err, &tokenErr) {
		t.Fatalf("create error = %v, want UnknownTokenError", err)
	}
	if tokenErr.Field != constants.GroupProductCode || tokenErr.Token != "99" {
		t.Fatalf("violation = %s/%q, want ProductCode/99", tokenErr.Field, tokenErr.Token)
	}

	variants, err := env.variantRepo.ListByMaster(master.ID)
	if err != nil {
		t.Fatalf("list variants failed: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("no row should be inserted, got %d", len(variants))
	}
}

func TestVariantCreateComposesSelfCode(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)
	master := env.createMaster(t, "compose-master")

	variant, warnings, err := env.variantService.Create(CreateVariantInput{
		MasterID:    master.ID,
		Tokens:      tokensWith("01", "BLK"),
		VariantName: "compose-master BLK",
		Operator:    "tester",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if variant.SelfCode != "RY2SGWC010024BLK" {
		t.Fatalf("self code = %q, want RY2SGWC010024BLK", variant.SelfCode)
	}
	if len(warnings) != 0 {
		t.Fatalf("no skew expected for master without seq keys, got %+v", warnings)
	}

	// 同租户内自定编码唯一
	other := env.createMaster(t, "compose-other")
	_, _, err = env.variantService.Create(CreateVariantInput{
		MasterID: other.ID,
		Tokens:   tokensWith("01", "BLK"),
		Operator: "tester",
	})
	if !errors.Is(err, ErrDuplicateSelfCode) {
		t.Fatalf("duplicate self code error = %v, want ErrDuplicateSelfCode", err)
	}
}

func TestVariantCreateWarnsOnMasterSkew(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)

	// 主档 brand_seq 指向 AB，规格编码却是 RY
	brandGroup, err := env.codeRepo.GetGroupByName(constants.GroupBrand)
	if err != nil || brandGroup == nil {
		t.Fatalf("brand group missing: %v", err)
	}
	otherBrand, err := env.codeService.CreateMember(CreateCodeInput{
		ParentID:  brandGroup.ID,
		ShortCode: "AB",
		Name:      "Alpha Brand",
		Operator:  "tester",
	})
	if err != nil {
		t.Fatalf("create AB failed: %v", err)
	}
	master, err := env.productService.Create(CreateProductInput{
		CompanyID: 1,
		Name:      "skew-master",
		Price:     100,
		BrandSeq:  &otherBrand.ID,
		Operator:  "tester",
	})
	if err != nil {
		t.Fatalf("create master failed: %v", err)
	}

	variant, warnings, err := env.variantService.Create(CreateVariantInput{
		MasterID: master.ID,
		Tokens:   tokensWith("01", "BLK"),
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("skewed create should succeed, got %v", err)
	}
	if variant == nil {
		t.Fatal("variant should be inserted")
	}
	if len(warnings) != 1 || warnings[0].Field != constants.GroupBrand {
		t.Fatalf("warnings = %+v, want one Brand skew warning", warnings)
	}
	if warnings[0].VariantToken != "RY" || warnings[0].MasterSeq != otherBrand.ID {
		t.Fatalf("warning detail = %+v", warnings[0])
	}
}

func TestNextProductCodeProgression(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)
	master := env.createMaster(t, "progression-master")

	for _, spec := range []struct{ prodCode, color string }{
		{"01", "BLK"}, {"02", "WHT"}, {"XX", "RED"},
	} {
		if _, _, err := env.variantService.Create(CreateVariantInput{
			MasterID: master.ID,
			Tokens:   tokensWith(spec.prodCode, spec.color),
			Operator: "tester",
		}); err != nil {
			t.Fatalf("create %s failed: %v", spec.prodCode, err)
		}
	}

	next, err := env.variantService.NextProductCode("RY", "2", "SG", "WC")
	if err != nil {
		t.Fatalf("next product code failed: %v", err)
	}
	if next != "03" {
		t.Fatalf("next product code = %q, want %q", next, "03")
	}
}

func TestReplaceVariantsForMasterIsIdempotent(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)
	master := env.createMaster(t, "replace-master")

	specs := []VariantSpec{
		{Tokens: tokensWith("01", "BLK"), VariantName: "replace-master BLK"},
		{Tokens: tokensWith("01", "WHT"), VariantName: "replace-master WHT"},
		{Tokens: tokensWith("01", "RED"), VariantName: "replace-master RED"},
	}

	first, _, err := env.variantService.ReplaceVariantsForMaster(master.ID, specs, "tester")
	if err != nil {
		t.Fatalf("first replace failed: %v", err)
	}
	if first.Inserted != 3 || first.Deleted != 0 {
		t.Fatalf("first replace = %+v, want 3 inserts", first)
	}

	second, _, err := env.variantService.ReplaceVariantsForMaster(master.ID, specs, "tester")
	if err != nil {
		t.Fatalf("second replace failed: %v", err)
	}
	if second.Inserted != 0 || second.Deleted != 0 || second.Updated != 0 {
		t.Fatalf("second replace = %+v, want all zero", second)
	}

	variants, err := env.variantRepo.ListByMaster(master.ID)
	if err != nil {
		t.Fatalf("list variants failed: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("variant set = %d rows, want 3", len(variants))
	}

	// 缩小集合应删除差集
	third, _, err := env.variantService.ReplaceVariantsForMaster(master.ID, specs[:2], "tester")
	if err != nil {
		t.Fatalf("third replace failed: %v", err)
	}
	if third.Deleted != 1 || third.Inserted != 0 {
		t.Fatalf("third replace = %+v, want one delete", third)
	}
}

func TestReplaceVariantsRejectsSelfCodeOwnedByOtherMaster(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)
	masterA := env.createMaster(t, "replace-owner-a")
	masterB := env.createMaster(t, "replace-owner-b")

	if _, _, err := env.variantService.Create(CreateVariantInput{
		MasterID:    masterA.ID,
		Tokens:      tokensWith("01", "BLK"),
		VariantName: "owner-a BLK",
		Operator:    "tester",
	}); err != nil {
		t.Fatalf("create variant on first master failed: %v", err)
	}

	_, _, err := env.variantService.ReplaceVariantsForMaster(masterB.ID, []VariantSpec{
		{Tokens: tokensWith("01", "BLK"), VariantName: "owner-b BLK"},
	}, "tester")
	if !errors.Is(err, ErrDuplicateSelfCode) {
		t.Fatalf("replace with taken self code = %v, want ErrDuplicateSelfCode", err)
	}

	variants, err := env.variantRepo.ListByMaster(masterB.ID)
	if err != nil {
		t.Fatalf("list variants failed: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("second master holds %d variants, want 0", len(variants))
	}
}

func TestProductCreateValidatesSeqGroups(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)

	// Color 组的成员不能作为 brand_seq
	colorGroup, err := env.codeRepo.GetGroupByName(constants.GroupColor)
	if err != nil || colorGroup == nil {
		t.Fatalf("color group missing: %v", err)
	}
	colorMembers, err := env.codeRepo.ListMembers(colorGroup.ID)
	if err != nil || len(colorMembers) == 0 {
		t.Fatalf("color members missing: %v", err)
	}

	_, err = env.productService.Create(CreateProductInput{
		CompanyID: 1,
		Name:      "bad-brand",
		Price:     100,
		BrandSeq:  &colorMembers[0].ID,
		Operator:  "tester",
	})
	if !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("cross-group seq error = %v, want ErrUnknownCode", err)
	}

	_, err = env.productService.Create(CreateProductInput{
		CompanyID: 1,
		Name:      "bad-price",
		Price:     -1,
		Operator:  "tester",
	})
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("negative price error = %v, want ErrInvalidPrice", err)
	}
}

func TestProductDuplicateLegacyKey(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)

	legacySeq := int64(777)
	if _, err := env.productService.Create(CreateProductInput{
		CompanyID: 1, Name: "legacy-a", Price: 1, LegacySeq: &legacySeq, Operator: "tester",
	}); err != nil {
		t.Fatalf("first legacy create failed: %v", err)
	}
	_, err := env.productService.Create(CreateProductInput{
		CompanyID: 1, Name: "legacy-b", Price: 1, LegacySeq: &legacySeq, Operator: "tester",
	})
	if !errors.Is(err, ErrDuplicateLegacyKey) {
		t.Fatalf("duplicate legacy error = %v, want ErrDuplicateLegacyKey", err)
	}
}

func TestCatalogQueryDefaultHidesSoftDeleted(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)

	kept := env.createMaster(t, "kept-product")
	removed := env.createMaster(t, "removed-product")
	if err := env.productService.SoftDelete(removed.ID, "tester"); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	result, err := env.queryService.List(CatalogListInput{CompanyID: 1})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 1 || len(result.Rows) != 1 {
		t.Fatalf("default list = %d rows total %d, want 1/1", len(result.Rows), result.Total)
	}
	if result.Rows[0].Product.ID != kept.ID {
		t.Fatalf("default list returned wrong product")
	}

	all, err := env.queryService.List(CatalogListInput{CompanyID: 1, ShowAll: true})
	if err != nil {
		t.Fatalf("show all failed: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("show all total = %d, want 2", all.Total)
	}
}

func TestReorderRejectsPartialSiblingList(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)

	colorGroup, err := env.codeRepo.GetGroupByName(constants.GroupColor)
	if err != nil || colorGroup == nil {
		t.Fatalf("color group missing: %v", err)
	}
	members, err := env.codeRepo.ListMembers(colorGroup.ID)
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("color members = %d, want 3", len(members))
	}

	if err := env.codeService.Reorder(colorGroup.ID, []uint{members[0].ID, members[1].ID}); !errors.Is(err, ErrReorderPartial) {
		t.Fatalf("partial reorder error = %v, want ErrReorderPartial", err)
	}
	if err := env.codeService.Reorder(colorGroup.ID, []uint{members[0].ID, members[1].ID, members[1].ID}); !errors.Is(err, ErrReorderPartial) {
		t.Fatalf("duplicate id reorder error = %v, want ErrReorderPartial", err)
	}

	if err := env.codeService.Reorder(colorGroup.ID, []uint{members[2].ID, members[0].ID, members[1].ID}); err != nil {
		t.Fatalf("full reorder failed: %v", err)
	}
	reordered, err := env.codeRepo.ListMembers(colorGroup.ID)
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	if reordered[0].ID != members[2].ID {
		t.Fatalf("reorder did not move member to front")
	}
}

func TestCatalogQueryExplicitUseAndActiveFilters(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)

	active := env.createMaster(t, "filter-active")
	disabled, err := env.productService.Create(CreateProductInput{
		CompanyID: 1,
		Name:      "filter-disabled",
		Price:     10000,
		UseYn:     constants.UseNo,
		Operator:  "tester",
	})
	if err != nil {
		t.Fatalf("create disabled master failed: %v", err)
	}

	unused, err := env.queryService.List(CatalogListInput{
		CompanyID: 1,
		ShowAll:   true,
		UseYn:     constants.UseNo,
	})
	if err != nil {
		t.Fatalf("use filter list failed: %v", err)
	}
	if unused.Total != 1 || unused.Rows[0].Product.ID != disabled.ID {
		t.Fatalf("use=N list total = %d, want only the disabled master", unused.Total)
	}

	if err := env.productService.SoftDelete(active.ID, "tester"); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	inactive := false
	dropped, err := env.queryService.List(CatalogListInput{
		CompanyID: 1,
		ShowAll:   true,
		IsActive:  &inactive,
	})
	if err != nil {
		t.Fatalf("active filter list failed: %v", err)
	}
	if dropped.Total != 1 || dropped.Rows[0].Product.ID != active.ID {
		t.Fatalf("active=false list total = %d, want only the soft deleted master", dropped.Total)
	}
}

func TestCodeServiceMemberValidation(t *testing.T) {
	env := setupCatalogServiceTest(t)
	env.seedVocabulary(t)

	brandGroup, err := env.codeRepo.GetGroupByName(constants.GroupBrand)
	if err != nil || brandGroup == nil {
		t.Fatalf("brand group missing: %v", err)
	}

	if _, err := env.codeService.CreateMember(CreateCodeInput{
		ParentID: 99999, ShortCode: "ZZ", Name: "nope", Operator: "tester",
	}); !errors.Is(err, ErrUnknownParent) {
		t.Fatalf("unknown parent error = %v", err)
	}

	if _, err := env.codeService.CreateMember(CreateCodeInput{
		ParentID: brandGroup.ID, Depth: 5, ShortCode: "ZZ", Name: "nope", Operator: "tester",
	}); !errors.Is(err, ErrDepthMismatch) {
		t.Fatalf("depth mismatch error = %v", err)
	}

	if _, err := env.codeService.CreateMember(CreateCodeInput{
		ParentID: brandGroup.ID, ShortCode: "RY", Name: "dup", Operator: "tester",
	}); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("duplicate code error = %v", err)
	}

	var widthErr *selfcode.WidthMismatchError
	if _, err := env.codeService.CreateMember(CreateCodeInput{
		ParentID: brandGroup.ID, ShortCode: "TOOLONG", Name: "wide", Operator: "tester",
	}); !errors.As(err, &widthErr) {
		t.Fatalf("width error = %v, want WidthMismatchError", err)
	}

	if _, err := env.codeService.Update(brandGroup.ID, UpdateCodeInput{
		ShortCode: strPtr("Brand2"), Operator: "tester",
	}); !errors.Is(err, ErrGroupImmutable) {
		t.Fatalf("group rename error = %v, want ErrGroupImmutable", err)
	}
}

func strPtr(s string) *string { return &s }
