package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/provider"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"
	"github.com/catalog-next/internal/selfcode"
	"github.com/catalog-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCatalogHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Code{},
		&models.CatalogMeta{},
		&models.Product{},
		&models.ProductVariant{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	codeRepo := repository.NewCodeRepository(db)
	metaRepo := repository.NewMetaRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewProductVariantRepository(db)
	codeResolver := resolver.New(codeRepo, metaRepo)

	codeService := service.NewCodeService(codeRepo, metaRepo, 0)
	productService := service.NewProductService(productRepo, codeResolver, 0)
	variantService := service.NewVariantService(productRepo, variantRepo, codeResolver, 0)

	h := &Handler{Container: &provider.Container{
		CodeRepo:            codeRepo,
		ProductRepo:         productRepo,
		VariantRepo:         variantRepo,
		CodeResolver:        codeResolver,
		CodeService:         codeService,
		ProductService:      productService,
		VariantService:      variantService,
		CatalogQueryService: service.NewCatalogQueryService(productRepo, variantRepo),
	}}
	return h, db
}

func seedCatalogHandlerVocabulary(t *testing.T, h *Handler) {
	t.Helper()
	if err := h.CodeService.EnsureCodecGroups("tester"); err != nil {
		t.Fatalf("ensure groups failed: %v", err)
	}
	members := map[string][]string{
		constants.GroupBrand:        {"RY"},
		constants.GroupDivisionType: {"2"},
		constants.GroupProductGroup: {"SG"},
		constants.GroupProductType:  {"WC"},
		constants.GroupProductCode:  {"01"},
		constants.GroupType2:        {"00"},
		constants.GroupYear:         {"24"},
		constants.GroupColor:        {"BLK"},
	}
	for groupName, shortCodes := range members {
		group, err := h.CodeRepo.GetGroupByName(groupName)
		if err != nil || group == nil {
			t.Fatalf("group %s missing: %v", groupName, err)
		}
		for i, shortCode := range shortCodes {
			if _, err := h.CodeService.CreateMember(service.CreateCodeInput{
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

func newCatalogTestContext(t *testing.T, method, target string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload failed: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	c.Request = httptest.NewRequest(method, target, body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("admin_id", uint(1))
	c.Set("admin_username", "tester")
	c.Set("company_id", uint(constants.DefaultCompanyID))
	return c, w
}

func decodeCatalogResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Msg        string                 `json:"msg"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v (%s)", err, w.Body.String())
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status_code want 200 got %d msg=%s", resp.StatusCode, resp.Msg)
	}
	return resp.Data
}

func TestComposeSelfCodeHandler(t *testing.T) {
	h, _ := setupCatalogHandlerTest(t)
	seedCatalogHandlerVocabulary(t, h)

	c, w := newCatalogTestContext(t, http.MethodPost, "/api/v1/admin/catalog/codes/compose", gin.H{
		"tokens": gin.H{
			"brand":      "RY",
			"div_type":   "2",
			"prod_group": "SG",
			"prod_type":  "WC",
			"prod_code":  "01",
			"prod_type2": "00",
			"year":       "24",
			"color":      "BLK",
		},
	})
	h.ComposeSelfCode(c)

	data := decodeCatalogResponse(t, w)
	if data["self_code"] != "RY2SGWC010024BLK" {
		t.Fatalf("self_code want RY2SGWC010024BLK got %v", data["self_code"])
	}
	violations, ok := data["violations"].([]interface{})
	if !ok || len(violations) != 0 {
		t.Fatalf("violations want empty got %v", data["violations"])
	}
}

func TestComposeSelfCodeHandlerRejectsBadWidth(t *testing.T) {
	h, _ := setupCatalogHandlerTest(t)
	seedCatalogHandlerVocabulary(t, h)

	c, w := newCatalogTestContext(t, http.MethodPost, "/api/v1/admin/catalog/codes/compose", gin.H{
		"tokens": gin.H{
			"brand":      "ROY",
			"div_type":   "2",
			"prod_group": "SG",
			"prod_type":  "WC",
			"prod_code":  "01",
			"prod_type2": "00",
			"year":       "24",
			"color":      "BLK",
		},
	})
	h.ComposeSelfCode(c)

	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
}

func TestCreateProductAndVariantHandlers(t *testing.T) {
	h, db := setupCatalogHandlerTest(t)
	seedCatalogHandlerVocabulary(t, h)

	c, w := newCatalogTestContext(t, http.MethodPost, "/api/v1/admin/catalog/products", gin.H{
		"name":  "로이 선글라스",
		"price": 1280000,
	})
	h.CreateCatalogProduct(c)

	var created struct {
		StatusCode int            `json:"status_code"`
		Data       models.Product `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal create response failed: %v", err)
	}
	if created.StatusCode != 200 || created.Data.ID == 0 {
		t.Fatalf("product create failed: %s", w.Body.String())
	}
	if created.Data.CreatedBy != "tester" {
		t.Fatalf("created_by want tester got %s", created.Data.CreatedBy)
	}

	c, w = newCatalogTestContext(t, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/catalog/products/%d/variants", created.Data.ID), gin.H{
			"tokens": gin.H{
				"brand":      "RY",
				"div_type":   "2",
				"prod_group": "SG",
				"prod_type":  "WC",
				"prod_code":  "01",
				"prod_type2": "00",
				"year":       "24",
				"color":      "BLK",
			},
			"name": "로이 선글라스 블랙",
		})
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", created.Data.ID)}}
	h.CreateCatalogVariant(c)
	decodeCatalogResponse(t, w)

	var variant models.ProductVariant
	if err := db.Where("master_id = ?", created.Data.ID).First(&variant).Error; err != nil {
		t.Fatalf("variant not persisted: %v", err)
	}
	if variant.SelfCode != "RY2SGWC010024BLK" {
		t.Fatalf("self_code want RY2SGWC010024BLK got %s", variant.SelfCode)
	}

	c, w = newCatalogTestContext(t, http.MethodGet, "/api/v1/admin/catalog/products?page=1&page_size=10", nil)
	h.GetCatalogProducts(c)
	data := decodeCatalogResponse(t, w)
	items, ok := data["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("product list want 1 item got %v", data["items"])
	}
}

func TestUpdateVariantRecomposesSelfCode(t *testing.T) {
	h, db := setupCatalogHandlerTest(t)
	seedCatalogHandlerVocabulary(t, h)

	group, err := h.CodeRepo.GetGroupByName(constants.GroupColor)
	if err != nil || group == nil {
		t.Fatalf("color group missing: %v", err)
	}
	if _, err := h.CodeService.CreateMember(service.CreateCodeInput{
		ParentID:  group.ID,
		ShortCode: "WHT",
		Name:      "White",
		SortOrder: 2,
		Operator:  "tester",
	}); err != nil {
		t.Fatalf("create WHT failed: %v", err)
	}

	product, err := h.ProductService.Create(service.CreateProductInput{
		CompanyID: constants.DefaultCompanyID,
		Name:      "Sunglasses",
		Operator:  "tester",
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant, _, err := h.VariantService.Create(service.CreateVariantInput{
		MasterID: product.ID,
		Tokens: selfcode.Tokens{
			Brand: "RY", DivType: "2", ProdGroup: "SG", ProdType: "WC",
			ProdCode: "01", ProdType2: "00", Year: "24", Color: "BLK",
		},
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("create variant failed: %v", err)
	}

	c, w := newCatalogTestContext(t, http.MethodPut,
		fmt.Sprintf("/api/v1/admin/catalog/variants/%d", variant.ID), gin.H{"color": "WHT"})
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", variant.ID)}}
	h.UpdateCatalogVariant(c)
	decodeCatalogResponse(t, w)

	var updated models.ProductVariant
	if err := db.First(&updated, variant.ID).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	if updated.SelfCode != "RY2SGWC010024WHT" {
		t.Fatalf("self_code want RY2SGWC010024WHT got %s", updated.SelfCode)
	}
}
