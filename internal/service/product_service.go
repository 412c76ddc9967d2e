package service

import (
	"strings"
	"time"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"

	"gorm.io/gorm"
)

// ProductService 商品主档业务服务
type ProductService struct {
	productRepo  repository.ProductRepository
	resolver     *resolver.Resolver
	writeTimeout time.Duration
}

// NewProductService 创建商品主档服务
func NewProductService(productRepo repository.ProductRepository, codeResolver *resolver.Resolver, writeTimeout time.Duration) *ProductService {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &ProductService{productRepo: productRepo, resolver: codeResolver, writeTimeout: writeTimeout}
}

// CreateProductInput 创建商品主档输入
type CreateProductInput struct {
	CompanyID   uint
	Name        string
	Price       int64
	BrandSeq    *uint
	CategorySeq *uint
	TypeSeq     *uint
	YearSeq     *uint
	UseYn       string
	LegacySeq   *int64
	Operator    string
}

// UpdateProductInput 更新商品主档输入（nil 字段不变更）
type UpdateProductInput struct {
	Name        *string
	Price       *int64
	BrandSeq    *uint
	CategorySeq *uint
	TypeSeq     *uint
	YearSeq     *uint
	UseYn       *string
	Operator    string
}

// validateMasterSeq 校验主档编码外键归属正确的编码组
func (s *ProductService) validateMasterSeq(group string, seq *uint) error {
	if seq == nil {
		return nil
	}
	ok, err := s.resolver.IsMemberOf(group, *seq)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownCode
	}
	return nil
}

// validateMasterSeqs 批量校验四个主档编码外键
func (s *ProductService) validateMasterSeqs(brandSeq, categorySeq, typeSeq, yearSeq *uint) error {
	bindings := []struct {
		group string
		seq   *uint
	}{
		{constants.GroupBrand, brandSeq},
		{constants.GroupProductGroup, categorySeq},
		{constants.GroupProductType, typeSeq},
		{constants.GroupYear, yearSeq},
	}
	for _, binding := range bindings {
		if err := s.validateMasterSeq(binding.group, binding.seq); err != nil {
			return err
		}
	}
	return nil
}

// Create 创建商品主档
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	if input.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if err := s.validateMasterSeqs(input.BrandSeq, input.CategorySeq, input.TypeSeq, input.YearSeq); err != nil {
		return nil, err
	}
	if input.CompanyID == 0 {
		input.CompanyID = constants.DefaultCompanyID
	}
	useYn := strings.ToUpper(strings.TrimSpace(input.UseYn))
	if useYn != constants.UseNo {
		useYn = constants.UseYes
	}

	if input.LegacySeq != nil {
		existing, err := s.productRepo.GetByLegacy(input.CompanyID, *input.LegacySeq)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicateLegacyKey
		}
	}

	product := models.Product{
		CompanyID:   input.CompanyID,
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		BrandSeq:    input.BrandSeq,
		CategorySeq: input.CategorySeq,
		TypeSeq:     input.TypeSeq,
		YearSeq:     input.YearSeq,
		UseYn:       useYn,
		IsActive:    true,
		LegacySeq:   input.LegacySeq,
		CreatedBy:   input.Operator,
		UpdatedBy:   input.Operator,
	}

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	err := retryWrite("product_create", func() error {
		return s.productRepo.Transaction(func(tx *gorm.DB) error {
			return s.productRepo.WithTx(tx.WithContext(ctx)).Create(&product)
		})
	})
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrDuplicateLegacyKey
		}
		return nil, err
	}
	return &product, nil
}

// Update 更新商品主档，编码外键按所属组重新校验
func (s *ProductService) Update(id uint, input UpdateProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}

	if input.Price != nil && *input.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if err := s.validateMasterSeqs(input.BrandSeq, input.CategorySeq, input.TypeSeq, input.YearSeq); err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.BrandSeq != nil {
		product.BrandSeq = input.BrandSeq
	}
	if input.CategorySeq != nil {
		product.CategorySeq = input.CategorySeq
	}
	if input.TypeSeq != nil {
		product.TypeSeq = input.TypeSeq
	}
	if input.YearSeq != nil {
		product.YearSeq = input.YearSeq
	}
	if input.UseYn != nil {
		useYn := strings.ToUpper(strings.TrimSpace(*input.UseYn))
		if useYn == constants.UseYes || useYn == constants.UseNo {
			product.UseYn = useYn
		}
	}
	product.UpdatedBy = input.Operator
	product.Variants = nil

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	err = retryWrite("product_update", func() error {
		return s.productRepo.Transaction(func(tx *gorm.DB) error {
			return s.productRepo.WithTx(tx.WithContext(ctx)).Update(product)
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDelete 软删除商品主档（is_active=false 且 use_yn=N）
// 不触碰规格行，其状态独立可变，便于主档恢复
func (s *ProductService) SoftDelete(id uint, operator string) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	return retryWrite("product_soft_delete", func() error {
		return s.productRepo.Transaction(func(tx *gorm.DB) error {
			return s.productRepo.WithTx(tx.WithContext(ctx)).UpdateColumns(id, map[string]interface{}{
				"is_active":  false,
				"use_yn":     constants.UseNo,
				"updated_by": operator,
			})
		})
	})
}

// Get 获取商品主档（含规格行）
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// GetByLegacy 按（租户，旧系统主键）获取商品主档
func (s *ProductService) GetByLegacy(companyID uint, legacySeq int64) (*models.Product, error) {
	product, err := s.productRepo.GetByLegacy(companyID, legacySeq)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}
