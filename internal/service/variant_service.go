package service

import (
	"strings"
	"time"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/resolver"
	"github.com/catalog-next/internal/selfcode"

	"gorm.io/gorm"
)

// VariantService 商品规格业务服务
// 规格行的八个编码字段与 16 位自定编码的一致性在此处集中保证
type VariantService struct {
	productRepo  repository.ProductRepository
	variantRepo  repository.ProductVariantRepository
	resolver     *resolver.Resolver
	writeTimeout time.Duration
}

// NewVariantService 创建商品规格服务
func NewVariantService(productRepo repository.ProductRepository, variantRepo repository.ProductVariantRepository, codeResolver *resolver.Resolver, writeTimeout time.Duration) *VariantService {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &VariantService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		resolver:     codeResolver,
		writeTimeout: writeTimeout,
	}
}

// CreateVariantInput 创建规格行输入
type CreateVariantInput struct {
	MasterID    uint
	Tokens      selfcode.Tokens
	VariantName string
	Status      string
	LegacySeq   *int64
	Operator    string
}

// UpdateVariantInput 更新规格行输入（nil 字段不变更）
// 自定编码不可直接赋值，任一编码字段变更后按新字段重新拼装
type UpdateVariantInput struct {
	Brand       *string
	DivType     *string
	ProdGroup   *string
	ProdType    *string
	ProdCode    *string
	ProdType2   *string
	Year        *string
	Color       *string
	VariantName *string
	Status      *string
	Operator    string
}

// VariantSpec 批量替换规格集合的单行定义
type VariantSpec struct {
	Tokens      selfcode.Tokens
	VariantName string
	Status      string
	LegacySeq   *int64
}

// VariantWarning 主档属性与规格编码字段不一致的告警
// 迁移数据允许这种偏差，规格字段是对外标识的权威来源
type VariantWarning struct {
	Field        string `json:"field"`
	MasterSeq    uint   `json:"master_seq"`
	VariantToken string `json:"variant_token"`
}

// ReplaceResult 批量替换规格集合的执行统计
type ReplaceResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
}

// ValidateTokens 校验八个编码字段在词表中均存在，返回全部违规项
func (s *VariantService) ValidateTokens(tokens selfcode.Tokens) ([]*selfcode.UnknownTokenError, error) {
	values := tokens.Slice()
	violations := make([]*selfcode.UnknownTokenError, 0)
	for i, spec := range selfcode.Fields {
		member, err := s.resolver.Member(spec.Group, values[i])
		if err != nil {
			return nil, err
		}
		if member == nil {
			violations = append(violations, &selfcode.UnknownTokenError{Field: spec.Group, Token: values[i]})
		}
	}
	return violations, nil
}

// masterSkewWarnings 比对主档四个编码外键与规格编码字段
func (s *VariantService) masterSkewWarnings(master *models.Product, tokens selfcode.Tokens) ([]VariantWarning, error) {
	checks := []struct {
		group string
		seq   *uint
		token string
	}{
		{constants.GroupBrand, master.BrandSeq, tokens.Brand},
		{constants.GroupProductGroup, master.CategorySeq, tokens.ProdGroup},
		{constants.GroupProductType, master.TypeSeq, tokens.ProdType},
		{constants.GroupYear, master.YearSeq, tokens.Year},
	}
	warnings := make([]VariantWarning, 0)
	for _, check := range checks {
		if check.seq == nil {
			continue
		}
		member, err := s.resolver.Member(check.group, check.token)
		if err != nil {
			return nil, err
		}
		if member == nil || member.ID != *check.seq {
			warnings = append(warnings, VariantWarning{
				Field:        check.group,
				MasterSeq:    *check.seq,
				VariantToken: check.token,
			})
		}
	}
	return warnings, nil
}

// buildVariant 由输入拼装规格行，完成编码拼接与词表校验
func (s *VariantService) buildVariant(masterID uint, tokens selfcode.Tokens, variantName, status string, legacySeq *int64, operator string) (*models.ProductVariant, error) {
	selfCode, err := selfcode.Compose(tokens)
	if err != nil {
		return nil, err
	}
	violations, err := s.ValidateTokens(tokens)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, violations[0]
	}

	status = strings.TrimSpace(status)
	if status != constants.VariantStatusInactive {
		status = constants.VariantStatusActive
	}
	return &models.ProductVariant{
		MasterID:    masterID,
		Brand:       tokens.Brand,
		DivType:     tokens.DivType,
		ProdGroup:   tokens.ProdGroup,
		ProdType:    tokens.ProdType,
		ProdCode:    tokens.ProdCode,
		ProdType2:   tokens.ProdType2,
		Year:        tokens.Year,
		Color:       tokens.Color,
		SelfCode:    selfCode,
		VariantName: strings.TrimSpace(variantName),
		Status:      status,
		LegacySeq:   legacySeq,
		CreatedBy:   operator,
		UpdatedBy:   operator,
	}, nil
}

// Create 创建规格行
// 词表校验失败为硬错误；主档属性偏差作为告警随成功结果返回
func (s *VariantService) Create(input CreateVariantInput) (*models.ProductVariant, []VariantWarning, error) {
	master, err := s.productRepo.GetByID(input.MasterID)
	if err != nil {
		return nil, nil, err
	}
	if master == nil {
		return nil, nil, ErrMasterMissing
	}

	variant, err := s.buildVariant(input.MasterID, input.Tokens, input.VariantName, input.Status, input.LegacySeq, input.Operator)
	if err != nil {
		return nil, nil, err
	}

	count, err := s.variantRepo.CountBySelfCodeInCompany(master.CompanyID, variant.SelfCode, nil)
	if err != nil {
		return nil, nil, err
	}
	if count > 0 {
		return nil, nil, ErrDuplicateSelfCode
	}

	warnings, err := s.masterSkewWarnings(master, input.Tokens)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	err = retryWrite("variant_create", func() error {
		return s.variantRepo.Transaction(func(tx *gorm.DB) error {
			return s.variantRepo.WithTx(tx.WithContext(ctx)).Create(variant)
		})
	})
	if err != nil {
		if isConstraintViolation(err) {
			return nil, nil, ErrDuplicateSelfCode
		}
		return nil, nil, err
	}
	return variant, warnings, nil
}

// ReplaceVariantsForMaster 以新集合替换主商品的规格行，按自定编码做差集
// 单事务执行，事务开始即对主档行加锁，重复调用幂等
func (s *VariantService) ReplaceVariantsForMaster(masterID uint, specs []VariantSpec, operator string) (ReplaceResult, []VariantWarning, error) {
	master, err := s.productRepo.GetByID(masterID)
	if err != nil {
		return ReplaceResult{}, nil, err
	}
	if master == nil {
		return ReplaceResult{}, nil, ErrMasterMissing
	}

	// 事务前完成全部编码拼装与词表校验
	desired := make([]*models.ProductVariant, 0, len(specs))
	warnings := make([]VariantWarning, 0)
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		variant, err := s.buildVariant(masterID, spec.Tokens, spec.VariantName, spec.Status, spec.LegacySeq, operator)
		if err != nil {
			return ReplaceResult{}, nil, err
		}
		if seen[variant.SelfCode] {
			return ReplaceResult{}, nil, ErrDuplicateSelfCode
		}
		seen[variant.SelfCode] = true
		skew, err := s.masterSkewWarnings(master, spec.Tokens)
		if err != nil {
			return ReplaceResult{}, nil, err
		}
		warnings = append(warnings, skew...)
		desired = append(desired, variant)
	}

	var result ReplaceResult
	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	err = retryWrite("variant_replace_set", func() error {
		result = ReplaceResult{}
		return s.variantRepo.Transaction(func(tx *gorm.DB) error {
			tx = tx.WithContext(ctx)
			txProductRepo := s.productRepo.WithTx(tx)
			txVariantRepo := s.variantRepo.WithTx(tx)

			locked, err := txProductRepo.LockByID(masterID)
			if err != nil {
				return err
			}
			if locked == nil {
				return ErrMasterMissing
			}

			existing, err := txVariantRepo.ListByMaster(masterID)
			if err != nil {
				return err
			}
			existingBySelfCode := make(map[string]*models.ProductVariant, len(existing))
			for i := range existing {
				existingBySelfCode[existing[i].SelfCode] = &existing[i]
			}

			// 删除不在新集合中的规格行
			obsolete := make([]string, 0)
			for selfCode := range existingBySelfCode {
				if !seen[selfCode] {
					obsolete = append(obsolete, selfCode)
				}
			}
			if err := txVariantRepo.DeleteByMasterAndSelfCodes(masterID, obsolete); err != nil {
				return err
			}
			result.Deleted = len(obsolete)

			for _, variant := range desired {
				current, ok := existingBySelfCode[variant.SelfCode]
				if !ok {
					// 自定编码在租户内不得被其他主商品占用
					taken, err := txVariantRepo.CountBySelfCodeInOtherMasters(master.CompanyID, variant.SelfCode, masterID)
					if err != nil {
						return err
					}
					if taken > 0 {
						return ErrDuplicateSelfCode
					}
					if err := txVariantRepo.Create(variant); err != nil {
						return err
					}
					result.Inserted++
					continue
				}
				if current.VariantName == variant.VariantName &&
					current.Status == variant.Status &&
					legacySeqEqual(current.LegacySeq, variant.LegacySeq) {
					continue
				}
				current.VariantName = variant.VariantName
				current.Status = variant.Status
				if variant.LegacySeq != nil {
					current.LegacySeq = variant.LegacySeq
				}
				current.UpdatedBy = operator
				if err := txVariantRepo.Update(current); err != nil {
					return err
				}
				result.Updated++
			}
			return nil
		})
	})
	if err != nil {
		return ReplaceResult{}, nil, err
	}
	return result, warnings, nil
}

func legacySeqEqual(a, b *int64) bool {
	if b == nil {
		return true
	}
	return a != nil && *a == *b
}

// Update 更新规格行，编码字段变更后重新拼装自定编码
func (s *VariantService) Update(id uint, input UpdateVariantInput) (*models.ProductVariant, []VariantWarning, error) {
	variant, err := s.variantRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if variant == nil {
		return nil, nil, ErrNotFound
	}
	master, err := s.productRepo.GetByID(variant.MasterID)
	if err != nil {
		return nil, nil, err
	}
	if master == nil {
		return nil, nil, ErrMasterMissing
	}

	tokens := selfcode.Tokens{
		Brand:     patched(input.Brand, variant.Brand),
		DivType:   patched(input.DivType, variant.DivType),
		ProdGroup: patched(input.ProdGroup, variant.ProdGroup),
		ProdType:  patched(input.ProdType, variant.ProdType),
		ProdCode:  patched(input.ProdCode, variant.ProdCode),
		ProdType2: patched(input.ProdType2, variant.ProdType2),
		Year:      patched(input.Year, variant.Year),
		Color:     patched(input.Color, variant.Color),
	}
	selfCode, err := selfcode.Compose(tokens)
	if err != nil {
		return nil, nil, err
	}
	violations, err := s.ValidateTokens(tokens)
	if err != nil {
		return nil, nil, err
	}
	if len(violations) > 0 {
		return nil, nil, violations[0]
	}

	if selfCode != variant.SelfCode {
		count, err := s.variantRepo.CountBySelfCodeInCompany(master.CompanyID, selfCode, &variant.ID)
		if err != nil {
			return nil, nil, err
		}
		if count > 0 {
			return nil, nil, ErrDuplicateSelfCode
		}
	}

	warnings, err := s.masterSkewWarnings(master, tokens)
	if err != nil {
		return nil, nil, err
	}

	variant.Brand = tokens.Brand
	variant.DivType = tokens.DivType
	variant.ProdGroup = tokens.ProdGroup
	variant.ProdType = tokens.ProdType
	variant.ProdCode = tokens.ProdCode
	variant.ProdType2 = tokens.ProdType2
	variant.Year = tokens.Year
	variant.Color = tokens.Color
	variant.SelfCode = selfCode
	if input.VariantName != nil {
		variant.VariantName = strings.TrimSpace(*input.VariantName)
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == constants.VariantStatusActive || status == constants.VariantStatusInactive {
			variant.Status = status
		}
	}
	variant.UpdatedBy = input.Operator

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	err = retryWrite("variant_update", func() error {
		return s.variantRepo.Transaction(func(tx *gorm.DB) error {
			return s.variantRepo.WithTx(tx.WithContext(ctx)).Update(variant)
		})
	})
	if err != nil {
		if isConstraintViolation(err) {
			return nil, nil, ErrDuplicateSelfCode
		}
		return nil, nil, err
	}
	return variant, warnings, nil
}

func patched(patch *string, current string) string {
	if patch == nil {
		return current
	}
	return strings.TrimSpace(*patch)
}

// SetStatus 设置规格行状态
func (s *VariantService) SetStatus(id uint, status, operator string) error {
	if status != constants.VariantStatusActive && status != constants.VariantStatusInactive {
		return ErrInvalidStatus
	}
	variant, err := s.variantRepo.GetByID(id)
	if err != nil {
		return err
	}
	if variant == nil {
		return ErrNotFound
	}
	variant.Status = status
	variant.UpdatedBy = operator

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	return retryWrite("variant_set_status", func() error {
		return s.variantRepo.Transaction(func(tx *gorm.DB) error {
			return s.variantRepo.WithTx(tx.WithContext(ctx)).Update(variant)
		})
	})
}

// NextProductCode 在（品牌，区分，品类，类型）前缀下推进流水编码
// 只读查询，非数字取值按 0 参与取最大值
func (s *VariantService) NextProductCode(brand, divType, prodGroup, prodType string) (string, error) {
	prodCodes, err := s.variantRepo.ListProdCodesByPrefix(repository.VariantPrefixFilter{
		Brand:     brand,
		DivType:   divType,
		ProdGroup: prodGroup,
		ProdType:  prodType,
	})
	if err != nil {
		return "", err
	}
	return selfcode.NextProductCode(prodCodes)
}
