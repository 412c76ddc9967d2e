package service

import (
	"strings"
	"time"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
	"github.com/catalog-next/internal/selfcode"

	"gorm.io/gorm"
)

// CodeService 编码字典业务服务
type CodeService struct {
	codeRepo     repository.CodeRepository
	metaRepo     repository.MetaRepository
	writeTimeout time.Duration
}

// NewCodeService 创建编码字典服务
func NewCodeService(codeRepo repository.CodeRepository, metaRepo repository.MetaRepository, writeTimeout time.Duration) *CodeService {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &CodeService{codeRepo: codeRepo, metaRepo: metaRepo, writeTimeout: writeTimeout}
}

// CreateCodeInput 创建编码成员输入
type CreateCodeInput struct {
	ParentID    uint
	Depth       int // 0 表示按父节点自动推导
	ShortCode   string
	Name        string
	Description string
	SortOrder   int
	Operator    string
}

// UpdateCodeInput 更新编码输入
type UpdateCodeInput struct {
	ShortCode   *string
	Name        *string
	Description *string
	SortOrder   *int
	UseYn       *string
	Operator    string
}

// ListGroups 列出全部根编码组
func (s *CodeService) ListGroups() ([]models.Code, error) {
	return s.codeRepo.ListGroups()
}

// ListMembers 按组名列出成员
func (s *CodeService) ListMembers(groupName string) ([]models.Code, error) {
	group, err := s.codeRepo.GetGroupByName(groupName)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrUnknownGroup
	}
	return s.codeRepo.ListMembers(group.ID)
}

// Get 按主键获取编码
func (s *CodeService) Get(id uint) (*models.Code, error) {
	code, err := s.codeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrNotFound
	}
	return code, nil
}

// isCodecGroup 组名是否为八个编码组之一
func isCodecGroup(name string) bool {
	for _, group := range constants.CodecGroups {
		if group == name {
			return true
		}
	}
	return false
}

// CreateMember 创建编码成员
// 校验父节点存在、深度连续、短编码宽度字符集与同级唯一，成功后递增词表版本号
func (s *CodeService) CreateMember(input CreateCodeInput) (*models.Code, error) {
	parent, err := s.codeRepo.GetByID(input.ParentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrUnknownParent
	}

	depth := parent.Depth + 1
	if input.Depth != 0 && input.Depth != depth {
		return nil, ErrDepthMismatch
	}

	shortCode := strings.TrimSpace(input.ShortCode)
	if parent.Depth == 0 && isCodecGroup(parent.ShortCode) {
		if err := selfcode.ValidateShortCode(parent.ShortCode, shortCode); err != nil {
			return nil, err
		}
	} else if shortCode == "" {
		return nil, ErrUnknownCode
	}

	count, err := s.codeRepo.CountByParentAndShortCode(input.ParentID, shortCode, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateCode
	}

	code := models.Code{
		ParentID:    &input.ParentID,
		Depth:       depth,
		ShortCode:   shortCode,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		SortOrder:   input.SortOrder,
		UseYn:       constants.UseYes,
		CreatedBy:   input.Operator,
		UpdatedBy:   input.Operator,
	}

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	err = retryWrite("code_create", func() error {
		return s.codeRepo.Transaction(func(tx *gorm.DB) error {
			tx = tx.WithContext(ctx)
			if err := s.codeRepo.WithTx(tx).Create(&code); err != nil {
				return err
			}
			return s.metaRepo.BumpVocabularyVersion(tx)
		})
	})
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return &code, nil
}

// Update 更新编码
// 根编码组的短编码不可变更，成员短编码变更需重新校验宽度与唯一性
func (s *CodeService) Update(id uint, input UpdateCodeInput) (*models.Code, error) {
	code, err := s.codeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrNotFound
	}

	if input.ShortCode != nil {
		shortCode := strings.TrimSpace(*input.ShortCode)
		if shortCode != code.ShortCode {
			if code.IsGroup() {
				return nil, ErrGroupImmutable
			}
			if code.ParentID != nil {
				parent, err := s.codeRepo.GetByID(*code.ParentID)
				if err != nil {
					return nil, err
				}
				if parent != nil && parent.Depth == 0 && isCodecGroup(parent.ShortCode) {
					if err := selfcode.ValidateShortCode(parent.ShortCode, shortCode); err != nil {
						return nil, err
					}
				}
				count, err := s.codeRepo.CountByParentAndShortCode(*code.ParentID, shortCode, &id)
				if err != nil {
					return nil, err
				}
				if count > 0 {
					return nil, ErrDuplicateCode
				}
			}
			code.ShortCode = shortCode
		}
	}
	if input.Name != nil {
		code.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		code.Description = *input.Description
	}
	if input.SortOrder != nil {
		code.SortOrder = *input.SortOrder
	}
	if input.UseYn != nil {
		useYn := strings.ToUpper(strings.TrimSpace(*input.UseYn))
		if useYn == constants.UseYes || useYn == constants.UseNo {
			code.UseYn = useYn
		}
	}
	code.UpdatedBy = input.Operator

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	err = retryWrite("code_update", func() error {
		return s.codeRepo.Transaction(func(tx *gorm.DB) error {
			tx = tx.WithContext(ctx)
			if err := s.codeRepo.WithTx(tx).Update(code); err != nil {
				return err
			}
			return s.metaRepo.BumpVocabularyVersion(tx)
		})
	})
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return code, nil
}

// Reorder 原子重排某编码组下全部成员
func (s *CodeService) Reorder(parentID uint, orderedIDs []uint) error {
	parent, err := s.codeRepo.GetByID(parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return ErrUnknownParent
	}

	ctx, cancel := writeContext(s.writeTimeout)
	defer cancel()
	return retryWrite("code_reorder", func() error {
		return s.codeRepo.Transaction(func(tx *gorm.DB) error {
			tx = tx.WithContext(ctx)
			txCodeRepo := s.codeRepo.WithTx(tx)

			// 排序列表必须不多不少覆盖全部同级成员，残缺列表会留下重复排位
			siblings, err := txCodeRepo.ListMembers(parentID)
			if err != nil {
				return err
			}
			if len(orderedIDs) != len(siblings) {
				return ErrReorderPartial
			}
			siblingIDs := make(map[uint]bool, len(siblings))
			for _, sibling := range siblings {
				siblingIDs[sibling.ID] = true
			}
			seen := make(map[uint]bool, len(orderedIDs))
			for _, id := range orderedIDs {
				if !siblingIDs[id] || seen[id] {
					return ErrReorderPartial
				}
				seen[id] = true
			}

			if err := txCodeRepo.Reorder(parentID, orderedIDs); err != nil {
				return err
			}
			return s.metaRepo.BumpVocabularyVersion(tx)
		})
	})
}

// SoftDisable 停用编码（use_yn=N），不做物理删除
func (s *CodeService) SoftDisable(id uint, operator string) error {
	useNo := constants.UseNo
	_, err := s.Update(id, UpdateCodeInput{UseYn: &useNo, Operator: operator})
	return err
}

// EnsureCodecGroups 确保八个编码组存在（引导与导入前置步骤）
func (s *CodeService) EnsureCodecGroups(operator string) error {
	for index, groupName := range constants.CodecGroups {
		existing, err := s.codeRepo.GetGroupByName(groupName)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		group := models.Code{
			Depth:     0,
			ShortCode: groupName,
			Name:      groupName,
			SortOrder: index + 1,
			UseYn:     constants.UseYes,
			CreatedBy: operator,
			UpdatedBy: operator,
		}
		if err := s.codeRepo.Create(&group); err != nil {
			return err
		}
	}
	return s.metaRepo.BumpVocabularyVersion(nil)
}
