package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/catalog-next/internal/http/response"
	"github.com/catalog-next/internal/selfcode"
	"github.com/catalog-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCatalogCodeGroups 获取全部根编码组
func (h *Handler) GetCatalogCodeGroups(c *gin.Context) {
	groups, err := h.CodeService.ListGroups()
	if err != nil {
		respondError(c, response.CodeInternal, "code group list failed", err)
		return
	}
	response.Success(c, groups)
}

// GetCatalogCodeMembers 按组查询成员，路径参数可为组主键或组名
func (h *Handler) GetCatalogCodeMembers(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		respondError(c, response.CodeBadRequest, "invalid group", nil)
		return
	}

	if groupID, err := strconv.ParseUint(raw, 10, 64); err == nil {
		members, listErr := h.CodeRepo.ListMembers(uint(groupID))
		if listErr != nil {
			respondError(c, response.CodeInternal, "code member list failed", listErr)
			return
		}
		response.Success(c, members)
		return
	}

	members, err := h.CodeService.ListMembers(raw)
	if err != nil {
		if errors.Is(err, service.ErrUnknownGroup) {
			respondError(c, response.CodeNotFound, "code group not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "code member list failed", err)
		return
	}
	response.Success(c, members)
}

// CatalogCodeRequest 创建编码成员请求
type CatalogCodeRequest struct {
	ParentID    uint   `json:"parent_id" binding:"required"`
	ShortCode   string `json:"short_code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// CreateCatalogCode 创建编码成员
func (h *Handler) CreateCatalogCode(c *gin.Context) {
	var req CatalogCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	code, err := h.CodeService.CreateMember(service.CreateCodeInput{
		ParentID:    req.ParentID,
		ShortCode:   strings.TrimSpace(req.ShortCode),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		SortOrder:   req.SortOrder,
		Operator:    currentOperator(c),
	})
	if err != nil {
		respondCatalogCodeError(c, err)
		return
	}
	response.Success(c, code)
}

// UpdateCatalogCodeRequest 更新编码请求（nil 字段不变更）
type UpdateCatalogCodeRequest struct {
	ShortCode   *string `json:"short_code"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
	UseYn       *string `json:"use_yn"`
}

// UpdateCatalogCode 更新编码
func (h *Handler) UpdateCatalogCode(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateCatalogCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	code, err := h.CodeService.Update(id, service.UpdateCodeInput{
		ShortCode:   req.ShortCode,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		UseYn:       req.UseYn,
		Operator:    currentOperator(c),
	})
	if err != nil {
		respondCatalogCodeError(c, err)
		return
	}
	response.Success(c, code)
}

// DeleteCatalogCode 停用编码（软删除，历史引用保留）
func (h *Handler) DeleteCatalogCode(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.CodeService.SoftDisable(id, currentOperator(c)); err != nil {
		respondCatalogCodeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ReorderCatalogCodesRequest 编码排序请求，ordered_ids 必须覆盖全部兄弟节点
type ReorderCatalogCodesRequest struct {
	OrderedIDs []uint `json:"ordered_ids" binding:"required"`
}

// ReorderCatalogCodes 原子重排某组下全部成员
func (h *Handler) ReorderCatalogCodes(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ReorderCatalogCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.CodeService.Reorder(id, req.OrderedIDs); err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrReorderPartial) {
			respondError(c, response.CodeBadRequest, "ordered ids do not match group members", nil)
			return
		}
		respondCatalogCodeError(c, err)
		return
	}
	response.Success(c, nil)
}

func respondCatalogCodeError(c *gin.Context, err error) {
	var widthErr *selfcode.WidthMismatchError
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "code not found", nil)
	case errors.Is(err, service.ErrUnknownParent):
		respondError(c, response.CodeBadRequest, "parent code not found", nil)
	case errors.Is(err, service.ErrDepthMismatch):
		respondError(c, response.CodeBadRequest, "code depth must be parent depth plus one", nil)
	case errors.Is(err, service.ErrDuplicateCode):
		respondError(c, response.CodeBadRequest, "short code already exists under parent", nil)
	case errors.Is(err, service.ErrGroupImmutable):
		respondError(c, response.CodeBadRequest, "group short code is immutable", nil)
	case errors.As(err, &widthErr):
		respondError(c, response.CodeBadRequest, widthErr.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "code save failed", err)
	}
}

// ==================== 自定编码工具 ====================

// ComposeSelfCodeRequest 自定编码拼装请求
type ComposeSelfCodeRequest struct {
	Tokens VariantTokensRequest `json:"tokens" binding:"required"`
}

// ComposeSelfCode 拼装 16 位自定编码并校验词表
func (h *Handler) ComposeSelfCode(c *gin.Context) {
	var req ComposeSelfCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	tokens := req.Tokens.toTokens()
	selfCode, err := selfcode.Compose(tokens)
	if err != nil {
		var widthErr *selfcode.WidthMismatchError
		if errors.As(err, &widthErr) {
			respondError(c, response.CodeBadRequest, widthErr.Error(), nil)
			return
		}
		respondError(c, response.CodeBadRequest, "compose failed", err)
		return
	}

	violations, err := h.VariantService.ValidateTokens(tokens)
	if err != nil {
		respondError(c, response.CodeInternal, "token validation failed", err)
		return
	}
	response.Success(c, gin.H{
		"self_code":  selfCode,
		"violations": violations,
	})
}

// DecomposeSelfCode 将 16 位自定编码按固定宽度拆解
func (h *Handler) DecomposeSelfCode(c *gin.Context) {
	selfCode := strings.TrimSpace(c.Query("self_code"))
	tokens, err := selfcode.Decompose(selfCode)
	if err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	response.Success(c, tokens)
}

// NextProductCode 预占下一个可用流水编码
func (h *Handler) NextProductCode(c *gin.Context) {
	brand := strings.TrimSpace(c.Query("brand"))
	divType := strings.TrimSpace(c.Query("div_type"))
	prodGroup := strings.TrimSpace(c.Query("prod_group"))
	prodType := strings.TrimSpace(c.Query("prod_type"))
	if brand == "" || divType == "" || prodGroup == "" || prodType == "" {
		respondError(c, response.CodeBadRequest, "brand, div_type, prod_group and prod_type are required", nil)
		return
	}

	next, err := h.VariantService.NextProductCode(brand, divType, prodGroup, prodType)
	if err != nil {
		if errors.Is(err, selfcode.ErrProductCodeExhausted) {
			respondError(c, response.CodeBadRequest, "product code range exhausted", nil)
			return
		}
		respondError(c, response.CodeInternal, "next product code failed", err)
		return
	}
	response.Success(c, gin.H{"prod_code": next})
}
