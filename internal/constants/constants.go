package constants

// 自定编码（자가코드）八个编码组的标准组名
// codes 表 depth=0 的根节点以这些名称存在，启动时由 Resolver 解析一次
const (
	GroupBrand        = "Brand"
	GroupDivisionType = "DivisionType"
	GroupProductGroup = "ProductGroup"
	GroupProductType  = "ProductType"
	GroupProductCode  = "ProductCode"
	GroupType2        = "Type2"
	GroupYear         = "Year"
	GroupColor        = "Color"
)

// CodecGroups 自定编码各段对应的组名（按 16 位编码的段顺序）
var CodecGroups = []string{
	GroupBrand,
	GroupDivisionType,
	GroupProductGroup,
	GroupProductType,
	GroupProductCode,
	GroupType2,
	GroupYear,
	GroupColor,
}

// 未分配的产品码占位符（迁移数据中存在，NextProductCode 计算时按 0 处理）
const ProductCodeUnassigned = "XX"

// 使用标记常量
const (
	UseYes = "Y"
	UseNo  = "N"
)

// 变体状态常量
const (
	VariantStatusActive   = "Active"
	VariantStatusInactive = "Inactive"
)

// 默认租户（未携带 X-Company-Id 时的公司范围）
const DefaultCompanyID = 1

// 分页常量
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// 队列常量
const (
	QueueDefault      = "default"
	TaskCatalogImport = "catalog:import"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "catalog"
)

// catalog_meta 键常量
const (
	MetaKeyVocabularyVersion = "vocabulary_version"
)

// 导入报告跳过原因常量
const (
	SkipReasonUnknownCode    = "unknown_code"
	SkipReasonLengthMismatch = "length_mismatch"
	SkipReasonWidthMismatch  = "width_mismatch"
	SkipReasonCodeMismatch   = "code_mismatch"
	SkipReasonMasterMissing  = "master_missing"
	SkipReasonDuplicate      = "duplicate"
	SkipReasonDBError        = "db_error"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)
