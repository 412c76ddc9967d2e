package importer

import "time"

// 旧系统（MSSQL db_mis）只读源表结构
// 导入器绝不写入源库

// LegacyCode 旧系统编码表
type LegacyCode struct {
	Seq       int64  `gorm:"column:Seq;primaryKey"`
	ParentSeq *int64 `gorm:"column:ParentSeq"`
	Code      string `gorm:"column:Code"`
	CodeName  string `gorm:"column:CodeName"`
	Depth     int    `gorm:"column:Depth"`
}

// TableName 指定表名
func (LegacyCode) TableName() string {
	return "tbl_Code"
}

// LegacyBrand 旧系统品牌表
type LegacyBrand struct {
	Seq       int64  `gorm:"column:Seq;primaryKey"`
	BrandCode string `gorm:"column:BrandCode"`
	BrandName string `gorm:"column:BrandName"`
}

// TableName 指定表名
func (LegacyBrand) TableName() string {
	return "tbl_Brand"
}

// LegacyProduct 旧系统商品主档表
type LegacyProduct struct {
	Seq        int64      `gorm:"column:Seq;primaryKey"`
	Company    *int64     `gorm:"column:Company"`
	Brand      *int64     `gorm:"column:Brand"`
	ProdGroup  *int64     `gorm:"column:ProdGroup"`
	ProdType   *int64     `gorm:"column:ProdType"`
	ProdYear   *int64     `gorm:"column:ProdYear"`
	ProdName   string     `gorm:"column:ProdName"`
	ProdTagAmt string     `gorm:"column:ProdTagAmt"`
	UseYn      string     `gorm:"column:UseYn"`
	InsDate    *time.Time `gorm:"column:InsDate"`
	UptDate    *time.Time `gorm:"column:UptDate"`
}

// TableName 指定表名
func (LegacyProduct) TableName() string {
	return "tbl_Product"
}

// LegacyProductDetail 旧系统商品规格表
// StdDivProdCode 即 16 位自定编码，必须逐字节保留
type LegacyProductDetail struct {
	Seq            int64  `gorm:"column:Seq;primaryKey"`
	MstSeq         int64  `gorm:"column:MstSeq"`
	BrandCode      string `gorm:"column:BrandCode"`
	DivTypeCode    string `gorm:"column:DivTypeCode"`
	ProdGroupCode  string `gorm:"column:ProdGroupCode"`
	ProdTypeCode   string `gorm:"column:ProdTypeCode"`
	ProdCode       string `gorm:"column:ProdCode"`
	ProdType2Code  string `gorm:"column:ProdType2Code"`
	YearCode       string `gorm:"column:YearCode"`
	ProdColorCode  string `gorm:"column:ProdColorCode"`
	StdDivProdCode string `gorm:"column:StdDivProdCode"`
	ProductName    string `gorm:"column:ProductName"`
	Status         string `gorm:"column:Status"`
}

// TableName 指定表名
func (LegacyProductDetail) TableName() string {
	return "tbl_Product_DTL"
}
