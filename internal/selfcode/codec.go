// Package selfcode 实现 16 位自定编码（자가코드）的组装与解析。
// 编码由八个定宽短编码段顺序拼接而成，是对外稳定的商品标识，
// 任何其他包都不得自行拼接或截取该字符串。
package selfcode

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/catalog-next/internal/constants"
)

// Length 自定编码固定长度
const Length = 16

// FieldSpec 单个编码段的定义
type FieldSpec struct {
	Group  string // 所属编码组名
	Width  int    // 固定宽度
	Offset int    // 在整串中的起始偏移
}

// Fields 八个编码段，按在整串中的顺序排列
// 宽度：2+1+2+2+2+2+2+3 = 16
var Fields = [8]FieldSpec{
	{Group: constants.GroupBrand, Width: 2, Offset: 0},
	{Group: constants.GroupDivisionType, Width: 1, Offset: 2},
	{Group: constants.GroupProductGroup, Width: 2, Offset: 3},
	{Group: constants.GroupProductType, Width: 2, Offset: 5},
	{Group: constants.GroupProductCode, Width: 2, Offset: 7},
	{Group: constants.GroupType2, Width: 2, Offset: 9},
	{Group: constants.GroupYear, Width: 2, Offset: 11},
	{Group: constants.GroupColor, Width: 3, Offset: 13},
}

// Tokens 八个编码段的短编码取值
type Tokens struct {
	Brand     string `json:"brand"`      // 品牌（宽2）
	DivType   string `json:"div_type"`   // 区分类型（宽1）
	ProdGroup string `json:"prod_group"` // 品类（宽2）
	ProdType  string `json:"prod_type"`  // 类型（宽2）
	ProdCode  string `json:"prod_code"`  // 流水编码（宽2）
	ProdType2 string `json:"prod_type2"` // 二级类型（宽2）
	Year      string `json:"year"`       // 年度（宽2）
	Color     string `json:"color"`      // 颜色（宽3）
}

// Slice 按编码段顺序返回八个取值
func (t Tokens) Slice() [8]string {
	return [8]string{t.Brand, t.DivType, t.ProdGroup, t.ProdType, t.ProdCode, t.ProdType2, t.Year, t.Color}
}

// WidthMismatchError 编码段宽度不符
type WidthMismatchError struct {
	Field    string
	Expected int
	Actual   int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("selfcode: field %s width mismatch: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

// LengthMismatchError 整串长度不符
type LengthMismatchError struct {
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("selfcode: length mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// UnknownTokenError 短编码在词表中不存在
type UnknownTokenError struct {
	Field string
	Token string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("selfcode: unknown token %q in field %s", e.Token, e.Field)
}

// ErrProductCodeExhausted 流水编码 01-99 已用尽
var ErrProductCodeExhausted = errors.New("selfcode: product code exhausted (01-99)")

// Compose 按固定宽度拼接八个短编码段为 16 位自定编码
// 任一段宽度不符即返回 WidthMismatchError，不做大小写折叠
func Compose(t Tokens) (string, error) {
	values := t.Slice()
	buf := make([]byte, 0, Length)
	for i, spec := range Fields {
		if len(values[i]) != spec.Width {
			return "", &WidthMismatchError{Field: spec.Group, Expected: spec.Width, Actual: len(values[i])}
		}
		buf = append(buf, values[i]...)
	}
	return string(buf), nil
}

// Decompose 按固定偏移切分 16 位自定编码为八个短编码段
// 只校验整串长度，不查词表（批量导入时常需解析本地词表尚无的编码）
func Decompose(selfCode string) (Tokens, error) {
	if len(selfCode) != Length {
		return Tokens{}, &LengthMismatchError{Expected: Length, Actual: len(selfCode)}
	}
	var values [8]string
	for i, spec := range Fields {
		values[i] = selfCode[spec.Offset : spec.Offset+spec.Width]
	}
	return Tokens{
		Brand:     values[0],
		DivType:   values[1],
		ProdGroup: values[2],
		ProdType:  values[3],
		ProdCode:  values[4],
		ProdType2: values[5],
		Year:      values[6],
		Color:     values[7],
	}, nil
}

// NextProductCode 在既有流水编码集合上推进一位
// 非数字取值（含未分配占位 "XX"）按 0 参与取最大值；无可用取值时返回 "01"
func NextProductCode(existing []string) (string, error) {
	max := 0
	for _, token := range existing {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	if max >= 99 {
		return "", ErrProductCodeExhausted
	}
	return fmt.Sprintf("%02d", max+1), nil
}

// ValidateShortCode 校验某编码组的短编码宽度与字符集
func ValidateShortCode(group, shortCode string) error {
	spec, ok := specByGroup(group)
	if !ok {
		return fmt.Errorf("selfcode: unknown code group: %s", group)
	}
	if len(shortCode) != spec.Width {
		return &WidthMismatchError{Field: group, Expected: spec.Width, Actual: len(shortCode)}
	}
	switch group {
	case constants.GroupDivisionType, constants.GroupYear:
		if !isDigits(shortCode) {
			return fmt.Errorf("selfcode: field %s requires digits, got %q", group, shortCode)
		}
	case constants.GroupProductCode:
		if shortCode != constants.ProductCodeUnassigned && !isDigits(shortCode) {
			return fmt.Errorf("selfcode: field %s requires digits or %q, got %q", group, constants.ProductCodeUnassigned, shortCode)
		}
	default:
		if !isUpperAlnum(shortCode) {
			return fmt.Errorf("selfcode: field %s requires uppercase alphanumerics, got %q", group, shortCode)
		}
	}
	return nil
}

func specByGroup(group string) (FieldSpec, bool) {
	for _, spec := range Fields {
		if spec.Group == group {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isUpperAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return len(s) > 0
}
