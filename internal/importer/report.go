package importer

import (
	"fmt"
	"sort"
	"strings"
)

// SkippedRow 跳过行的明细，按旧系统主键定位
type SkippedRow struct {
	LegacySeq int64  `json:"legacy_seq"`
	Table     string `json:"table"`
	Reason    string `json:"reason"`
	Detail    string `json:"detail,omitempty"`
}

// Report 一次导入的执行报表
type Report struct {
	MastersInserted  int            `json:"masters_inserted"`
	MastersUpdated   int            `json:"masters_updated"`
	VariantsInserted int            `json:"variants_inserted"`
	VariantsUpdated  int            `json:"variants_updated"`
	SkippedByReason  map[string]int `json:"skipped_by_reason"`
	Skipped          []SkippedRow   `json:"skipped"`
}

// NewReport 创建空报表
func NewReport() *Report {
	return &Report{SkippedByReason: make(map[string]int)}
}

// Skip 记录一条被跳过的行
func (r *Report) Skip(table string, legacySeq int64, reason, detail string) {
	r.SkippedByReason[reason]++
	r.Skipped = append(r.Skipped, SkippedRow{
		LegacySeq: legacySeq,
		Table:     table,
		Reason:    reason,
		Detail:    detail,
	})
}

// SkippedTotal 跳过行总数
func (r *Report) SkippedTotal() int {
	return len(r.Skipped)
}

// HasSkips 是否存在被跳过的行
func (r *Report) HasSkips() bool {
	return len(r.Skipped) > 0
}

// Summary 按原因汇总的单行摘要
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "masters inserted=%d updated=%d, variants inserted=%d updated=%d, skipped=%d",
		r.MastersInserted, r.MastersUpdated, r.VariantsInserted, r.VariantsUpdated, r.SkippedTotal())
	if len(r.SkippedByReason) > 0 {
		reasons := make([]string, 0, len(r.SkippedByReason))
		for reason := range r.SkippedByReason {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		parts := make([]string, 0, len(reasons))
		for _, reason := range reasons {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, r.SkippedByReason[reason]))
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, ", "))
	}
	return sb.String()
}
