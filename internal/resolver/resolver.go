// Package resolver 提供编码词表的进程内读缓存。
// 词表写入时会递增元数据表中的版本号，解析器在请求边界按版本号惰性刷新，
// 同一次请求内读到的是一致的快照。
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"
)

// ErrUnknownGroup 编码组名不在固定的八个组之内（属编程错误）
var ErrUnknownGroup = errors.New("resolver: unknown code group")

// Resolver 词表解析器
type Resolver struct {
	codeRepo repository.CodeRepository
	metaRepo repository.MetaRepository

	mu       sync.RWMutex
	snapshot *snapshot
}

// snapshot 词表的一次性全量快照
type snapshot struct {
	version  uint64
	groupSeq map[string]uint                   // 组名 -> 组主键
	members  map[string]map[string]models.Code // 组名 -> 短编码 -> 成员
	ordered  map[string][]models.Code          // 组名 -> 排序后的成员副本
	names    map[uint]string                   // 主键 -> 显示名
	byID     map[uint]models.Code              // 主键 -> 编码行
}

// New 创建词表解析器
func New(codeRepo repository.CodeRepository, metaRepo repository.MetaRepository) *Resolver {
	return &Resolver{codeRepo: codeRepo, metaRepo: metaRepo}
}

// ensure 按版本号校验快照，过期或缺失时重新加载
func (r *Resolver) ensure() (*snapshot, error) {
	version, err := r.metaRepo.VocabularyVersion()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	current := r.snapshot
	r.mu.RUnlock()
	if current != nil && current.version == version {
		return current, nil
	}

	codes, err := r.codeRepo.ListAll()
	if err != nil {
		return nil, err
	}

	next := &snapshot{
		version:  version,
		groupSeq: make(map[string]uint),
		members:  make(map[string]map[string]models.Code),
		ordered:  make(map[string][]models.Code),
		names:    make(map[uint]string, len(codes)),
		byID:     make(map[uint]models.Code, len(codes)),
	}
	groupNameByID := make(map[uint]string)
	for _, code := range codes {
		next.names[code.ID] = code.Name
		next.byID[code.ID] = code
		if code.Depth == 0 {
			next.groupSeq[code.ShortCode] = code.ID
			groupNameByID[code.ID] = code.ShortCode
			if next.members[code.ShortCode] == nil {
				next.members[code.ShortCode] = make(map[string]models.Code)
			}
		}
	}
	// ListAll 按 depth 升序返回，成员一定在其组之后
	for _, code := range codes {
		if code.Depth == 0 || code.ParentID == nil {
			continue
		}
		groupName, ok := groupNameByID[*code.ParentID]
		if !ok {
			continue
		}
		next.members[groupName][code.ShortCode] = code
		next.ordered[groupName] = append(next.ordered[groupName], code)
	}
	for groupName := range next.ordered {
		members := next.ordered[groupName]
		sort.Slice(members, func(i, j int) bool {
			if members[i].SortOrder != members[j].SortOrder {
				return members[i].SortOrder < members[j].SortOrder
			}
			return members[i].ShortCode < members[j].ShortCode
		})
	}

	r.mu.Lock()
	r.snapshot = next
	r.mu.Unlock()
	return next, nil
}

// GroupSeq 返回编码组的主键
func (r *Resolver) GroupSeq(groupName string) (uint, error) {
	snap, err := r.ensure()
	if err != nil {
		return 0, err
	}
	seq, ok := snap.groupSeq[groupName]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownGroup, groupName)
	}
	return seq, nil
}

// Member 按（组名，短编码）查找成员，未知短编码返回 nil 由调用方裁决
func (r *Resolver) Member(groupName, shortCode string) (*models.Code, error) {
	snap, err := r.ensure()
	if err != nil {
		return nil, err
	}
	members, ok := snap.members[groupName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, groupName)
	}
	member, ok := members[shortCode]
	if !ok {
		return nil, nil
	}
	return &member, nil
}

// MembersOf 返回某编码组按（sort_order, short_code）排序的成员副本
func (r *Resolver) MembersOf(groupName string) ([]models.Code, error) {
	snap, err := r.ensure()
	if err != nil {
		return nil, err
	}
	if _, ok := snap.groupSeq[groupName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, groupName)
	}
	ordered := snap.ordered[groupName]
	out := make([]models.Code, len(ordered))
	copy(out, ordered)
	return out, nil
}

// IsMemberOf 判断主键是否为某编码组的成员
func (r *Resolver) IsMemberOf(groupName string, seq uint) (bool, error) {
	snap, err := r.ensure()
	if err != nil {
		return false, err
	}
	groupID, ok := snap.groupSeq[groupName]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownGroup, groupName)
	}
	code, ok := snap.byID[seq]
	if !ok || code.ParentID == nil {
		return false, nil
	}
	return *code.ParentID == groupID, nil
}

// NameOf 按主键返回显示名，不存在时返回 false
func (r *Resolver) NameOf(seq uint) (string, bool, error) {
	snap, err := r.ensure()
	if err != nil {
		return "", false, err
	}
	name, ok := snap.names[seq]
	return name, ok, nil
}
