// Package idmap 维护外部字符串 ID 与稠密整数索引之间的双向映射。
package idmap

import "github.com/rushteam/cfkit/core"

// BiMap 是只增不删的双向映射：外部 ID <-> 索引。
// 索引按首次出现顺序从 core.IndexBase 开始连续分配，两个方向总是一起更新。
//
// 构建阶段（Assign）需单协程调用；构建完成后只读，可并发读取。
type BiMap struct {
	index map[string]int
	keys  []string // keys[i] 对应索引 i + core.IndexBase
}

func New() *BiMap {
	return &BiMap{index: make(map[string]int)}
}

// Assign 返回 key 的索引；未出现过时分配下一个索引。
func (m *BiMap) Assign(key string) int {
	if idx, ok := m.index[key]; ok {
		return idx
	}
	idx := len(m.keys) + core.IndexBase
	m.index[key] = idx
	m.keys = append(m.keys, key)
	return idx
}

// Index 查找外部 ID 对应的索引。
func (m *BiMap) Index(key string) (int, bool) {
	idx, ok := m.index[key]
	return idx, ok
}

// Key 反查索引对应的外部 ID。
func (m *BiMap) Key(idx int) (string, bool) {
	pos := idx - core.IndexBase
	if pos < 0 || pos >= len(m.keys) {
		return "", false
	}
	return m.keys[pos], true
}

// Len 返回已分配的 ID 数量。
func (m *BiMap) Len() int {
	return len(m.keys)
}

// Keys 按索引顺序返回所有外部 ID 的副本。
func (m *BiMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// FromKeys 按给定顺序重建映射，用于从持久化数据恢复。重复 key 视为数据损坏。
func FromKeys(keys []string) (*BiMap, bool) {
	m := &BiMap{
		index: make(map[string]int, len(keys)),
		keys:  make([]string, 0, len(keys)),
	}
	for _, k := range keys {
		if _, dup := m.index[k]; dup {
			return nil, false
		}
		m.Assign(k)
	}
	return m, true
}
