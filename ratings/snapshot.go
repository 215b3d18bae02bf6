// Package ratings 提供推荐引擎消费的只读评分快照。
//
// 快照由 Builder 一次性构建（单协程），之后不可变，可被任意多个推荐请求并发读取。
// 快照的生命周期由调用方持有：不再使用时调用 Close，已关闭的快照拒绝新的推荐请求。
package ratings

import (
	"sort"
	"sync/atomic"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/idmap"
)

// Snapshot 是不可变的稀疏评分矩阵，同时持有用户/物品 ID 映射。
type Snapshot struct {
	users *idmap.BiMap
	items *idmap.BiMap

	byUser map[int]core.RatingVector
	byItem map[int]map[int]float64 // itemIndex -> userIndex -> score

	userList []int // 升序，确定性遍历用
	itemList []int
	count    int

	closed atomic.Bool
}

func newSnapshot(users, items *idmap.BiMap, byUser map[int]core.RatingVector) *Snapshot {
	s := &Snapshot{
		users:  users,
		items:  items,
		byUser: byUser,
		byItem: make(map[int]map[int]float64),
	}
	for u, vec := range byUser {
		s.userList = append(s.userList, u)
		for i, score := range vec {
			if s.byItem[i] == nil {
				s.byItem[i] = make(map[int]float64)
			}
			s.byItem[i][u] = score
			s.count++
		}
	}
	for i := range s.byItem {
		s.itemList = append(s.itemList, i)
	}
	sort.Ints(s.userList)
	sort.Ints(s.itemList)
	return s
}

// UserVector 返回用户的评分向量。返回值只读，调用方不得修改。
func (s *Snapshot) UserVector(user int) (core.RatingVector, bool) {
	vec, ok := s.byUser[user]
	return vec, ok
}

// ItemVector 返回物品的评分向量（userIndex -> score）。返回值只读。
func (s *Snapshot) ItemVector(item int) (map[int]float64, bool) {
	vec, ok := s.byItem[item]
	return vec, ok
}

// Users 返回所有有评分的用户索引（升序）。返回值只读。
func (s *Snapshot) Users() []int { return s.userList }

// Items 返回所有被评分的物品索引（升序）。返回值只读。
func (s *Snapshot) Items() []int { return s.itemList }

// UserIndex 将外部用户 ID 解析为索引。
func (s *Snapshot) UserIndex(userID string) (int, bool) { return s.users.Index(userID) }

// UserID 将用户索引还原为外部 ID。
func (s *Snapshot) UserID(user int) (string, bool) { return s.users.Key(user) }

// ItemIndex 将外部物品 ID 解析为索引。
func (s *Snapshot) ItemIndex(itemID string) (int, bool) { return s.items.Index(itemID) }

// ItemID 将物品索引还原为外部 ID。
func (s *Snapshot) ItemID(item int) (string, bool) { return s.items.Key(item) }

// Stats 是快照的规模统计。
type Stats struct {
	Ratings int `json:"ratings"`
	Users   int `json:"users"`
	Items   int `json:"items"`
}

// Stats 返回评分条数（重复观测已按最后一次合并）、用户数、物品数。
func (s *Snapshot) Stats() Stats {
	return Stats{
		Ratings: s.count,
		Users:   s.users.Len(),
		Items:   s.items.Len(),
	}
}

// Close 结束快照的使用期。幂等。
// 需在所有进行中的请求结束后调用；之后 service 对该快照的请求返回 core.ErrSnapshotClosed。
func (s *Snapshot) Close() error {
	s.closed.Store(true)
	return nil
}

// Closed 判断快照是否已关闭。
func (s *Snapshot) Closed() bool { return s.closed.Load() }
