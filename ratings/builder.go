package ratings

import (
	"fmt"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/idmap"
)

// Builder 收集评分观测并构建 Snapshot。非并发安全，构建阶段在单协程内完成。
//
// 同一 (user, item) 多次出现时以最后一次为准（覆盖，不累加）。
type Builder struct {
	users  *idmap.BiMap
	items  *idmap.BiMap
	byUser map[int]core.RatingVector
}

func NewBuilder() *Builder {
	return &Builder{
		users:  idmap.New(),
		items:  idmap.New(),
		byUser: make(map[int]core.RatingVector),
	}
}

// Add 记录一条外部 ID 形式的评分观测，必要时为用户/物品分配索引。
func (b *Builder) Add(userID, itemID string, score float64) error {
	r := core.Rating{Score: score}
	if !r.Valid() {
		return fmt.Errorf("%w: user %q item %q score %v", core.ErrInvalidRating, userID, itemID, score)
	}
	r.User = b.users.Assign(userID)
	r.Item = b.items.Assign(itemID)
	b.put(r)
	return nil
}

// AddRating 记录一条已索引的评分三元组。索引必须已由 Add/AddUser/AddItem 分配过。
func (b *Builder) AddRating(r core.Rating) error {
	if !r.Valid() {
		return fmt.Errorf("%w: user %d item %d score %v", core.ErrInvalidRating, r.User, r.Item, r.Score)
	}
	if _, ok := b.users.Key(r.User); !ok {
		return fmt.Errorf("%w: user index %d not assigned", core.ErrInvalidRating, r.User)
	}
	if _, ok := b.items.Key(r.Item); !ok {
		return fmt.Errorf("%w: item index %d not assigned", core.ErrInvalidRating, r.Item)
	}
	b.put(r)
	return nil
}

// AddUser 为外部用户 ID 分配索引（不产生评分）。
func (b *Builder) AddUser(userID string) int { return b.users.Assign(userID) }

// AddItem 为外部物品 ID 分配索引（不产生评分）。
func (b *Builder) AddItem(itemID string) int { return b.items.Assign(itemID) }

func (b *Builder) put(r core.Rating) {
	vec := b.byUser[r.User]
	if vec == nil {
		vec = make(core.RatingVector)
		b.byUser[r.User] = vec
	}
	vec[r.Item] = r.Score
}

// Build 生成不可变快照。Build 之后 Builder 不应再使用。
func (b *Builder) Build() *Snapshot {
	s := newSnapshot(b.users, b.items, b.byUser)
	b.users, b.items, b.byUser = idmap.New(), idmap.New(), make(map[int]core.RatingVector)
	return s
}
