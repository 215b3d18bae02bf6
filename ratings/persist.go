package ratings

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/idmap"
)

// 快照在 core.Store 中的布局（与 key 前缀组合）：
//
//	{prefix}:users           所有用户 ID，按索引顺序
//	{prefix}:items           所有物品 ID，按索引顺序
//	{prefix}:user:{userID}   用户评分 map[itemID]score
//
// 用户/物品列表按索引顺序保存，Load 之后索引与 Save 之前一致。
const DefaultKeyPrefix = "cf"

func usersKey(prefix string) string { return prefix + ":users" }
func itemsKey(prefix string) string { return prefix + ":items" }
func userKey(prefix, userID string) string { return prefix + ":user:" + userID }

// Save 将快照写入 Store。
func Save(ctx context.Context, s core.Store, prefix string, snap *Snapshot) error {
	if snap.Closed() {
		return core.ErrSnapshotClosed
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	kvs := make(map[string][]byte, len(snap.userList)+2)

	users, err := json.Marshal(snap.users.Keys())
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	kvs[usersKey(prefix)] = users

	items, err := json.Marshal(snap.items.Keys())
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	kvs[itemsKey(prefix)] = items

	for _, u := range snap.userList {
		userID, _ := snap.UserID(u)
		vec := snap.byUser[u]
		row := make(map[string]float64, len(vec))
		for i, score := range vec {
			itemID, _ := snap.ItemID(i)
			row[itemID] = score
		}
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode user %q: %w", userID, err)
		}
		kvs[userKey(prefix, userID)] = data
	}

	if err := s.BatchSet(ctx, kvs); err != nil {
		return fmt.Errorf("save snapshot to %s: %w", s.Name(), err)
	}
	return nil
}

// Load 从 Store 读取快照。前缀下没有数据时返回 core.ErrStoreNotFound。
func Load(ctx context.Context, s core.Store, prefix string) (*Snapshot, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	var userIDs, itemIDs []string
	if err := getJSON(ctx, s, usersKey(prefix), &userIDs); err != nil {
		return nil, err
	}
	if err := getJSON(ctx, s, itemsKey(prefix), &itemIDs); err != nil {
		return nil, err
	}

	users, okU := idmap.FromKeys(userIDs)
	items, okI := idmap.FromKeys(itemIDs)
	if !okU || !okI {
		return nil, fmt.Errorf("%w: duplicate ids under prefix %q", core.ErrInvalidRating, prefix)
	}
	b := &Builder{users: users, items: items, byUser: make(map[int]core.RatingVector)}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = userKey(prefix, id)
	}
	rows, err := s.BatchGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load snapshot from %s: %w", s.Name(), err)
	}

	for _, userID := range userIDs {
		data, ok := rows[userKey(prefix, userID)]
		if !ok {
			continue
		}
		var row map[string]float64
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("decode user %q: %w", userID, err)
		}
		for itemID, score := range row {
			if _, known := b.items.Index(itemID); !known {
				return nil, fmt.Errorf("%w: user %q rated unlisted item %q", core.ErrInvalidRating, userID, itemID)
			}
			if err := b.Add(userID, itemID, score); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

func getJSON(ctx context.Context, s core.Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return err
		}
		return fmt.Errorf("get %s from %s: %w", key, s.Name(), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
