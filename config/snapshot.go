package config

import (
	"context"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/ratings"
)

// SaveSnapshot 以 store.key_prefix 为前缀把快照写入 st。
func SaveSnapshot(ctx context.Context, st core.Store, sc StoreConfig, snap *ratings.Snapshot) error {
	return ratings.Save(ctx, st, sc.KeyPrefix, snap)
}

// LoadSnapshot 从 st 读取 store.key_prefix 前缀下的快照。
func LoadSnapshot(ctx context.Context, st core.Store, sc StoreConfig) (*ratings.Snapshot, error) {
	return ratings.Load(ctx, st, sc.KeyPrefix)
}
