package config

import (
	"fmt"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/store"
)

// OpenStore 按配置打开快照存储后端；backend 为 none 时返回 (nil, nil)。
func OpenStore(sc StoreConfig) (core.Store, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	switch sc.Backend {
	case BackendMemory:
		return store.NewMemoryStore(), nil
	case BackendRedis:
		s, err := store.NewRedisStore(sc.RedisAddr, sc.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("open redis store %s: %w", sc.RedisAddr, err)
		}
		return s, nil
	case BackendBadger:
		s, err := store.NewBadgerStore(sc.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("open badger store %q: %w", sc.BadgerPath, err)
		}
		return s, nil
	default:
		return nil, nil
	}
}
