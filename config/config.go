// Package config 负责引擎配置加载（koanf：默认值 → YAML 文件 → CFKIT_* 环境变量）
// 以及按 Pipeline YAML 构建 Node。
package config

import (
	"fmt"
	"slices"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/recall"
)

const (
	DefaultSimilarityThreshold = 0.1
	DefaultTopN                = 3
)

// 存储后端
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config 是引擎配置。
type Config struct {
	Recommend RecommendConfig `koanf:"recommend"`
	Store     StoreConfig     `koanf:"store"`
	Log       LogConfig       `koanf:"log"`
}

// RecommendConfig 是推荐参数。
type RecommendConfig struct {
	// SimilarityThreshold 邻域阈值，取值 (0, 1)，相似度严格大于它的用户才进入邻域
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	// TopN 最多返回的物品数，> 0
	TopN int `koanf:"top_n"`
	// Metric pearson / cosine
	Metric string `koanf:"metric"`
	// Workers 邻域计算并发数，0 表示 GOMAXPROCS
	Workers int `koanf:"workers"`
	// CacheSimilarity 是否在请求间缓存用户对相似度
	CacheSimilarity bool `koanf:"cache_similarity"`
	// Filter 保留条件（CEL），为空不过滤
	Filter string `koanf:"filter"`
	// Blacklist 永不推荐的物品 ID
	Blacklist []string `koanf:"blacklist"`
}

// StoreConfig 是快照持久化后端配置。
type StoreConfig struct {
	Backend    string `koanf:"backend"`
	KeyPrefix  string `koanf:"key_prefix"`
	RedisAddr  string `koanf:"redis_addr"`
	RedisDB    int    `koanf:"redis_db"`
	BadgerPath string `koanf:"badger_path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Recommend: RecommendConfig{
			SimilarityThreshold: DefaultSimilarityThreshold,
			TopN:                DefaultTopN,
			Metric:              recall.MetricPearson,
			CacheSimilarity:     true,
		},
		Store: StoreConfig{
			Backend:   BackendNone,
			KeyPrefix: "cf",
			RedisAddr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate 校验配置，失败返回 core.ErrInvalidConfig 类错误。
func (c *Config) Validate() error {
	if err := c.Recommend.Validate(); err != nil {
		return err
	}
	return c.Store.Validate()
}

func (r *RecommendConfig) Validate() error {
	// NaN 也不满足
	if !(r.SimilarityThreshold > 0 && r.SimilarityThreshold < 1) {
		return core.NewInvalidConfigError(fmt.Sprintf("similarity_threshold %v outside (0, 1)", r.SimilarityThreshold))
	}
	if r.TopN <= 0 {
		return core.NewInvalidConfigError(fmt.Sprintf("top_n %d must be > 0", r.TopN))
	}
	if r.Metric != recall.MetricPearson && r.Metric != recall.MetricCosine {
		return core.NewInvalidConfigError(fmt.Sprintf("unknown metric %q", r.Metric))
	}
	if r.Workers < 0 {
		return core.NewInvalidConfigError(fmt.Sprintf("workers %d must be >= 0", r.Workers))
	}
	return nil
}

func (s *StoreConfig) Validate() error {
	backends := []string{BackendNone, BackendMemory, BackendRedis, BackendBadger}
	if !slices.Contains(backends, s.Backend) {
		return core.NewInvalidConfigError(fmt.Sprintf("unknown store backend %q (supported: %v)", s.Backend, backends))
	}
	if s.Backend != BackendNone && s.KeyPrefix == "" {
		return core.NewInvalidConfigError("store key_prefix is empty")
	}
	if s.Backend == BackendRedis && s.RedisAddr == "" {
		return core.NewInvalidConfigError("store redis_addr is empty")
	}
	return nil
}
