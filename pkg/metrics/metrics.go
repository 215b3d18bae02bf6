// Package metrics 定义推荐引擎的 Prometheus 指标。
//
// 指标注册在默认 Registry 上，由调用方通过 promhttp 暴露：
//   - cfkit_recommend_requests_total{outcome}: 推荐请求数（ok / empty / unknown_user / error）
//   - cfkit_recommend_duration_seconds: 推荐请求耗时
//   - cfkit_neighborhood_size: 每次请求的邻域大小
//   - cfkit_similarity_cache_hits_total / cfkit_similarity_cache_misses_total: 相似度缓存命中
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 请求结果标签值
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeUnknownUser = "unknown_user"
	OutcomeError       = "error"
)

var (
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfkit_recommend_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfkit_recommend_duration_seconds",
			Help:    "Recommendation request latency",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	NeighborhoodSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfkit_neighborhood_size",
			Help:    "Number of neighbors selected per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	SimilarityCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfkit_similarity_cache_hits_total",
			Help: "Similarity lookups served from cache",
		},
	)

	SimilarityCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfkit_similarity_cache_misses_total",
			Help: "Similarity lookups that required computation",
		},
	)
)
