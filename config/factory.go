package config

import (
	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/filter"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/conv"
	"github.com/rushteam/cfkit/recall"
	"github.com/rushteam/cfkit/rerank"
)

// NewFactory 返回绑定到评分快照的 Node 工厂，供 pipeline.Config.BuildPipeline 使用。
//
// 支持的 Node：
//   - recall.usercf：threshold, metric, workers, cache, top_k
//   - filter：blacklist, expr
//   - rerank.topn：n
func NewFactory(catalog recall.Catalog) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.usercf", func(config map[string]any) (pipeline.Node, error) {
		return buildUserCFNode(catalog, config)
	})
	factory.Register("filter", buildFilterNode)
	factory.Register("rerank.topn", buildTopNNode)

	return factory
}

func buildUserCFNode(catalog recall.Catalog, config map[string]any) (pipeline.Node, error) {
	cf, err := recall.NewUserBasedCF(catalog, recall.UserCFConfig{
		Threshold: conv.ConfigGetFloat64(config, "threshold", DefaultSimilarityThreshold),
		Metric:    conv.ConfigGet(config, "metric", recall.MetricPearson),
		Workers:   conv.ConfigGetInt(config, "workers", 0),
		Cache:     conv.ConfigGet(config, "cache", false),
		TopK:      conv.ConfigGetInt(config, "top_k", 0),
	})
	if err != nil {
		return nil, err
	}
	return cf, nil
}

func buildFilterNode(config map[string]any) (pipeline.Node, error) {
	node, err := newFilterNode(
		conv.SliceAnyToString(config["blacklist"]),
		conv.ConfigGet(config, "expr", ""),
	)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func newFilterNode(blacklist []string, expr string) (*filter.FilterNode, error) {
	node := &filter.FilterNode{}
	if len(blacklist) > 0 {
		node.Filters = append(node.Filters, filter.NewBlacklistFilter(blacklist))
	}
	if expr != "" {
		f, err := filter.NewExprFilter(expr)
		if err != nil {
			return nil, err
		}
		node.Filters = append(node.Filters, f)
	}
	return node, nil
}

func buildTopNNode(config map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(config, "n", DefaultTopN)
	if n <= 0 {
		return nil, core.NewInvalidConfigError("rerank.topn: n must be > 0")
	}
	return &rerank.TopNNode{N: n}, nil
}

// DefaultPipeline 按 RecommendConfig 组装 recall.usercf → [filter] → rerank.topn。
// 有过滤条件时召回不截断，保证过滤后仍能凑够 TopN。
func DefaultPipeline(catalog recall.Catalog, rc RecommendConfig) (*pipeline.Pipeline, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	hasFilter := len(rc.Blacklist) > 0 || rc.Filter != ""
	topK := rc.TopN
	if hasFilter {
		topK = 0
	}
	cf, err := recall.NewUserBasedCF(catalog, recall.UserCFConfig{
		Threshold: rc.SimilarityThreshold,
		Metric:    rc.Metric,
		Workers:   rc.Workers,
		Cache:     rc.CacheSimilarity,
		TopK:      topK,
	})
	if err != nil {
		return nil, err
	}

	nodes := []pipeline.Node{cf}
	if hasFilter {
		fn, err := newFilterNode(rc.Blacklist, rc.Filter)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, fn)
	}
	nodes = append(nodes, &rerank.TopNNode{N: rc.TopN})
	return &pipeline.Pipeline{Nodes: nodes}, nil
}
