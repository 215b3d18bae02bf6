package recall

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/metrics"
	"github.com/rushteam/cfkit/pkg/utils"
)

// Catalog 是 RatingSource 加上物品 ID 反查，ratings.Snapshot 实现此接口。
type Catalog interface {
	RatingSource
	ItemID(item int) (string, bool)
}

// UserCFConfig 是 UserBasedCF 的参数。
type UserCFConfig struct {
	// Threshold 邻域相似度阈值，取值 (0, 1)
	Threshold float64

	// Metric 相似度度量：pearson（默认）/ cosine
	Metric string

	// Workers 计算邻域的并发数，<= 0 时取 GOMAXPROCS
	Workers int

	// Cache 是否在请求间缓存用户对相似度
	Cache bool

	// TopK 召回返回的最大物品数，<= 0 表示返回全部候选（由后续 rerank.topn 截断）
	TopK int
}

// UserBasedCF 是基于用户的协同过滤召回节点（User-based Collaborative Filtering, u2i）。
//
// 算法流程：
//  1. 用户 → 评分向量
//  2. 计算目标用户与其他用户的相似度（Pearson / Cosine，只看共同评分物品）
//  3. 相似度严格大于阈值的用户构成邻域（不限数量）
//  4. 对邻域评过、目标用户未评过的物品做相似度加权平均，按预测分排序
//
// 节点只读评分快照，可被并发请求共享。
type UserBasedCF struct {
	Catalog      Catalog
	Neighborhood *ThresholdNeighborhood
	Scorer       *Scorer
	Metric       string
	TopK         int

	cache *CachedSimilarity
}

// NewUserBasedCF 校验参数并组装邻域与打分器。
func NewUserBasedCF(catalog Catalog, cfg UserCFConfig) (*UserBasedCF, error) {
	if catalog == nil {
		return nil, core.NewInvalidConfigError("usercf: nil rating catalog")
	}
	if !(cfg.Threshold > 0 && cfg.Threshold < 1) {
		return nil, core.NewInvalidConfigError(fmt.Sprintf("usercf: threshold %v outside (0, 1)", cfg.Threshold))
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricPearson
	}
	sim, err := NewSimilarity(cfg.Metric, catalog)
	if err != nil {
		return nil, err
	}

	r := &UserBasedCF{
		Catalog: catalog,
		Scorer:  &Scorer{Ratings: catalog},
		Metric:  cfg.Metric,
		TopK:    cfg.TopK,
	}
	if cfg.Cache {
		r.cache = NewCachedSimilarity(sim)
		sim = r.cache
	}
	r.Neighborhood = &ThresholdNeighborhood{
		Ratings:    catalog,
		Similarity: sim,
		Threshold:  cfg.Threshold,
		Workers:    cfg.Workers,
	}
	return r, nil
}

func (r *UserBasedCF) Name() string        { return "recall.usercf" }
func (r *UserBasedCF) Kind() pipeline.Kind { return pipeline.KindRecall }

// Invalidate 清空相似度缓存（未开启缓存时无操作）。
func (r *UserBasedCF) Invalidate() {
	if r.cache != nil {
		r.cache.Invalidate()
	}
}

// Process 实现 pipeline.Node：忽略输入 items，产出召回结果。
func (r *UserBasedCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 为 rctx.UserIndex 生成候选物品。邻域为空时返回空切片，不是错误。
func (r *UserBasedCF) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil {
		return nil, fmt.Errorf("recall.usercf: nil recommend context")
	}

	neighbors, err := r.Neighborhood.Neighborhood(ctx, rctx.UserIndex)
	if err != nil {
		return nil, err
	}
	metrics.NeighborhoodSize.Observe(float64(len(neighbors)))
	rctx.SetLabel("cf_neighbors", utils.Label{Value: strconv.Itoa(len(neighbors)), Source: "recall"})

	recs := r.Scorer.Score(rctx.UserIndex, neighbors, r.TopK)
	out := make([]*core.Item, 0, len(recs))
	for _, rec := range recs {
		id, ok := r.Catalog.ItemID(rec.Item)
		if !ok {
			return nil, fmt.Errorf("recall.usercf: item index %d has no external id", rec.Item)
		}
		it := core.NewItem(id, rec.Item)
		it.Score = rec.Score
		it.PutLabel("recall_source", utils.Label{Value: "u2i", Source: "recall"})
		it.PutLabel("cf_metric", utils.Label{Value: r.Metric, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ pipeline.Node = (*UserBasedCF)(nil)
