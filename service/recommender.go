// Package service 对外提供推荐入口：解析外部用户 ID，运行 Pipeline，把结果映射回外部物品 ID。
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/config"
	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/logging"
	"github.com/rushteam/cfkit/pkg/metrics"
	"github.com/rushteam/cfkit/ratings"
)

// Recommender 绑定一份只读评分快照和一条 Pipeline，可被并发调用。
type Recommender struct {
	snap     *ratings.Snapshot
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithLogger 指定日志；默认使用 logging.L()。
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) {
		r.logger = l
	}
}

// New 按 RecommendConfig 组装默认 Pipeline（recall.usercf → [filter] → rerank.topn）。
// 配置非法时返回 InvalidConfig 错误。
func New(snap *ratings.Snapshot, rc config.RecommendConfig, opts ...Option) (*Recommender, error) {
	if snap == nil {
		return nil, core.NewInvalidConfigError("nil rating snapshot")
	}
	p, err := config.DefaultPipeline(snap, rc)
	if err != nil {
		return nil, err
	}
	return NewWithPipeline(snap, p, opts...)
}

// NewFromConfig 使用 cfg.Recommend 组装默认 Pipeline，日志按 cfg.Log 创建。
// opts 中的 WithLogger 优先。
func NewFromConfig(snap *ratings.Snapshot, cfg *config.Config, opts ...Option) (*Recommender, error) {
	if cfg == nil {
		return nil, core.NewInvalidConfigError("nil config")
	}
	opts = append([]Option{WithLogger(logging.New(cfg.Log.Logging()))}, opts...)
	return New(snap, cfg.Recommend, opts...)
}

// NewWithPipeline 使用自定义 Pipeline（例如 pipeline.Config + config.NewFactory 构建的）。
func NewWithPipeline(snap *ratings.Snapshot, p *pipeline.Pipeline, opts ...Option) (*Recommender, error) {
	if snap == nil {
		return nil, core.NewInvalidConfigError("nil rating snapshot")
	}
	if p == nil || len(p.Nodes) == 0 {
		return nil, core.NewInvalidConfigError("empty pipeline")
	}
	r := &Recommender{
		snap:     snap,
		pipeline: p,
		logger:   *logging.L(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Recommend 返回给 userID 推荐的外部物品 ID，按预测分降序。
// 没有可推荐物品时返回空切片和 nil 错误；userID 不在快照中时返回 UnknownUser 错误。
func (r *Recommender) Recommend(ctx context.Context, userID string) ([]string, error) {
	items, err := r.RecommendItems(ctx, &core.RecommendContext{UserID: userID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

// RecommendItems 与 Recommend 相同，但返回带预测分和 Label 的物品。
// rctx.UserID 必填；RequestID 为空时自动生成，rctx.Params 可供 filter 表达式使用。
func (r *Recommender) RecommendItems(ctx context.Context, rctx *core.RecommendContext) (items []*core.Item, err error) {
	if rctx == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: nil recommend context")
	}
	start := time.Now()
	if rctx.RequestID == "" {
		rctx.RequestID = logging.NewRequestID()
	}
	logger := r.logger.With().
		Str("request_id", rctx.RequestID).
		Str("user", rctx.UserID).
		Logger()

	defer func() {
		elapsed := time.Since(start)
		metrics.RecommendDuration.Observe(elapsed.Seconds())
		metrics.RecommendRequests.WithLabelValues(outcome(items, err)).Inc()
		if err != nil {
			logger.Debug().Err(err).Dur("duration", elapsed).Msg("recommend failed")
			return
		}
		neighbors, _ := rctx.GetLabel("cf_neighbors")
		logger.Debug().
			Str("neighbors", neighbors.Value).
			Int("items", len(items)).
			Dur("duration", elapsed).
			Msg("recommend")
	}()

	if r.snap.Closed() {
		return nil, core.ErrSnapshotClosed
	}
	idx, ok := r.snap.UserIndex(rctx.UserID)
	if !ok {
		return nil, core.NewUnknownUserError(rctx.UserID)
	}
	rctx.UserIndex = idx

	out, err := r.pipeline.Run(logger.WithContext(ctx), rctx, nil)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*core.Item{}
	}
	return out, nil
}

// Stats 返回快照的评分数、用户数、物品数。
func (r *Recommender) Stats() ratings.Stats {
	return r.snap.Stats()
}

func outcome(items []*core.Item, err error) string {
	switch {
	case core.IsUnknownUser(err):
		return metrics.OutcomeUnknownUser
	case err != nil:
		return metrics.OutcomeError
	case len(items) == 0:
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeOK
	}
}
