package core

import "github.com/rushteam/cfkit/pkg/utils"

// RecommendContext 承载一次推荐请求的用户与请求级信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	RequestID string

	// UserID 是外部用户 ID；UserIndex 是其在快照内的索引，由 service 在进入 Pipeline 前解析
	UserID    string
	UserIndex int

	// Labels 是请求级标签，可驱动 Pipeline 行为，也用于 explain
	Labels map[string]utils.Label

	// Params 请求级参数，filter 表达式中可通过 rctx.params 访问
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// SetLabel 写入请求级 Label，覆盖同名旧值（不做 Merge）。
func (rctx *RecommendContext) SetLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
