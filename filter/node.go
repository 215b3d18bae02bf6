package filter

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/utils"
)

// FilterNode 组合多个过滤器，任何一个过滤器返回 true，该物品就会被过滤掉。
// 过滤器出错时只记录日志（取 ctx 上的 zerolog.Logger），不中断流程。
// 过滤保持输入顺序。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	logger := zerolog.Ctx(ctx)
	out := make([]*core.Item, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				logger.Warn().Err(err).
					Str("filter", f.Name()).
					Str("item", item.ID).
					Msg("filter failed, item kept")
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			// 被过滤的 item 不会出现在结果里，标签仅用于调试
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}

	if dropped := len(items) - len(out); dropped > 0 && rctx != nil {
		rctx.SetLabel("filtered_count", utils.Label{Value: strconv.Itoa(dropped), Source: n.Name()})
	}
	return out, nil
}
