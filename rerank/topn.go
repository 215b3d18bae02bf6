package rerank

import (
	"context"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
)

// TopNNode 截取前 N 个物品，放在 Pipeline 末尾控制返回数量。
// 过滤发生在打分之后，所以召回阶段可以多取一些（recall.usercf 的 top_k），再由这里截断。
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        cf,                              // recall.usercf
//	        &filter.FilterNode{...},         // 过滤
//	        &rerank.TopNNode{N: 3},          // 截取 Top 3
//	    },
//	}
type TopNNode struct {
	// N <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
