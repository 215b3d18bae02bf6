// Package cfkit 是基于用户的协同过滤推荐工具包（User-based Collaborative Filtering Kit）。
//
// 设计要点：
// - Snapshot-first: 评分数据构建为只读快照（ratings.Snapshot），请求间共享，无需加锁
// - Pipeline-first: 推荐流程由 Node 串联（recall.usercf → filter → rerank.topn）
// - Labels-first: 邻域大小、召回来源、过滤原因等以 Label 透传，便于 explain
//
//	b := ratings.NewBuilder()
//	_ = b.Add("A141HP4LYPWMSR", "B003AI2VGA", 3)
//	snap := b.Build()
//	rec, _ := service.New(snap, config.Default().Recommend)
//	ids, err := rec.Recommend(ctx, "A141HP4LYPWMSR")
package cfkit

import (
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/ratings"
	"github.com/rushteam/cfkit/service"
)

// 轻量 facade：便于直接 import "cfkit" 使用核心抽象。
type (
	Pipeline    = pipeline.Pipeline
	Node        = pipeline.Node
	Kind        = pipeline.Kind
	Snapshot    = ratings.Snapshot
	Recommender = service.Recommender
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
