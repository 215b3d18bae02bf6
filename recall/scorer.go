package recall

import (
	"math"
	"sort"
)

// Recommendation 是一个候选物品及其预测评分。
type Recommendation struct {
	Item  int
	Score float64
}

// Scorer 根据邻域评分预测目标用户对未评分物品的评分并排序。
//
// 候选集：任一邻居评过分、目标用户未评过分的物品。
//
//	pred(u, i) = Σ sim(u, v) * r(v, i) / Σ |sim(u, v)|，v 为评过 i 的邻居
//
// 分母为 0 的物品直接剔除。按预测分降序，同分按物品索引升序。
type Scorer struct {
	Ratings RatingSource
}

// Score 返回前 topN 个推荐；topN <= 0 时返回全部候选。没有候选时返回空切片。
func (s *Scorer) Score(target int, neighbors []Neighbor, topN int) []Recommendation {
	rated, _ := s.Ratings.UserVector(target)

	type acc struct{ num, den float64 }
	sums := make(map[int]*acc)
	for _, nb := range neighbors {
		vec, ok := s.Ratings.UserVector(nb.User)
		if !ok {
			continue
		}
		for item, r := range vec {
			if rated.Has(item) {
				continue
			}
			a := sums[item]
			if a == nil {
				a = &acc{}
				sums[item] = a
			}
			a.num += nb.Similarity * r
			a.den += math.Abs(nb.Similarity)
		}
	}

	out := make([]Recommendation, 0, len(sums))
	for item, a := range sums {
		if a.den == 0 {
			continue
		}
		out = append(out, Recommendation{Item: item, Score: a.num / a.den})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item < out[j].Item
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
