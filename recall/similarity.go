package recall

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/cfkit/core"
)

// 相似度度量名称
const (
	MetricPearson = "pearson"
	MetricCosine  = "cosine"
)

// RatingSource 是召回算法读取评分数据的只读接口，ratings.Snapshot 实现此接口。
type RatingSource interface {
	// UserVector 返回用户的评分向量；用户没有评分时 ok 为 false
	UserVector(user int) (core.RatingVector, bool)

	// Users 返回所有有评分的用户索引，升序
	Users() []int
}

// Similarity 计算两个用户之间的相似度。
// ok 为 false 表示相似度未定义（没有共同评分物品，或方差为 0），调用方必须排除该用户对，
// 不能把它当作 0 处理。
type Similarity interface {
	Similarity(a, b int) (score float64, ok bool)
}

// NewSimilarity 按名称创建相似度度量，未知名称返回 INVALID_CONFIG 错误。
func NewSimilarity(metric string, src RatingSource) (Similarity, error) {
	switch metric {
	case "", MetricPearson:
		return &Pearson{Ratings: src}, nil
	case MetricCosine:
		return &Cosine{Ratings: src}, nil
	default:
		return nil, core.NewInvalidConfigError(fmt.Sprintf("unknown similarity metric %q", metric))
	}
}

// Pearson 是基于共同评分物品的皮尔逊相关系数。
//
//	sim(a, b) = cov(a_I, b_I) / (std(a_I) * std(b_I))，I 为 a、b 共同评分的物品集合
//
// |I| = 0 或任一方在 I 上的标准差为 0（包括 |I| = 1）时未定义。
type Pearson struct {
	Ratings RatingSource
}

func (p *Pearson) Similarity(a, b int) (float64, bool) {
	x, y, ok := coRated(p.Ratings, a, b)
	if !ok || len(x) < 2 {
		return 0, false
	}
	if stat.StdDev(x, nil) == 0 || stat.StdDev(y, nil) == 0 {
		return 0, false
	}
	return finite(stat.Correlation(x, y, nil))
}

// Cosine 是基于共同评分物品的余弦相似度，任一方在 I 上的范数为 0 时未定义。
type Cosine struct {
	Ratings RatingSource
}

func (c *Cosine) Similarity(a, b int) (float64, bool) {
	x, y, ok := coRated(c.Ratings, a, b)
	if !ok || len(x) == 0 {
		return 0, false
	}
	nx, ny := floats.Norm(x, 2), floats.Norm(y, 2)
	if nx == 0 || ny == 0 {
		return 0, false
	}
	return finite(floats.Dot(x, y) / (nx * ny))
}

// coRated 取出 a、b 共同评分的物品分数，物品按索引升序排列，
// 保证参数顺序交换时求和顺序不变（结果严格对称）。
func coRated(src RatingSource, a, b int) (x, y []float64, ok bool) {
	va, okA := src.UserVector(a)
	vb, okB := src.UserVector(b)
	if !okA || !okB {
		return nil, nil, false
	}

	small, large := va, vb
	if len(large) < len(small) {
		small, large = large, small
	}
	common := make([]int, 0, len(small))
	for item := range small {
		if large.Has(item) {
			common = append(common, item)
		}
	}
	if len(common) == 0 {
		return nil, nil, false
	}
	sort.Ints(common)

	x = make([]float64, len(common))
	y = make([]float64, len(common))
	for i, item := range common {
		x[i] = va[item]
		y[i] = vb[item]
	}
	return x, y, true
}

// finite 过滤 NaN/Inf，并把浮点误差导致的越界值截断到 [-1, 1]。
func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, v)), true
}
