package core

import "math"

// IndexBase 是用户/物品索引的起始值，按首次出现顺序递增分配。
const IndexBase = 1

// Rating 是一条评分三元组。
type Rating struct {
	User  int
	Item  int
	Score float64
}

// Valid 判断评分值是否为有限实数。
func (r Rating) Valid() bool {
	return !math.IsNaN(r.Score) && !math.IsInf(r.Score, 0)
}

// RatingVector 是某个用户的稀疏评分向量：itemIndex -> score，只包含评过分的物品。
type RatingVector map[int]float64

// Has 判断是否对物品评过分。
func (v RatingVector) Has(item int) bool {
	_, ok := v[item]
	return ok
}
