package recall

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Neighbor 是邻域中的一个用户及其与目标用户的相似度。
type Neighbor struct {
	User       int
	Similarity float64
}

// ThresholdNeighborhood 是基于阈值的用户邻域：
// 与目标用户相似度严格大于 Threshold 的所有其他用户，不限数量（不是 KNN）。
//
// 相似度未定义的用户对直接排除。结果按用户索引升序，相同输入得到相同输出。
type ThresholdNeighborhood struct {
	Ratings    RatingSource
	Similarity Similarity

	// Threshold 相似度阈值，比较为严格大于
	Threshold float64

	// Workers 并发计算相似度的协程数，<= 0 时取 GOMAXPROCS
	Workers int
}

func (n *ThresholdNeighborhood) Neighborhood(ctx context.Context, target int) ([]Neighbor, error) {
	out := make([]Neighbor, 0)
	if _, ok := n.Ratings.UserVector(target); !ok {
		return out, nil
	}

	users := n.Ratings.Users()
	if len(users) == 0 {
		return out, nil
	}

	workers := n.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(users) + workers - 1) / workers

	// 每个协程只写自己负责的区间，无需加锁
	sims := make([]float64, len(users))
	keep := make([]bool, len(users))

	eg, egCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(users); start += chunk {
		end := min(start+chunk, len(users))
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if i%64 == 0 {
					if err := egCtx.Err(); err != nil {
						return err
					}
				}
				u := users[i]
				if u == target {
					continue
				}
				sim, ok := n.Similarity.Similarity(target, u)
				if ok && sim > n.Threshold {
					sims[i] = sim
					keep[i] = true
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, u := range users {
		if keep[i] {
			out = append(out, Neighbor{User: u, Similarity: sims[i]})
		}
	}
	return out, nil
}
