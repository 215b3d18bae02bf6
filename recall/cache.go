package recall

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/cfkit/pkg/metrics"
)

// CachedSimilarity 为任意 Similarity 加上进程内缓存，可在并发请求间共享。
//
//   - 按无序用户对缓存，sim(a, b) 与 sim(b, a) 共用一条记录
//   - 未定义的结果同样缓存（ok = false），不会退化成 0
//   - 同一用户对并发未命中时只计算一次（singleflight）
//
// 缓存绑定一份评分快照；快照变化时必须调用 Invalidate 或新建实例。
type CachedSimilarity struct {
	Base Similarity

	mu     sync.RWMutex
	gen    uint64
	scores map[pairKey]cachedScore
	group  singleflight.Group
}

type pairKey struct{ lo, hi int }

func newPairKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

func (k pairKey) String() string {
	return strconv.Itoa(k.lo) + ":" + strconv.Itoa(k.hi)
}

type cachedScore struct {
	value float64
	ok    bool
}

func NewCachedSimilarity(base Similarity) *CachedSimilarity {
	return &CachedSimilarity{
		Base:   base,
		scores: make(map[pairKey]cachedScore),
	}
}

func (c *CachedSimilarity) Similarity(a, b int) (float64, bool) {
	k := newPairKey(a, b)

	c.mu.RLock()
	s, hit := c.scores[k]
	gen := c.gen
	c.mu.RUnlock()
	if hit {
		metrics.SimilarityCacheHits.Inc()
		return s.value, s.ok
	}
	metrics.SimilarityCacheMisses.Inc()

	v, _, _ := c.group.Do(k.String()+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		c.mu.RLock()
		s, hit := c.scores[k]
		c.mu.RUnlock()
		if hit {
			return s, nil
		}

		value, ok := c.Base.Similarity(k.lo, k.hi)
		s = cachedScore{value: value, ok: ok}

		c.mu.Lock()
		// Invalidate 期间算出的旧结果不回写
		if c.gen == gen {
			c.scores[k] = s
		}
		c.mu.Unlock()
		return s, nil
	})
	s = v.(cachedScore)
	return s.value, s.ok
}

// Invalidate 清空缓存，评分数据变化后调用。
func (c *CachedSimilarity) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.scores = make(map[pairKey]cachedScore)
}

// Len 返回已缓存的用户对数量。
func (c *CachedSimilarity) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scores)
}
