package recall

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/ratings"
)

const eps = 1e-9

type rating struct {
	user, item string
	score      float64
}

func snapshotOf(t *testing.T, rows ...rating) *ratings.Snapshot {
	t.Helper()
	b := ratings.NewBuilder()
	for _, r := range rows {
		if err := b.Add(r.user, r.item, r.score); err != nil {
			t.Fatalf("Add(%v) error = %v", r, err)
		}
	}
	return b.Build()
}

// abcSnapshot: A、B 在 item1/item2 上评分模式一致，B 额外评了 item3；C 的评分全部相同。
func abcSnapshot(t *testing.T) *ratings.Snapshot {
	return snapshotOf(t,
		rating{"A", "item1", 5}, rating{"A", "item2", 3},
		rating{"B", "item1", 5}, rating{"B", "item2", 3}, rating{"B", "item3", 4},
		rating{"C", "item1", 1}, rating{"C", "item2", 1},
	)
}

func randomSnapshot(t *testing.T, users, items int, density float64, seed uint64) *ratings.Snapshot {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	var rows []rating
	for u := 0; u < users; u++ {
		for i := 0; i < items; i++ {
			if rng.Float64() < density {
				rows = append(rows, rating{
					user:  "u" + strconv.Itoa(u),
					item:  "i" + strconv.Itoa(i),
					score: float64(1 + rng.IntN(5)),
				})
			}
		}
	}
	return snapshotOf(t, rows...)
}

func idx(t *testing.T, snap *ratings.Snapshot, user string) int {
	t.Helper()
	u, ok := snap.UserIndex(user)
	if !ok {
		t.Fatalf("unknown user %q", user)
	}
	return u
}

func TestPearson_Values(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float64
		want   float64
		wantOK bool
	}{
		{name: "identical pattern", a: []float64{5, 3}, b: []float64{5, 3}, want: 1, wantOK: true},
		{name: "opposed", a: []float64{1, 2, 3}, b: []float64{3, 2, 1}, want: -1, wantOK: true},
		{name: "partial", a: []float64{1, 2, 3}, b: []float64{1, 2, 4}, want: 3 / math.Sqrt(2*42.0/9), wantOK: true},
		{name: "constant side", a: []float64{5, 3}, b: []float64{1, 1}, wantOK: false},
		{name: "single co-rated item", a: []float64{4}, b: []float64{2}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []rating
			for i, s := range tt.a {
				rows = append(rows, rating{"a", "i" + strconv.Itoa(i), s})
			}
			for i, s := range tt.b {
				rows = append(rows, rating{"b", "i" + strconv.Itoa(i), s})
			}
			snap := snapshotOf(t, rows...)
			p := &Pearson{Ratings: snap}
			got, ok := p.Similarity(idx(t, snap, "a"), idx(t, snap, "b"))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (sim %v)", ok, tt.wantOK, got)
			}
			if ok && math.Abs(got-tt.want) > eps {
				t.Errorf("sim = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarity_NoOverlapUndefined(t *testing.T) {
	snap := snapshotOf(t,
		rating{"a", "i1", 5}, rating{"a", "i2", 1},
		rating{"b", "i3", 5}, rating{"b", "i4", 1},
	)
	for _, metric := range []string{MetricPearson, MetricCosine} {
		sim, err := NewSimilarity(metric, snap)
		if err != nil {
			t.Fatal(err)
		}
		if v, ok := sim.Similarity(idx(t, snap, "a"), idx(t, snap, "b")); ok {
			t.Errorf("%s: disjoint users similarity = %v, want undefined", metric, v)
		}
	}
}

func TestCosine_Value(t *testing.T) {
	snap := snapshotOf(t,
		rating{"a", "i1", 3}, rating{"a", "i2", 4}, rating{"a", "only-a", 5},
		rating{"b", "i1", 4}, rating{"b", "i2", 3},
	)
	c := &Cosine{Ratings: snap}
	got, ok := c.Similarity(idx(t, snap, "a"), idx(t, snap, "b"))
	if !ok || math.Abs(got-0.96) > eps {
		t.Errorf("cosine = %v, %v; want 0.96", got, ok)
	}
}

func TestNewSimilarity_UnknownMetric(t *testing.T) {
	if _, err := NewSimilarity("jaccard", snapshotOf(t)); !core.IsInvalidConfig(err) {
		t.Errorf("error = %v, want invalid config", err)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	snap := randomSnapshot(t, 30, 20, 0.4, 7)
	for _, metric := range []string{MetricPearson, MetricCosine} {
		sim, _ := NewSimilarity(metric, snap)
		for _, a := range snap.Users() {
			for _, b := range snap.Users() {
				ab, okAB := sim.Similarity(a, b)
				ba, okBA := sim.Similarity(b, a)
				if okAB != okBA || ab != ba {
					t.Fatalf("%s: sim(%d,%d)=%v,%v sim(%d,%d)=%v,%v", metric, a, b, ab, okAB, b, a, ba, okBA)
				}
				if okAB && (ab < -1 || ab > 1) {
					t.Fatalf("%s: sim(%d,%d)=%v outside [-1,1]", metric, a, b, ab)
				}
			}
		}
	}
}

type countingSimilarity struct {
	calls atomic.Int64
	value float64
	ok    bool
}

func (c *countingSimilarity) Similarity(a, b int) (float64, bool) {
	c.calls.Add(1)
	return c.value, c.ok
}

func TestCachedSimilarity(t *testing.T) {
	base := &countingSimilarity{value: 0.5, ok: true}
	cache := NewCachedSimilarity(base)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := 1, 2
			if i%2 == 0 {
				a, b = b, a
			}
			if v, ok := cache.Similarity(a, b); !ok || v != 0.5 {
				t.Errorf("Similarity = %v, %v", v, ok)
			}
		}(i)
	}
	wg.Wait()

	if _, ok := cache.Similarity(2, 1); !ok {
		t.Fatal("cached similarity lost")
	}
	if n := base.calls.Load(); n != 1 {
		t.Errorf("base called %d times, want 1", n)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (unordered pair)", cache.Len())
	}

	cache.Invalidate()
	if cache.Len() != 0 {
		t.Fatalf("Len() after Invalidate = %d", cache.Len())
	}
	before := base.calls.Load()
	cache.Similarity(1, 2)
	if base.calls.Load() != before+1 {
		t.Error("Invalidate did not force recomputation")
	}
}

func TestCachedSimilarity_CachesUndefined(t *testing.T) {
	base := &countingSimilarity{ok: false}
	cache := NewCachedSimilarity(base)
	for i := 0; i < 3; i++ {
		if _, ok := cache.Similarity(3, 4); ok {
			t.Fatal("undefined similarity became defined")
		}
	}
	if base.calls.Load() != 1 {
		t.Errorf("base called %d times, want 1", base.calls.Load())
	}
}

func neighborhoodOf(t *testing.T, snap *ratings.Snapshot, user string, threshold float64) map[int]float64 {
	t.Helper()
	n := &ThresholdNeighborhood{
		Ratings:    snap,
		Similarity: &Pearson{Ratings: snap},
		Threshold:  threshold,
		Workers:    3,
	}
	got, err := n.Neighborhood(context.Background(), idx(t, snap, user))
	if err != nil {
		t.Fatalf("Neighborhood() error = %v", err)
	}
	set := make(map[int]float64, len(got))
	for i, nb := range got {
		if i > 0 && got[i-1].User >= nb.User {
			t.Fatalf("neighbors not sorted by user: %v", got)
		}
		set[nb.User] = nb.Similarity
	}
	return set
}

func TestThresholdNeighborhood_Scenario(t *testing.T) {
	snap := abcSnapshot(t)
	a, b := idx(t, snap, "A"), idx(t, snap, "B")

	got := neighborhoodOf(t, snap, "A", 0.1)
	if len(got) != 1 {
		t.Fatalf("neighborhood(A) = %v, want only B", got)
	}
	if _, ok := got[b]; !ok {
		t.Errorf("B missing from neighborhood(A)")
	}
	if _, ok := got[a]; ok {
		t.Errorf("A is its own neighbor")
	}

	// sim(A, B) == 1，阈值比较为严格大于
	if got := neighborhoodOf(t, snap, "A", 1); len(got) != 0 {
		t.Errorf("threshold 1 neighborhood = %v, want empty", got)
	}
}

func TestThresholdNeighborhood_Monotonic(t *testing.T) {
	snap := randomSnapshot(t, 40, 25, 0.35, 11)
	thresholds := []float64{0.05, 0.1, 0.3, 0.5, 0.8, 0.95}
	for _, u := range snap.Users() {
		user, _ := snap.UserID(u)
		prev := neighborhoodOf(t, snap, user, thresholds[0])
		if _, self := prev[u]; self {
			t.Fatalf("user %s is its own neighbor", user)
		}
		for _, th := range thresholds[1:] {
			cur := neighborhoodOf(t, snap, user, th)
			for v, sim := range cur {
				if _, ok := prev[v]; !ok {
					t.Fatalf("user %s: %d in neighborhood(%v) but not in lower threshold", user, v, th)
				}
				if sim <= th {
					t.Fatalf("user %s: neighbor %d sim %v not > %v", user, v, sim, th)
				}
			}
			prev = cur
		}
	}
}

func TestThresholdNeighborhood_Cancelled(t *testing.T) {
	snap := randomSnapshot(t, 10, 10, 0.5, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := &ThresholdNeighborhood{Ratings: snap, Similarity: &Pearson{Ratings: snap}, Threshold: 0.1, Workers: 2}
	if _, err := n.Neighborhood(ctx, snap.Users()[0]); err == nil {
		t.Error("Neighborhood on cancelled context returned nil error")
	}
}

func TestScorer(t *testing.T) {
	snap := snapshotOf(t,
		rating{"t", "seen", 4},
		rating{"n1", "seen", 1}, rating{"n1", "x", 5}, rating{"n1", "y", 2},
		rating{"n2", "x", 3}, rating{"n2", "z", 2}, rating{"n2", "w", 2},
		rating{"n3", "q", 5},
	)
	target := idx(t, snap, "t")
	neighbors := []Neighbor{
		{User: idx(t, snap, "n1"), Similarity: 0.9},
		{User: idx(t, snap, "n2"), Similarity: 0.3},
		{User: idx(t, snap, "n3"), Similarity: 0},
	}
	s := &Scorer{Ratings: snap}
	got := s.Score(target, neighbors, 0)

	itemIdx := func(id string) int { i, _ := snap.ItemIndex(id); return i }
	wantX := (0.9*5 + 0.3*3) / 1.2
	want := []Recommendation{
		{Item: itemIdx("x"), Score: wantX},
		{Item: itemIdx("y"), Score: 2},
		{Item: itemIdx("z"), Score: 2},
		{Item: itemIdx("w"), Score: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Score() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Item != want[i].Item || math.Abs(got[i].Score-want[i].Score) > eps {
			t.Errorf("rank %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	for _, r := range got {
		if r.Item == itemIdx("seen") {
			t.Error("already rated item recommended")
		}
		if r.Item == itemIdx("q") {
			t.Error("item with zero similarity weight recommended")
		}
	}

	top2 := s.Score(target, neighbors, 2)
	if len(top2) != 2 || top2[0] != got[0] || top2[1] != got[1] {
		t.Errorf("Score(topN=2) = %v, want prefix of %v", top2, got)
	}
	if all := s.Score(target, neighbors, 100); len(all) != len(got) {
		t.Errorf("Score(topN=100) len = %d, want %d (no padding)", len(all), len(got))
	}
	if empty := s.Score(target, nil, 3); empty == nil || len(empty) != 0 {
		t.Errorf("Score(no neighbors) = %#v, want empty slice", empty)
	}
}

func TestNewUserBasedCF_InvalidConfig(t *testing.T) {
	snap := abcSnapshot(t)
	for _, cfg := range []UserCFConfig{
		{Threshold: 0},
		{Threshold: 1},
		{Threshold: -0.2},
		{Threshold: 1.5},
		{Threshold: math.NaN()},
		{Threshold: 0.1, Metric: "euclid"},
	} {
		if _, err := NewUserBasedCF(snap, cfg); !core.IsInvalidConfig(err) {
			t.Errorf("NewUserBasedCF(%+v) error = %v, want invalid config", cfg, err)
		}
	}
}

func TestUserBasedCF_Recall(t *testing.T) {
	snap := abcSnapshot(t)
	for _, cache := range []bool{false, true} {
		r, err := NewUserBasedCF(snap, UserCFConfig{Threshold: 0.1, Cache: cache, TopK: 1})
		if err != nil {
			t.Fatal(err)
		}
		rctx := &core.RecommendContext{UserID: "A", UserIndex: idx(t, snap, "A")}
		items, err := r.Process(context.Background(), rctx, nil)
		if err != nil {
			t.Fatalf("Recall() error = %v", err)
		}
		if len(items) != 1 || items[0].ID != "item3" {
			t.Fatalf("Recall(A) = %v, want [item3]", items)
		}
		if items[0].Score != 4 {
			t.Errorf("item3 score = %v, want 4", items[0].Score)
		}
		if lbl := items[0].Labels["cf_metric"]; lbl.Value != MetricPearson {
			t.Errorf("cf_metric label = %+v", lbl)
		}
		if lbl, _ := rctx.GetLabel("cf_neighbors"); lbl.Value != "1" {
			t.Errorf("cf_neighbors label = %+v, want 1", lbl)
		}
		r.Invalidate()
	}
}

func TestUserBasedCF_DisjointUser(t *testing.T) {
	snap := snapshotOf(t,
		rating{"A", "item1", 5}, rating{"A", "item2", 3},
		rating{"B", "item1", 4}, rating{"B", "item2", 1},
		rating{"loner", "item8", 2}, rating{"loner", "item9", 5},
	)
	r, err := NewUserBasedCF(snap, UserCFConfig{Threshold: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserIndex: idx(t, snap, "loner")})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("Recall(loner) = %#v, want empty slice", items)
	}
}
