package kmeans

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"celldecode/pkg/vector"
)

func seeded(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func blobs(rng *rand.Rand, centers []vector.Vector, perBlob int) []vector.Vector {
	var items []vector.Vector
	for _, c := range centers {
		for i := 0; i < perBlob; i++ {
			p := c.Clone()
			for d := range p {
				p[d] += float64(rng.Intn(5) - 2)
			}
			items = append(items, p)
		}
	}
	return items
}

func TestCluster_SingleCluster(t *testing.T) {
	items := []vector.Vector{vector.Of(0, 0, 1), vector.Of(4, 2, 1), vector.Of(2, 7, 1), vector.Of(6, 3, 1)}

	res, err := Cluster(context.Background(), items, Config{K: 1, Rand: seeded(1)})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.True(t, res.Converged)
	assert.Equal(t, Converged, res.State)
	assert.Equal(t, []int{0, 0, 0, 0}, res.Labels)
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, res.Groups)
	assert.Equal(t, vector.Mean(items), res.Centroids[0])
}

func TestCluster_SeparatedBlobs(t *testing.T) {
	rng := seeded(42)
	centers := []vector.Vector{vector.Of(0, 0), vector.Of(100, 0), vector.Of(50, 90)}
	items := blobs(rng, centers, 20)

	res, err := Cluster(context.Background(), items, Config{K: 3, Init: InitPlusPlus, Rand: seeded(5), Workers: 1})
	require.NoError(t, err)
	require.True(t, res.Converged)

	// Every blob must end up in one cluster of its own
	for b := 0; b < 3; b++ {
		first := res.Labels[b*20]
		for i := b * 20; i < (b+1)*20; i++ {
			assert.Equal(t, first, res.Labels[i], "item %d", i)
		}
	}
	assert.ElementsMatch(t, []int{20, 20, 20}, res.Sizes())
	assert.Zero(t, res.EmptyClusters())
	assert.Greater(t, res.Silhouette(items), 0.8)
}

func TestCluster_LabelsAndGroupsAgree(t *testing.T) {
	items := blobs(seeded(2), []vector.Vector{vector.Of(0, 0, 0), vector.Of(30, 30, 30)}, 15)
	res, err := Cluster(context.Background(), items, Config{K: 4, Rand: seeded(9)})
	require.NoError(t, err)

	require.Len(t, res.Labels, len(items))
	require.Len(t, res.Groups, 4)
	total := 0
	for c, members := range res.Groups {
		total += len(members)
		for _, i := range members {
			assert.Equal(t, c, res.Labels[i])
		}
	}
	assert.Equal(t, len(items), total)

	// Final labels are nearest-centroid assignments of the final centroids
	for i, it := range items {
		assert.Equal(t, nearest(it, res.Centroids), res.Labels[i])
	}
}

func TestCluster_DeterministicWithSeed(t *testing.T) {
	items := blobs(seeded(8), []vector.Vector{vector.Of(0, 0), vector.Of(20, 20), vector.Of(40, 0)}, 30)

	a, err := Cluster(context.Background(), items, Config{K: 3, Rand: seeded(77), Workers: 1})
	require.NoError(t, err)
	b, err := Cluster(context.Background(), items, Config{K: 3, Rand: seeded(77), Workers: 7})
	require.NoError(t, err)

	assert.Equal(t, a.Labels, b.Labels)
	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.Iterations, b.Iterations)
}

func TestCluster_IterationCap(t *testing.T) {
	items := blobs(seeded(3), []vector.Vector{vector.Of(0, 0), vector.Of(10, 10), vector.Of(20, 0), vector.Of(5, 30)}, 25)

	for _, max := range []int{1, 2, 3} {
		res, err := Cluster(context.Background(), items, Config{K: 8, MaxIterations: max, Init: InitBounds, Rand: seeded(4)})
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Iterations, max)
		if !res.Converged {
			assert.Equal(t, MaxIterReached, res.State)
			assert.Equal(t, max, res.Iterations)
		}
	}
}

func TestCluster_EmptyClusterKeepsCentroid(t *testing.T) {
	items := []vector.Vector{vector.Of(0, 0), vector.Of(1, 0), vector.Of(0, 1)}

	// Five clusters over three items: at least two stay empty
	res, err := Cluster(context.Background(), items, Config{K: 5, Rand: seeded(6)})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.EmptyClusters(), 2)

	for c, members := range res.Groups {
		if len(members) == 0 {
			// Empty clusters keep their sampled starting point
			assert.Contains(t, items, res.Centroids[c])
		}
	}
}

func TestCluster_BoundsInit(t *testing.T) {
	items := blobs(seeded(10), []vector.Vector{vector.Of(0, 0), vector.Of(50, 50)}, 10)

	e, err := New(Config{K: 2, Init: InitBounds, Rand: seeded(1)})
	require.NoError(t, err)
	centroids := e.initialize(items)
	lo, hi := vector.Bounds(items)
	for _, c := range centroids {
		for d := range c {
			assert.GreaterOrEqual(t, c[d], lo[d])
			assert.LessOrEqual(t, c[d], hi[d])
		}
	}

	res, err := e.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Len(t, res.Centroids, 2)
}

func TestInitPlusPlus_SpreadsCentroids(t *testing.T) {
	items := blobs(seeded(21), []vector.Vector{vector.Of(0, 0), vector.Of(1000, 0)}, 10)

	e, err := New(Config{K: 2, Init: InitPlusPlus, Rand: seeded(3)})
	require.NoError(t, err)
	centroids := e.initialize(items)
	assert.Greater(t, centroids[0].Distance(centroids[1]), 900.0)

	// Identical items leave no distance mass; seeding must still succeed
	same := []vector.Vector{vector.Of(1, 1), vector.Of(1, 1)}
	e, err = New(Config{K: 3, Init: InitPlusPlus, Rand: seeded(3)})
	require.NoError(t, err)
	assert.Len(t, e.initialize(same), 3)
}

func TestCluster_TieBreaksToLowestCentroid(t *testing.T) {
	centroids := []vector.Vector{vector.Of(-1), vector.Of(1)}
	assert.Equal(t, 0, nearest(vector.Of(0), centroids))
	assert.Equal(t, 1, nearest(vector.Of(0.5), centroids))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{K: 0})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = New(Config{K: -3})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = New(Config{K: 2, MaxIterations: -1})
	assert.ErrorIs(t, err, ErrInvalidMaxIterations)

	_, err = New(Config{K: 2, Tolerance: -1})
	assert.Error(t, err)

	_, err = New(Config{K: 2, Init: "plusplus"})
	assert.Error(t, err)

	e, err := New(Config{K: 2})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxIterations, e.cfg.MaxIterations)
	assert.Equal(t, InitSample, e.cfg.Init)
	assert.Equal(t, Uninitialized, e.State())
}

func TestRun_InputErrors(t *testing.T) {
	e, err := New(Config{K: 2, Rand: seeded(1)})
	require.NoError(t, err)

	_, err = e.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = e.Run(context.Background(), []vector.Vector{vector.Of(1, 2), vector.Of(1, 2, 3)})
	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 1, dimErr.Index)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Actual)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx, []vector.Vector{vector.Of(1), vector.Of(2)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCluster_Tolerance(t *testing.T) {
	items := blobs(seeded(12), []vector.Vector{vector.Of(0.5, 0.5), vector.Of(0.1, 0.9)}, 40)
	for i := range items {
		items[i][0] /= 10
		items[i][1] /= 10
	}
	res, err := Cluster(context.Background(), items, Config{K: 2, Tolerance: 1e-3, Rand: seeded(2)})
	require.NoError(t, err)
	assert.True(t, res.Converged)
}

func TestInertia(t *testing.T) {
	items := []vector.Vector{vector.Of(0, 0), vector.Of(2, 0)}
	res := &Result{Labels: []int{0, 0}, Centroids: []vector.Vector{vector.Of(1, 0)}, Groups: [][]int{{0, 1}}}
	assert.Equal(t, 2.0, res.Inertia(items))
	assert.Zero(t, res.Silhouette(items))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "max-iterations-reached", MaxIterReached.String())
	assert.Equal(t, "state(42)", State(42).String())
}
