// Package kmeans implements Lloyd's algorithm over n-dimensional vectors.
//
// The same engine clusters 2-D pixel coordinates and D-dimensional cell
// feature vectors; both are expressed as vector.Vector.
package kmeans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"celldecode/pkg/vector"
)

// DefaultMaxIterations caps the assign/update loop when Config leaves it unset.
const DefaultMaxIterations = 1000

var (
	// ErrInvalidK is returned when K is not positive.
	ErrInvalidK = errors.New("kmeans: k must be positive")

	// ErrNoItems is returned when there is nothing to cluster.
	ErrNoItems = errors.New("kmeans: no items to cluster")

	// ErrInvalidMaxIterations is returned for a negative iteration cap.
	ErrInvalidMaxIterations = errors.New("kmeans: max iterations must not be negative")
)

// ErrDimensionMismatch reports an item whose dimension differs from the first.
type ErrDimensionMismatch struct {
	Index    int
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("kmeans: item %d has dimension %d, expected %d", e.Index, e.Actual, e.Expected)
}

// InitMethod selects how the initial centroids are chosen.
type InitMethod string

const (
	// InitSample picks K existing items uniformly at random.
	InitSample InitMethod = "sample"

	// InitBounds draws K points uniformly inside the bounding box of the
	// items. Centroids may start far from any item and the first pass can
	// leave clusters empty.
	InitBounds InitMethod = "bounds"

	// InitPlusPlus seeds with k-means++: each further centroid is an item
	// drawn with probability proportional to its squared distance from the
	// nearest centroid chosen so far.
	InitPlusPlus InitMethod = "kmeans++"
)

// State is a phase of the clustering state machine.
type State int

const (
	Uninitialized State = iota
	Assigning
	Updating
	Converged
	MaxIterReached
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Assigning:
		return "assigning"
	case Updating:
		return "updating"
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max-iterations-reached"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the clustering parameters.
type Config struct {
	// K is the number of clusters. K larger than the number of items is
	// allowed and leaves some clusters empty or duplicated.
	K int

	// MaxIterations caps the number of update steps. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// Tolerance is the largest per-component centroid movement still
	// treated as unchanged. Zero requires exact equality.
	Tolerance float64

	// Init selects the initialization policy; empty means InitSample.
	Init InitMethod

	// Workers is the number of item partitions assigned concurrently.
	// Zero or less uses runtime.NumCPU().
	Workers int

	// Rand is the source for initialization. Nil seeds one from the clock;
	// pass a seeded source for reproducible runs.
	Rand *rand.Rand

	// Logger receives per-iteration debug output. Nil disables logging.
	Logger *slog.Logger
}

// Result is the outcome of a clustering run.
type Result struct {
	// Labels maps item index to cluster id
	Labels []int

	// Groups maps cluster id to the member item indices, in ascending order
	Groups [][]int

	// Centroids holds the final centroid of every cluster
	Centroids []vector.Vector

	// Iterations is the number of update steps performed
	Iterations int

	// Converged is false when the run stopped at the iteration cap
	Converged bool

	// State is the terminal state, Converged or MaxIterReached
	State State
}

// Engine runs k-means with a fixed configuration.
type Engine struct {
	cfg   Config
	rng   *rand.Rand
	log   *slog.Logger
	state State
}

// New validates cfg and returns an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.K <= 0 {
		return nil, ErrInvalidK
	}
	if cfg.MaxIterations < 0 {
		return nil, ErrInvalidMaxIterations
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Tolerance < 0 {
		return nil, fmt.Errorf("kmeans: tolerance must not be negative, got %g", cfg.Tolerance)
	}
	switch cfg.Init {
	case "":
		cfg.Init = InitSample
	case InitSample, InitBounds, InitPlusPlus:
	default:
		return nil, fmt.Errorf("kmeans: unknown init method %q", cfg.Init)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{cfg: cfg, rng: rng, log: logger}, nil
}

// Cluster is a convenience wrapper around New and Run.
func Cluster(ctx context.Context, items []vector.Vector, cfg Config) (*Result, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, items)
}

// State returns the phase the engine is currently in.
func (e *Engine) State() State { return e.state }

// Run clusters items. The loop alternates an update step with a fresh
// assignment and stops when the assignment no longer changes, when no
// centroid moves by more than the tolerance, or after MaxIterations updates.
func (e *Engine) Run(ctx context.Context, items []vector.Vector) (*Result, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	dim := items[0].Dim()
	for i, it := range items {
		if it.Dim() != dim || dim == 0 {
			return nil, &ErrDimensionMismatch{Index: i, Expected: dim, Actual: it.Dim()}
		}
	}

	e.state = Uninitialized
	centroids := e.initialize(items)
	labels := make([]int, len(items))
	for i := range labels {
		labels[i] = -1
	}

	e.state = Assigning
	acc, _, err := e.assign(ctx, items, centroids, labels)
	if err != nil {
		return nil, err
	}

	iterations := 0
	converged := false
	for iterations < e.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.state = Updating
		next := acc.centroids(centroids)
		moved := e.moved(centroids, next)
		centroids = next
		iterations++

		e.state = Assigning
		var changed bool
		acc, changed, err = e.assign(ctx, items, centroids, labels)
		if err != nil {
			return nil, err
		}

		e.log.Debug("kmeans iteration", "iteration", iterations, "labels_changed", changed, "centroids_moved", moved)
		if !changed || !moved {
			converged = true
			break
		}
	}

	if converged {
		e.state = Converged
	} else {
		e.state = MaxIterReached
	}

	groups := make([][]int, len(centroids))
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}

	return &Result{
		Labels:     labels,
		Groups:     groups,
		Centroids:  centroids,
		Iterations: iterations,
		Converged:  converged,
		State:      e.state,
	}, nil
}

func (e *Engine) initialize(items []vector.Vector) []vector.Vector {
	k := e.cfg.K
	centroids := make([]vector.Vector, k)

	switch e.cfg.Init {
	case InitBounds:
		lo, hi := vector.Bounds(items)
		for i := range centroids {
			c := vector.New(len(lo))
			for d := range c {
				c[d] = lo[d] + e.rng.Float64()*(hi[d]-lo[d])
			}
			centroids[i] = c
		}
	case InitPlusPlus:
		centroids[0] = items[e.rng.Intn(len(items))].Clone()
		dist := make([]float64, len(items))
		for i := range dist {
			dist[i] = items[i].SquaredDistance(centroids[0])
		}
		for c := 1; c < k; c++ {
			var total float64
			for _, d := range dist {
				total += d
			}
			pick := e.rng.Intn(len(items))
			if total > 0 {
				r := e.rng.Float64() * total
				for i, d := range dist {
					r -= d
					if r < 0 {
						pick = i
						break
					}
				}
			}
			centroids[c] = items[pick].Clone()
			for i := range dist {
				if d := items[i].SquaredDistance(centroids[c]); d < dist[i] {
					dist[i] = d
				}
			}
		}
	default:
		perm := e.rng.Perm(len(items))
		for i := range centroids {
			if i < len(perm) {
				centroids[i] = items[perm[i]].Clone()
			} else {
				centroids[i] = items[e.rng.Intn(len(items))].Clone()
			}
		}
	}
	return centroids
}

func (e *Engine) moved(prev, next []vector.Vector) bool {
	for i := range prev {
		if e.cfg.Tolerance == 0 {
			if !prev[i].Equal(next[i]) {
				return true
			}
		} else if !prev[i].EqualApprox(next[i], e.cfg.Tolerance) {
			return true
		}
	}
	return false
}

// accumulator holds per-cluster coordinate sums and member counts
type accumulator struct {
	sums   []vector.Vector
	counts []int
}

func newAccumulator(k, dim int) *accumulator {
	a := &accumulator{sums: make([]vector.Vector, k), counts: make([]int, k)}
	for i := range a.sums {
		a.sums[i] = vector.New(dim)
	}
	return a
}

func (a *accumulator) merge(b *accumulator) {
	for i := range a.sums {
		for d, v := range b.sums[i] {
			a.sums[i][d] += v
		}
		a.counts[i] += b.counts[i]
	}
}

// centroids returns the member means. A cluster without members keeps its
// previous centroid.
func (a *accumulator) centroids(prev []vector.Vector) []vector.Vector {
	next := make([]vector.Vector, len(prev))
	for i := range prev {
		if a.counts[i] == 0 {
			next[i] = prev[i].Clone()
			continue
		}
		c := a.sums[i].Clone()
		n := float64(a.counts[i])
		for d := range c {
			c[d] /= n
		}
		next[i] = c
	}
	return next
}

// nearest returns the index of the closest centroid, preferring the lowest
// index on ties.
func nearest(item vector.Vector, centroids []vector.Vector) int {
	best := 0
	bestDist := item.SquaredDistance(centroids[0])
	for j := 1; j < len(centroids); j++ {
		if d := item.SquaredDistance(centroids[j]); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// assign labels every item with its nearest centroid, writing into labels,
// and accumulates per-cluster sums for the next update. Items are split
// into contiguous partitions with private accumulators that are merged in
// partition order, so the result does not depend on goroutine scheduling.
func (e *Engine) assign(ctx context.Context, items []vector.Vector, centroids []vector.Vector, labels []int) (*accumulator, bool, error) {
	workers := min(e.cfg.Workers, len(items))
	per := (len(items) + workers - 1) / workers
	dim := items[0].Dim()

	partials := make([]*accumulator, workers)
	changed := make([]bool, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * per
		end := min(start+per, len(items))
		acc := newAccumulator(len(centroids), dim)
		partials[w] = acc

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				l := nearest(items[i], centroids)
				if labels[i] != l {
					labels[i] = l
					changed[w] = true
				}
				for d, v := range items[i] {
					acc.sums[l][d] += v
				}
				acc.counts[l]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	total := newAccumulator(len(centroids), dim)
	anyChanged := false
	for w, p := range partials {
		total.merge(p)
		anyChanged = anyChanged || changed[w]
	}
	return total, anyChanged, nil
}
