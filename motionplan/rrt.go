package motionplan

import (
	"context"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/referenceframe"
)

var errPlannerFailed = errors.New("motion planner failed to find path")

// configSpace is what the RRT needs to know about the space it searches.
type configSpace interface {
	distance(a, b []referenceframe.Input) float64
	interpolate(a, b []referenceframe.Input, by float64) []referenceframe.Input
	sample(rnd *rand.Rand) []referenceframe.Input
	valid(ctx context.Context, q []referenceframe.Input) (bool, error)
}

// node is a configuration in one of the RRT trees.
type node interface {
	Q() []referenceframe.Input
}

type basicNode struct {
	q []referenceframe.Input
}

func newNode(q []referenceframe.Input) node {
	return &basicNode{q: q}
}

func (n *basicNode) Q() []referenceframe.Input {
	return n.q
}

// rrtMap maps each node to its parent. Roots map to nil.
type rrtMap map[node]node

type nodePair struct{ a, b node }

type rrtOptions struct {
	planIter   int
	goalBias   float64
	resolution float64
	smoothIter int
	timeout    time.Duration
	seed       int64
}

func newRRTOptions(opts *PlannerOptions) rrtOptions {
	return rrtOptions{
		planIter:   opts.PlanIter,
		goalBias:   opts.GoalBias,
		resolution: opts.Resolution,
		smoothIter: opts.SmoothIter,
		timeout:    opts.timeout(),
		seed:       opts.RandomSeed,
	}
}

// rrtConnect is a bidirectional RRT over a configSpace. It grows one tree greedily toward a sample,
// then tries to connect the other tree to the node just added, swapping trees every iteration.
type rrtConnect struct {
	space  configSpace
	opts   rrtOptions
	clock  clock.Clock
	logger logging.Logger

	randseed *rand.Rand
}

func newRRTConnect(space configSpace, opts rrtOptions, clk clock.Clock, logger logging.Logger) *rrtConnect {
	return &rrtConnect{
		space:  space,
		opts:   opts,
		clock:  clk,
		logger: logger,
		//nolint:gosec
		randseed: rand.New(rand.NewSource(opts.seed)),
	}
}

// plan returns a collision free sequence of configurations from start to goal, or errPlannerFailed
// when the iteration budget or timeout is exhausted. start and goal are assumed valid.
func (mp *rrtConnect) plan(ctx context.Context, start, goal []referenceframe.Input) ([][]referenceframe.Input, error) {
	deadline := mp.clock.Now().Add(mp.opts.timeout)

	startMap := rrtMap{newNode(start): nil}
	goalMap := rrtMap{newNode(goal): nil}
	map1, map2 := startMap, goalMap

	// for the first iteration, we try the 0.5 interpolation between seed and goal
	target := mp.space.interpolate(start, goal, 0.5)

	for i := 0; i < mp.opts.planIter; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mp.opts.timeout > 0 && !mp.clock.Now().Before(deadline) {
			mp.logger.CDebugf(ctx, "rrt timed out after %d iterations", i)
			return nil, errPlannerFailed
		}

		near1 := nearestNeighbor(mp.space, target, map1)
		reached1, _, err := mp.extend(ctx, map1, near1, target)
		if err != nil {
			return nil, err
		}
		if reached1 != nil {
			near2 := nearestNeighbor(mp.space, reached1.Q(), map2)
			reached2, connected, err := mp.extend(ctx, map2, near2, reached1.Q())
			if err != nil {
				return nil, err
			}
			if connected {
				mp.logger.CDebugf(ctx, "rrt connected trees after %d iterations", i)
				pair := nodePair{reached1, reached2}
				if _, ok := startMap[reached2]; ok {
					pair = nodePair{reached2, reached1}
				}
				path := extractPath(startMap, goalMap, pair)
				return mp.smoothPath(ctx, path)
			}
		}

		target = mp.sample(goal)
		map1, map2 = map2, map1
	}
	return nil, errPlannerFailed
}

func (mp *rrtConnect) sample(goal []referenceframe.Input) []referenceframe.Input {
	if mp.randseed.Float64() < mp.opts.goalBias {
		return goal
	}
	return mp.space.sample(mp.randseed)
}

// extend walks from near toward target in resolution sized steps, stopping at the first invalid
// step. Every valid step is added to the tree as a child of the one before, so tree edges are never
// longer than one step. It returns the last node added, with whether it is the target itself. A nil
// node means not even the first step was valid.
func (mp *rrtConnect) extend(
	ctx context.Context,
	tree rrtMap,
	near node,
	target []referenceframe.Input,
) (node, bool, error) {
	steps := mp.stepCount(near.Q(), target)
	parent := near
	var last node
	for i := 1; i <= steps; i++ {
		q := mp.space.interpolate(near.Q(), target, float64(i)/float64(steps))
		if i == steps {
			// keep the exact target so the two trees meet on the same configuration
			q = target
		}
		ok, err := mp.space.valid(ctx, q)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return last, false, nil
		}
		last = newNode(q)
		tree[last] = parent
		parent = last
	}
	return last, true, nil
}

// checkSegment checks every step from a to b. When all are valid it returns them, excluding a and
// ending with b.
func (mp *rrtConnect) checkSegment(ctx context.Context, a, b []referenceframe.Input) ([][]referenceframe.Input, bool, error) {
	steps := mp.stepCount(a, b)
	out := make([][]referenceframe.Input, 0, steps)
	for i := 1; i <= steps; i++ {
		q := mp.space.interpolate(a, b, float64(i)/float64(steps))
		if i == steps {
			q = b
		}
		ok, err := mp.space.valid(ctx, q)
		if err != nil || !ok {
			return nil, false, err
		}
		out = append(out, q)
	}
	return out, true, nil
}

// stepCount always leaves consecutive steps strictly closer than the resolution.
func (mp *rrtConnect) stepCount(a, b []referenceframe.Input) int {
	return int(math.Ceil(mp.space.distance(a, b)/mp.opts.resolution)) + 1
}

// smoothPath tries to replace runs of waypoints with a direct segment, at most smoothIter times.
func (mp *rrtConnect) smoothPath(ctx context.Context, path [][]referenceframe.Input) ([][]referenceframe.Input, error) {
	toIter := int(math.Min(float64(len(path)*len(path)), float64(mp.opts.smoothIter)))
	for iter := 0; iter < toIter && len(path) > 2; iter++ {
		select {
		case <-ctx.Done():
			return path, nil
		default:
		}
		// Intn will return an int in the half-open interval [0,n)
		i := mp.randseed.Intn(len(path) - 2)
		j := i + 2 + mp.randseed.Intn(len(path)-i-2)
		shortcut, ok, err := mp.checkSegment(ctx, path[i], path[j])
		if err != nil {
			return nil, err
		}
		// only take shortcuts with fewer waypoints than the run they replace
		if ok && len(shortcut) < j-i {
			newPath := append([][]referenceframe.Input{}, path[:i+1]...)
			newPath = append(newPath, shortcut...)
			path = append(newPath, path[j+1:]...)
		}
	}
	return path, nil
}

// nearestNeighbor returns the node in rrtMap closest to seed.
func nearestNeighbor(space configSpace, seed []referenceframe.Input, tree rrtMap) node {
	bestDist := math.Inf(1)
	var best node
	for k := range tree {
		dist := space.distance(seed, k.Q())
		if dist < bestDist {
			bestDist = dist
			best = k
		}
	}
	return best
}

// extractPath walks both trees from the connecting pair back to their roots. pair.a is in the
// start tree and pair.b in the goal tree; they hold the same configuration.
func extractPath(startMap, goalMap rrtMap, pair nodePair) [][]referenceframe.Input {
	path := [][]referenceframe.Input{}
	for n := pair.a; n != nil; n = startMap[n] {
		path = append(path, n.Q())
	}
	slices.Reverse(path)
	for n := goalMap[pair.b]; n != nil; n = goalMap[n] {
		path = append(path, n.Q())
	}
	return path
}
