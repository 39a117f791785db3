// Package bench drives an AVL tree through a seeded random workload and
// collects the numbers the avlctl bench report is built from.
package bench

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/avltree/pkg/avl"
	"github.com/Sumatoshi-tech/avltree/pkg/config"
	"github.com/Sumatoshi-tech/avltree/pkg/observability"
)

const tracerName = "avltree/bench"

// maxSamples bounds the height samples taken during the insert phase.
const maxSamples = 512

// ErrVerify is returned when a periodic invariant check fails.
var ErrVerify = errors.New("tree verification failed")

// Phase names.
const (
	PhaseInsert = "insert"
	PhaseRemove = "remove"
)

// Options configures a bench run.
type Options struct {
	Config config.BenchConfig
	// Metrics is optional.
	Metrics *observability.TreeMetrics
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Progress, when set, is called with the number of operations done since
	// the previous call.
	Progress func(done int)
	// OnPhase, when set, is called as each phase starts.
	OnPhase func(phase string)
}

// Sample is the tree shape observed after an operation.
type Sample struct {
	Phase  string
	Op     int
	Size   int
	Height int
}

// Result summarizes a bench run. It holds no reference to the tree so that
// it can be saved and rendered again later.
type Result struct {
	Config  config.BenchConfig
	Stats   avl.Stats
	Samples []Sample

	Operations    int
	Removed       int
	Verifications int
	Len           int
	Height        int

	InsertTime time.Duration
	RemoveTime time.Duration

	// ArenaSize is the number of allocated node slots.
	ArenaSize int
	// CompressedSize is the hibernated size of the link columns; zero unless
	// hibernation ran.
	CompressedSize int
	// Hibernated reports whether the arena was actually compressed.
	Hibernated bool
}

type runner struct {
	opts    Options
	tree    *avl.Tree[int, int]
	result  *Result
	prev    avl.Stats
	every   int
	pending int
	ops     int
}

// Run executes the workload described by opts.Config.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := opts.Config

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("bench config: %w", err)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "avltree.bench",
		trace.WithAttributes(
			attribute.Int("bench.keys", cfg.Keys),
			attribute.Int("bench.key_space", cfg.KeySpace),
			attribute.Int64("bench.seed", cfg.Seed),
			attribute.Float64("bench.remove_ratio", cfg.RemoveRatio),
		))
	defer span.End()

	allocator := avl.NewAllocator[int, int]()
	allocator.HibernationThreshold = cfg.HibernationThreshold

	run := &runner{
		opts:   opts,
		tree:   avl.NewWithAllocator(allocator, cmp.Compare[int]),
		result: &Result{Config: cfg},
		every:  max(1, cfg.Keys/maxSamples),
	}

	//nolint:gosec // deterministic workload, not security sensitive.
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)))

	start := time.Now()

	err = run.insertPhase(run.enter(ctx, PhaseInsert), rng)
	run.result.InsertTime = time.Since(start)

	if err != nil {
		return nil, err
	}

	start = time.Now()

	err = run.removePhase(run.enter(ctx, PhaseRemove), rng)
	run.result.RemoveTime = time.Since(start)

	if err != nil {
		return nil, err
	}

	err = run.verify()
	if err != nil {
		return nil, err
	}

	if cfg.Hibernate {
		err = run.hibernate()
		if err != nil {
			return nil, err
		}
	}

	run.flushProgress()

	result := run.result
	result.Stats = run.tree.Stats()
	result.Len = run.tree.Len()
	result.Height = run.tree.Height()
	result.ArenaSize = allocator.Size()

	span.SetAttributes(
		attribute.Int("bench.len", result.Len),
		attribute.Int("bench.height", result.Height),
		attribute.Int64("bench.rotations", result.Stats.Rotations),
	)

	opts.Logger.InfoContext(ctx, "bench finished",
		"operations", result.Operations,
		"len", result.Len,
		"height", result.Height,
		"rotations", result.Stats.Rotations,
		"verifications", result.Verifications)

	return result, nil
}

// enter tags ctx with phase so that logs below it carry it.
func (run *runner) enter(ctx context.Context, phase string) context.Context {
	if run.opts.OnPhase != nil {
		run.opts.OnPhase(phase)
	}

	ctx = observability.WithPhase(ctx, phase)

	run.opts.Logger.DebugContext(ctx, "phase started", "operations", run.ops)

	return ctx
}

func (run *runner) insertPhase(ctx context.Context, rng *rand.Rand) error {
	for range run.opts.Config.Keys {
		key := rng.IntN(run.opts.Config.KeySpace)

		begin := time.Now()
		added := run.tree.Insert(key, key)
		elapsed := time.Since(begin)

		op := observability.OpInsert
		if !added {
			op = observability.OpOverwrite
		}

		err := run.afterOp(ctx, PhaseInsert, op, elapsed)
		if err != nil {
			return err
		}
	}

	return nil
}

func (run *runner) removePhase(ctx context.Context, rng *rand.Rand) error {
	keys := run.tree.Keys()
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	toRemove := int(float64(len(keys)) * run.opts.Config.RemoveRatio)

	for _, key := range keys[:toRemove] {
		begin := time.Now()
		removed := run.tree.Remove(key)
		elapsed := time.Since(begin)

		if !removed {
			return fmt.Errorf("%w: key %d vanished before removal", ErrVerify, key)
		}

		run.result.Removed++

		err := run.afterOp(ctx, PhaseRemove, observability.OpRemove, elapsed)
		if err != nil {
			return err
		}
	}

	return nil
}

func (run *runner) afterOp(ctx context.Context, phase, op string, elapsed time.Duration) error {
	run.ops++
	run.pending++
	run.result.Operations++

	if run.opts.Metrics != nil {
		run.opts.Metrics.RecordOp(ctx, op, elapsed)
	}

	if run.ops%run.every == 0 {
		run.sample(ctx, phase)

		ctxErr := ctx.Err()
		if ctxErr != nil {
			return fmt.Errorf("bench interrupted after %d operations: %w", run.ops, ctxErr)
		}
	}

	verifyEvery := run.opts.Config.VerifyEvery
	if verifyEvery > 0 && run.ops%verifyEvery == 0 {
		return run.verify()
	}

	return nil
}

func (run *runner) sample(ctx context.Context, phase string) {
	height := run.tree.Height()
	size := run.tree.Len()

	run.result.Samples = append(run.result.Samples, Sample{
		Phase:  phase,
		Op:     run.ops,
		Size:   size,
		Height: height,
	})

	if run.opts.Metrics != nil {
		cur := run.tree.Stats()
		run.opts.Metrics.RecordStats(ctx, run.prev, cur, height, size)
		run.prev = cur
	}

	run.flushProgress()
}

func (run *runner) flushProgress() {
	if run.opts.Progress != nil && run.pending > 0 {
		run.opts.Progress(run.pending)
	}

	run.pending = 0
}

func (run *runner) verify() error {
	run.result.Verifications++

	err := run.tree.Verify()
	if err != nil {
		return fmt.Errorf("%w after %d operations: %w", ErrVerify, run.ops, err)
	}

	return nil
}

func (run *runner) hibernate() error {
	allocator := run.tree.Allocator()

	allocator.Hibernate()

	run.result.Hibernated = allocator.Hibernated()
	run.result.CompressedSize = allocator.CompressedSize()

	allocator.Boot()

	run.opts.Logger.Debug("arena hibernated",
		"slots", allocator.Size(),
		"compressed_bytes", run.result.CompressedSize,
		"hibernated", run.result.Hibernated)

	return run.verify()
}
