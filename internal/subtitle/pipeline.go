// Package subtitle turns raw SubRip-style caption text into practice scenes.
//
// The pipeline runs in four stages, each available on its own:
//
//  1. [ExtractLines] splits the content into caption blocks, parses each
//     timing line ([ParseTimestamp]), attributes speakers per physical line
//     ([AttributeBlock]) and cleans the text.
//  2. [MergeLines] joins consecutive same-speaker fragments that are less than
//     the merge gap apart.
//  3. [EstimateDifficulty] scores the extracted lines on a 1–5 scale.
//  4. [GroupScenes] greedily groups lines into bounded scenes.
//
// [Pipeline] composes the stages and adds logging, metrics and tracing. All
// stage functions are pure and safe for concurrent use; a [Pipeline] is
// read-only after construction.
package subtitle

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/pkg/types"
)

// DefaultBatchWorkers bounds [Pipeline.ProcessBatch] concurrency.
const DefaultBatchWorkers = 4

// Pipeline converts subtitle content into [types.Scene] records.
type Pipeline struct {
	scenes        SceneOptions
	mergeGap      float64
	perSceneLevel bool
	batchWorkers  int
	metrics       *observe.Metrics
}

// Option is a functional option for configuring a [Pipeline].
type Option func(*Pipeline)

// WithSceneOptions sets the scene grouping bounds. Default:
// [DefaultSceneOptions].
func WithSceneOptions(o SceneOptions) Option {
	return func(p *Pipeline) {
		p.scenes = o
	}
}

// WithMergeGap sets the same-speaker merge gap in seconds. Zero merges only
// overlapping fragments; negative values are ignored. Default: 2.0.
func WithMergeGap(seconds float64) Option {
	return func(p *Pipeline) {
		if seconds >= 0 {
			p.mergeGap = seconds
		}
	}
}

// WithPerSceneDifficulty makes the pipeline score each scene on its own lines
// instead of assigning one level computed over the whole file. Off by default.
func WithPerSceneDifficulty(enabled bool) Option {
	return func(p *Pipeline) {
		p.perSceneLevel = enabled
	}
}

// WithBatchWorkers bounds the number of files [Pipeline.ProcessBatch] handles
// at once. Non-positive values are ignored. Default: [DefaultBatchWorkers].
func WithBatchWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchWorkers = n
		}
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New returns a [Pipeline] configured with opts.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		scenes:       DefaultSceneOptions(),
		mergeGap:     DefaultMergeGap,
		batchWorkers: DefaultBatchWorkers,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Process converts content into scenes. Malformed content never fails: bad
// timings collapse to zero and unusable blocks are skipped. The only error is
// ctx.Err() when the context is already done.
//
// Unless per-scene difficulty is enabled, every scene carries the same level,
// computed once over all extracted lines.
func (p *Pipeline) Process(ctx context.Context, content string) ([]types.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := observe.StartSpan(ctx, "subtitle.Process")
	defer span.End()
	start := time.Now()

	lines, stats := extract(content, p.mergeGap)
	level := EstimateDifficulty(lines)
	groups := GroupScenes(lines, p.scenes)

	out := make([]types.Scene, 0, len(groups))
	for _, g := range groups {
		sceneLevel := level
		if p.perSceneLevel {
			sceneLevel = EstimateDifficulty(g)
		}
		out = append(out, BuildScene(g, sceneLevel))
	}

	span.SetAttributes(
		attribute.Int("subtitle.blocks", stats.Blocks),
		attribute.Int("subtitle.lines", len(lines)),
		attribute.Int("subtitle.scenes", len(out)),
		attribute.Int("subtitle.difficulty", level),
	)
	p.metrics.RecordSubtitleRun(ctx, len(lines), len(out), time.Since(start))

	observe.Logger(ctx).Debug("subtitle content processed",
		"blocks", stats.Blocks,
		"short_blocks", stats.ShortBlocks,
		"malformed_timings", stats.MalformedTimings,
		"lines", len(lines),
		"scenes", len(out),
		"difficulty", level,
	)
	return out, nil
}

// BuildScene wraps an ordered, non-empty group of lines into a [types.Scene]
// with the given difficulty level.
func BuildScene(lines []types.DialogueLine, level int) types.Scene {
	seen := make(map[string]struct{}, len(lines))
	characters := []string{}
	for _, l := range lines {
		if l.Character == "" {
			continue
		}
		if _, ok := seen[l.Character]; ok {
			continue
		}
		seen[l.Character] = struct{}{}
		characters = append(characters, l.Character)
	}
	slices.Sort(characters)

	var duration float64
	if len(lines) > 0 {
		duration = lines[len(lines)-1].EndTime - lines[0].StartTime
	}
	return types.Scene{
		Lines:           slices.Clone(lines),
		DurationSeconds: duration,
		DifficultyLevel: level,
		Characters:      characters,
	}
}
