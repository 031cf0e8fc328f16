package subtitle_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/internal/subtitle"
	"github.com/MrWong99/scenecoach/pkg/types"
)

func newPipelineMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// dialogue returns a document of n alternating JOHN/MARY blocks, one second
// each, starting at offset.
func dialogue(offset float64, n int, words string) []string {
	blocks := make([]string, n)
	for i := range blocks {
		speaker := []string{"JOHN", "MARY"}[i%2]
		start := offset + float64(i)
		blocks[i] = caption(i+1, start, start+1, fmt.Sprintf("%s: %s", speaker, words))
	}
	return blocks
}

func TestPipeline_Process(t *testing.T) {
	t.Parallel()

	m, reader := newPipelineMetrics(t)
	p := subtitle.New(subtitle.WithMetrics(m))

	blocks := dialogue(0, 6, "Hello there")
	blocks = append(blocks, dialogue(20, 4, "Too short to keep")...)
	content := document(blocks...)

	scenes, err := p.Process(context.Background(), content)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("scenes = %d, want 1", len(scenes))
	}

	s := scenes[0]
	if len(s.Lines) != 6 {
		t.Errorf("lines = %d, want 6", len(s.Lines))
	}
	if s.DurationSeconds != 6 {
		t.Errorf("DurationSeconds = %v, want 6", s.DurationSeconds)
	}
	if !slices.Equal(s.Characters, []string{"JOHN", "MARY"}) {
		t.Errorf("Characters = %v, want [JOHN MARY]", s.Characters)
	}
	// Difficulty is computed over the whole document, including the dropped
	// trailing fragment.
	if want := subtitle.EstimateDifficulty(subtitle.ExtractLines(content)); s.DifficultyLevel != want {
		t.Errorf("DifficultyLevel = %d, want %d", s.DifficultyLevel, want)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("scene does not validate: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var lines int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name == "scenecoach.subtitle.lines" {
				lines = met.Data.(metricdata.Sum[int64]).DataPoints[0].Value
			}
		}
	}
	if lines != 10 {
		t.Errorf("recorded lines = %d, want 10", lines)
	}
}

func TestPipeline_PerSceneDifficulty(t *testing.T) {
	t.Parallel()

	m, _ := newPipelineMetrics(t)
	slow := dialogue(0, 5, "Hi")
	fast := dialogue(30, 5, "Absolutely extraordinary circumstances demand immediate comprehensive reconsideration")
	content := document(append(slow, fast...)...)

	global, err := subtitle.New(subtitle.WithMetrics(m)).Process(context.Background(), content)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	perScene, err := subtitle.New(subtitle.WithMetrics(m), subtitle.WithPerSceneDifficulty(true)).Process(context.Background(), content)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(global) != 2 || len(perScene) != 2 {
		t.Fatalf("scenes = %d/%d, want 2/2", len(global), len(perScene))
	}

	if global[0].DifficultyLevel != global[1].DifficultyLevel {
		t.Errorf("global levels differ: %d vs %d", global[0].DifficultyLevel, global[1].DifficultyLevel)
	}
	for i, s := range perScene {
		if want := subtitle.EstimateDifficulty(s.Lines); s.DifficultyLevel != want {
			t.Errorf("scene %d level = %d, want %d", i, s.DifficultyLevel, want)
		}
	}
	if perScene[0].DifficultyLevel >= perScene[1].DifficultyLevel {
		t.Errorf("expected the dense scene to score higher: %d vs %d", perScene[0].DifficultyLevel, perScene[1].DifficultyLevel)
	}
}

func TestPipeline_SceneOptions(t *testing.T) {
	t.Parallel()

	m, _ := newPipelineMetrics(t)
	p := subtitle.New(
		subtitle.WithMetrics(m),
		subtitle.WithSceneOptions(subtitle.SceneOptions{MaxGap: 5, MinLines: 2, MaxDuration: 180}),
	)
	scenes, err := p.Process(context.Background(), document(dialogue(0, 3, "Hey")...))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(scenes) != 1 || len(scenes[0].Lines) != 3 {
		t.Errorf("scenes = %+v, want one scene of 3 lines", scenes)
	}
}

func TestPipeline_MergeGap(t *testing.T) {
	t.Parallel()

	// Two JOHN fragments with a one-second pause between them.
	content := document(
		caption(1, 0, 1, "JOHN: Hello"),
		caption(2, 2, 3, "JOHN: again"),
	)
	bounds := subtitle.WithSceneOptions(subtitle.SceneOptions{MaxGap: 5, MinLines: 1, MaxDuration: 180})

	tests := []struct {
		name      string
		opts      []subtitle.Option
		wantLines int
	}{
		{name: "default merges", wantLines: 1},
		{name: "zero gap keeps fragments apart", opts: []subtitle.Option{subtitle.WithMergeGap(0)}, wantLines: 2},
		{name: "negative gap ignored", opts: []subtitle.Option{subtitle.WithMergeGap(-1)}, wantLines: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, _ := newPipelineMetrics(t)
			opts := append([]subtitle.Option{subtitle.WithMetrics(m), bounds}, tt.opts...)
			scenes, err := subtitle.New(opts...).Process(context.Background(), content)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if len(scenes) != 1 || len(scenes[0].Lines) != tt.wantLines {
				t.Errorf("scenes = %+v, want one scene of %d lines", scenes, tt.wantLines)
			}
		})
	}
}

func TestPipeline_EmptyContent(t *testing.T) {
	t.Parallel()

	m, _ := newPipelineMetrics(t)
	scenes, err := subtitle.New(subtitle.WithMetrics(m)).Process(context.Background(), "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if scenes == nil || len(scenes) != 0 {
		t.Errorf("scenes = %#v, want empty slice", scenes)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	t.Parallel()

	m, _ := newPipelineMetrics(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := subtitle.New(subtitle.WithMetrics(m)).Process(ctx, document(dialogue(0, 6, "Hi")...))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBuildScene(t *testing.T) {
	t.Parallel()

	lines := []types.DialogueLine{
		{Character: "MARY", Text: "a", StartTime: 2, EndTime: 3},
		{Character: "", Text: "b", StartTime: 3, EndTime: 4},
		{Character: "JOHN", Text: "c", StartTime: 4, EndTime: 7.5},
		{Character: "MARY", Text: "d", StartTime: 8, EndTime: 9},
	}
	s := subtitle.BuildScene(lines, 3)

	if !slices.Equal(s.Characters, []string{"JOHN", "MARY"}) {
		t.Errorf("Characters = %v, want [JOHN MARY]", s.Characters)
	}
	if s.DurationSeconds != 7 {
		t.Errorf("DurationSeconds = %v, want 7", s.DurationSeconds)
	}
	if s.DifficultyLevel != 3 {
		t.Errorf("DifficultyLevel = %d, want 3", s.DifficultyLevel)
	}

	lines[0].Text = "changed"
	if s.Lines[0].Text != "a" {
		t.Error("BuildScene shares its line storage with the caller")
	}
}

func TestPipeline_ProcessBatch(t *testing.T) {
	t.Parallel()

	m, _ := newPipelineMetrics(t)
	p := subtitle.New(subtitle.WithMetrics(m), subtitle.WithBatchWorkers(2))

	sources := []subtitle.Source{
		{Name: "first.srt", Content: document(dialogue(0, 6, "One")...)},
		{Name: "empty.srt", Content: ""},
		{Name: "third.srt", Content: document(append(dialogue(0, 5, "Three"), dialogue(60, 5, "Three")...)...)},
		{Name: "fourth.srt", Content: document(dialogue(0, 7, "Four")...)},
	}

	results, err := p.ProcessBatch(context.Background(), sources)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	wantScenes := []int{1, 0, 2, 1}
	if len(results) != len(sources) {
		t.Fatalf("results = %d, want %d", len(results), len(sources))
	}
	for i, r := range results {
		if r.Name != sources[i].Name {
			t.Errorf("result %d name = %q, want %q", i, r.Name, sources[i].Name)
		}
		if len(r.Scenes) != wantScenes[i] {
			t.Errorf("%s: scenes = %d, want %d", r.Name, len(r.Scenes), wantScenes[i])
		}
	}
}

func TestPipeline_ProcessBatchCancelled(t *testing.T) {
	t.Parallel()

	m, _ := newPipelineMetrics(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := subtitle.New(subtitle.WithMetrics(m)).ProcessBatch(ctx, []subtitle.Source{{Name: "a.srt", Content: "x"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
