package subtitle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/scenecoach/pkg/types"
)

// Source is one named subtitle document submitted to [Pipeline.ProcessBatch].
type Source struct {
	// Name identifies the document in results and log output (typically a
	// file path or a movie ID).
	Name string `json:"name"`

	// Content is the raw subtitle text.
	Content string `json:"content"`
}

// BatchResult holds the scenes produced for one [Source].
type BatchResult struct {
	Name   string
	Scenes []types.Scene
}

// ProcessBatch runs [Pipeline.Process] over sources concurrently, bounded by
// the configured worker count. Results are returned in the order of sources.
//
// Process itself cannot fail on content, so the only error is context
// cancellation; in that case the partial results are discarded.
func (p *Pipeline) ProcessBatch(ctx context.Context, sources []Source) ([]BatchResult, error) {
	results := make([]BatchResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.batchWorkers)
	for i, src := range sources {
		g.Go(func() error {
			scenes, err := p.Process(gctx, src.Content)
			if err != nil {
				return fmt.Errorf("subtitle: process %q: %w", src.Name, err)
			}
			results[i] = BatchResult{Name: src.Name, Scenes: scenes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
