package subtitle

import "github.com/MrWong99/scenecoach/pkg/types"

// Scene grouping defaults.
const (
	DefaultMaxGap      = 5.0
	DefaultMinLines    = 5
	DefaultMaxDuration = 180.0
)

// SceneOptions bounds the scenes produced by [GroupScenes]. Every field is
// taken literally: a zero MaxGap keeps only touching lines together. Start
// from [DefaultSceneOptions] to override single fields.
type SceneOptions struct {
	// MaxGap is the largest silence (seconds) between the end of the previous
	// line and the start of the next one within a scene.
	MaxGap float64

	// MinLines is the smallest scene that is kept. Shorter candidates are
	// dropped.
	MinLines int

	// MaxDuration is the longest span (seconds) a scene may cover.
	MaxDuration float64
}

// DefaultSceneOptions returns the default scene bounds.
func DefaultSceneOptions() SceneOptions {
	return SceneOptions{
		MaxGap:      DefaultMaxGap,
		MinLines:    DefaultMinLines,
		MaxDuration: DefaultMaxDuration,
	}
}

// GroupScenes greedily groups ordered lines into scenes. A line joins the
// current scene when the gap since the scene's last line is at most MaxGap and
// the scene would still span at most MaxDuration; otherwise the current scene
// is closed. Closed scenes with fewer than MinLines lines are discarded.
func GroupScenes(lines []types.DialogueLine, opts SceneOptions) [][]types.DialogueLine {
	scenes := [][]types.DialogueLine{}
	if len(lines) == 0 {
		return scenes
	}

	flush := func(scene []types.DialogueLine) {
		if len(scene) >= opts.MinLines {
			scenes = append(scenes, scene)
		}
	}

	current := []types.DialogueLine{lines[0]}
	for _, line := range lines[1:] {
		gap := line.StartTime - current[len(current)-1].EndTime
		span := line.EndTime - current[0].StartTime
		if gap <= opts.MaxGap && span <= opts.MaxDuration {
			current = append(current, line)
			continue
		}
		flush(current)
		current = []types.DialogueLine{line}
	}
	flush(current)
	return scenes
}
