package types_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/scenecoach/pkg/types"
)

func TestDialogueLine_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line types.DialogueLine
		want error
	}{
		{name: "valid", line: types.DialogueLine{StartTime: 1, EndTime: 2}},
		{name: "zero duration", line: types.DialogueLine{StartTime: 3, EndTime: 3}},
		{name: "negative start", line: types.DialogueLine{StartTime: -1, EndTime: 2}, want: types.ErrNegativeStart},
		{name: "end before start", line: types.DialogueLine{StartTime: 5, EndTime: 4}, want: types.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.line.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDialogueLine_Duration(t *testing.T) {
	t.Parallel()

	if got := (types.DialogueLine{StartTime: 1.5, EndTime: 3}).Duration(); got != 1.5 {
		t.Errorf("Duration() = %v, want 1.5", got)
	}
}

func TestScene_Validate(t *testing.T) {
	t.Parallel()

	lines := []types.DialogueLine{
		{Character: "JOHN", Text: "Hello", StartTime: 0, EndTime: 2},
		{Character: "MARY", Text: "Hi", StartTime: 2, EndTime: 4},
	}

	tests := []struct {
		name  string
		scene types.Scene
		want  error
	}{
		{name: "valid", scene: types.Scene{Lines: lines, DurationSeconds: 4, DifficultyLevel: 3}},
		{name: "within tolerance", scene: types.Scene{Lines: lines, DurationSeconds: 4.9, DifficultyLevel: 1}},
		{name: "empty", scene: types.Scene{DifficultyLevel: 1}, want: types.ErrEmptyScene},
		{name: "difficulty zero", scene: types.Scene{Lines: lines, DurationSeconds: 4}, want: types.ErrDifficultyRange},
		{name: "difficulty six", scene: types.Scene{Lines: lines, DurationSeconds: 4, DifficultyLevel: 6}, want: types.ErrDifficultyRange},
		{name: "duration mismatch", scene: types.Scene{Lines: lines, DurationSeconds: 10, DifficultyLevel: 2}, want: types.ErrDurationMismatch},
		{
			name: "invalid line",
			scene: types.Scene{
				Lines:           []types.DialogueLine{{StartTime: 2, EndTime: 1}, {StartTime: 1, EndTime: 3}},
				DurationSeconds: 1,
				DifficultyLevel: 2,
			},
			want: types.ErrEndBeforeStart,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.scene.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
