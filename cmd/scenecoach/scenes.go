package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/scenecoach/internal/app"
	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/internal/subtitle"
)

func newScenesCmd(opts *options) *cobra.Command {
	var (
		maxGap      float64
		minLines    int
		maxDuration float64
		perScene    bool
	)

	cmd := &cobra.Command{
		Use:   "scenes <file>...",
		Short: "Extract practice scenes from subtitle files",
		Long: `Parse one or more SubRip subtitle files and print the resulting scenes as JSON.
A single file prints a scene array; several files print one entry per file.
Use "-" to read from standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("max-gap") {
				cfg.Subtitles.MaxGap = maxGap
			}
			if flags.Changed("min-lines") {
				cfg.Subtitles.MinLines = minLines
			}
			if flags.Changed("max-duration") {
				cfg.Subtitles.MaxDuration = maxDuration
			}
			if flags.Changed("per-scene-difficulty") {
				cfg.Subtitles.PerSceneDifficulty = perScene
			}

			sources := make([]subtitle.Source, len(args))
			for i, path := range args {
				content, err := readInput(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				sources[i] = subtitle.Source{Name: path, Content: string(content)}
			}

			p := app.NewPipeline(cfg.Subtitles, observe.DefaultMetrics())
			results, err := p.ProcessBatch(cmd.Context(), sources)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if len(results) == 1 {
				return enc.Encode(results[0].Scenes)
			}
			return enc.Encode(results)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&maxGap, "max-gap", subtitle.DefaultMaxGap, "largest silence in seconds allowed inside a scene")
	f.IntVar(&minLines, "min-lines", subtitle.DefaultMinLines, "smallest number of lines per scene")
	f.Float64Var(&maxDuration, "max-duration", subtitle.DefaultMaxDuration, "longest scene in seconds")
	f.BoolVar(&perScene, "per-scene-difficulty", false, "rate each scene on its own lines")
	return cmd
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return data, nil
}
