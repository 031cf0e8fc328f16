package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/scenecoach/internal/app"
	"github.com/MrWong99/scenecoach/internal/config"
	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/internal/practice"
	"github.com/MrWong99/scenecoach/pkg/types"
)

func newScoreCmd(opts *options) *cobra.Command {
	var (
		scenePath      string
		audioPath      string
		format         string
		transcriptPath string
		language       string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Grade a practice attempt against a scene",
		Long: `Grade a recorded attempt at a scene and print the result as JSON.
The attempt is either an audio file, transcribed through the configured
speech-to-text providers, or a transcription JSON document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (audioPath == "") == (transcriptPath == "") {
				return errors.New("exactly one of --audio or --transcript is required")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			var scene types.Scene
			if err := readJSON(cmd, scenePath, &scene); err != nil {
				return fmt.Errorf("scene: %w", err)
			}

			m := observe.DefaultMetrics()
			var res *types.PracticeResult
			if transcriptPath != "" {
				var tr types.Transcription
				if err := readJSON(cmd, transcriptPath, &tr); err != nil {
					return fmt.Errorf("transcript: %w", err)
				}
				svc := app.NewPracticeService(cfg, nil, m)
				res, err = svc.ScoreTranscription(cmd.Context(), scene, tr)
			} else {
				res, err = scoreAudio(cmd, cfg, m, scene, audioPath, format, language)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&scenePath, "scene", "", "scene JSON file (\"-\" for stdin)")
	f.StringVar(&audioPath, "audio", "", "recorded attempt")
	f.StringVar(&format, "format", "", "audio format (default: from the file extension)")
	f.StringVar(&transcriptPath, "transcript", "", "transcription JSON file instead of audio")
	f.StringVar(&language, "language", "", "language hint for the speech-to-text provider")
	_ = cmd.MarkFlagRequired("scene")
	return cmd
}

func scoreAudio(cmd *cobra.Command, cfg *config.Config, m *observe.Metrics, scene types.Scene, path, format, language string) (*types.PracticeResult, error) {
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	fb, err := buildSTT(cfg, reg, m)
	if err != nil {
		return nil, err
	}

	audio, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	return app.NewPracticeService(cfg, fb, m).Practice(cmd.Context(), practice.Attempt{
		Scene:    scene,
		Audio:    audio,
		Format:   format,
		Language: language,
	})
}

func readJSON(cmd *cobra.Command, path string, v any) error {
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %q: %w", path, err)
	}
	return nil
}
