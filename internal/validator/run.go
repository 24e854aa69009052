package validator

import (
	"log/slog"

	"github.com/jwebster45206/scene-lint/internal/loader"
	"github.com/jwebster45206/scene-lint/internal/report"
)

// Sources locates every content source of a narrative
type Sources struct {
	ScenesDir   string
	ItemsPath   string
	EndingsPath string
	AudioPath   string
}

// Load reads all sources. A failing source is recorded in LoadErrors and
// replaced by an empty one; the remaining sources are still loaded.
func Load(src Sources, logger *slog.Logger) Input {
	l := loader.New(logger)

	scenes, errs := l.LoadScenes(src.ScenesDir)
	in := Input{Scenes: scenes, LoadErrors: errs}

	var err error
	if in.Items, err = l.LoadItems(src.ItemsPath); err != nil {
		in.LoadErrors = append(in.LoadErrors, err.Error())
	}
	if in.Endings, err = l.LoadEndings(src.EndingsPath); err != nil {
		in.LoadErrors = append(in.LoadErrors, err.Error())
	}
	if in.Audio, err = l.LoadAudioManifest(src.AudioPath); err != nil {
		in.LoadErrors = append(in.LoadErrors, err.Error())
	}
	return in
}

// Run loads every source and validates it in one pass
func Run(src Sources, opts Options, logger *slog.Logger) *report.Report {
	if logger == nil {
		logger = slog.Default()
	}
	return Validate(Load(src, logger), opts, logger)
}
