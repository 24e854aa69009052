package validator

import (
	"log/slog"

	"github.com/jwebster45206/scene-lint/internal/report"
	"github.com/jwebster45206/scene-lint/pkg/content"
)

// DefaultExternalFlags are flags the game sets from code rather than content data
var DefaultExternalFlags = []string{"survived_until_dawn"}

const (
	DefaultImagePrefix    = "/images/"
	DefaultRawAudioPrefix = "/"
)

// Options tunes the rule battery
type Options struct {
	ExternalFlags  []string // Flags set outside content data
	PublicDir      string   // Managed asset root that image references resolve against
	ImagePrefix    string   // Image references under this prefix must exist in PublicDir
	RawAudioPrefix string   // Audio references with this prefix are file paths, not manifest keys
	StrictItems    bool     // Report item catalog misses as errors instead of warnings
}

func DefaultOptions() Options {
	return Options{
		ExternalFlags:  append([]string(nil), DefaultExternalFlags...),
		ImagePrefix:    DefaultImagePrefix,
		RawAudioPrefix: DefaultRawAudioPrefix,
	}
}

// Validator runs the rule battery once. Flag bookkeeping lives here, so a
// Validator must not be reused; create one per run with New.
type Validator struct {
	idx    *Index
	opts   Options
	logger *slog.Logger

	report    *report.Report
	flagsSet  content.StringSet
	flagsUsed content.StringSet
	watched   map[string]string // flag watched by on_storyFlag -> first scene source watching it
}

func New(in Input, opts Options, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ImagePrefix == "" {
		opts.ImagePrefix = DefaultImagePrefix
	}
	if opts.RawAudioPrefix == "" {
		opts.RawAudioPrefix = DefaultRawAudioPrefix
	}

	r := report.New()
	for _, msg := range in.LoadErrors {
		r.AddError(msg)
	}

	return &Validator{
		idx:       newIndex(in, opts),
		opts:      opts,
		logger:    logger,
		report:    r,
		flagsSet:  content.NewStringSet(),
		flagsUsed: content.NewStringSet(),
		watched:   make(map[string]string),
	}
}

// Validate evaluates every rule and returns the report.
// Watched-flag, ending and dead-flag rules run last because they read the flag accumulators.
func (v *Validator) Validate() *report.Report {
	for _, doc := range v.idx.scenes.Docs {
		v.validateScene(doc.Source, &doc.Scene)
	}
	v.validateWatchedFlags()
	v.validateEndings()
	v.validateUnusedFlags()

	v.logger.Debug("Validation complete",
		"scenes", len(v.idx.scenes.Docs),
		"flags_set", len(v.flagsSet),
		"flags_used", len(v.flagsUsed),
		"errors", len(v.report.Errors),
		"warnings", len(v.report.Warnings))
	return v.report
}

// Validate is a convenience for New(in, opts, logger).Validate()
func Validate(in Input, opts Options, logger *slog.Logger) *report.Report {
	return New(in, opts, logger).Validate()
}
