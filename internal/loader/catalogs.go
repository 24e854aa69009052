package loader

import (
	"fmt"
	"regexp"

	"github.com/jwebster45206/scene-lint/pkg/content"
)

// The catalog sources are declarative source text, not data documents. Extraction is
// by field label: literal string tokens next to a recognisable label are collected and
// everything else is ignored, so the files need not be syntactically valid.

var (
	itemIDPattern      = regexp.MustCompile(`\bid\s*:\s*["']([^"']+)["']`)
	inspectFlagPattern = regexp.MustCompile(`\bonInspectFlag\s*:\s*["']([^"']+)["']`)
	quotedPattern      = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	manifestPattern    = regexp.MustCompile(`(?s)["']([^"']+)["']\s*:\s*\{((?:[^{}]|\{[^{}]*\})*)\}`) // entry body may hold one level of nested objects
	fileFieldPattern   = regexp.MustCompile(`\bfile\s*:\s*["']([^"']*)["']`)
)

// listFieldPattern matches `label: [ ... ]` with a body that may span lines
func listFieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)\b` + regexp.QuoteMeta(label) + `\s*:\s*\[([^\]]*)\]`)
}

var (
	requiredFlagsPattern  = listFieldPattern("requiredFlags")
	forbiddenFlagsPattern = listFieldPattern("forbiddenFlags")
	requiredItemsPattern  = listFieldPattern("requiredItems")
)

// LoadItems reads the item catalog source
func (l *Loader) LoadItems(path string) (*content.ItemCatalog, error) {
	data, err := readSource(path)
	if err != nil {
		return content.NewItemCatalog(), fmt.Errorf("cannot read item source %s: %w", path, err)
	}
	items := ParseItems(data)
	l.logger.Debug("Loaded item catalog", "path", path, "items", len(items.IDs), "inspect_flags", len(items.InspectFlags))
	return items, nil
}

// LoadEndings reads the ending catalog source
func (l *Loader) LoadEndings(path string) (*content.EndingRefs, error) {
	data, err := readSource(path)
	if err != nil {
		return content.NewEndingRefs(), fmt.Errorf("cannot read ending source %s: %w", path, err)
	}
	refs := ParseEndings(data)
	l.logger.Debug("Loaded ending catalog", "path", path,
		"required_flags", len(refs.RequiredFlags),
		"forbidden_flags", len(refs.ForbiddenFlags),
		"required_items", len(refs.RequiredItems))
	return refs, nil
}

// LoadAudioManifest reads the audio manifest source
func (l *Loader) LoadAudioManifest(path string) (content.AudioManifest, error) {
	data, err := readSource(path)
	if err != nil {
		return content.AudioManifest{}, fmt.Errorf("cannot read audio source %s: %w", path, err)
	}
	manifest := ParseAudioManifest(data)
	l.logger.Debug("Loaded audio manifest", "path", path, "keys", len(manifest))
	return manifest, nil
}

// ParseItems extracts `id: "..."` declarations and inventory inspect flags
func ParseItems(src []byte) *content.ItemCatalog {
	items := content.NewItemCatalog()
	for _, m := range itemIDPattern.FindAllSubmatch(src, -1) {
		items.IDs.Add(string(m[1]))
	}
	for _, m := range inspectFlagPattern.FindAllSubmatch(src, -1) {
		items.InspectFlags.Add(string(m[1]))
	}
	return items
}

// ParseEndings collects the quoted strings of every requiredFlags, forbiddenFlags and requiredItems list
func ParseEndings(src []byte) *content.EndingRefs {
	refs := content.NewEndingRefs()
	refs.RequiredFlags.Add(stringsInLists(src, requiredFlagsPattern)...)
	refs.ForbiddenFlags.Add(stringsInLists(src, forbiddenFlagsPattern)...)
	refs.RequiredItems.Add(stringsInLists(src, requiredItemsPattern)...)
	return refs
}

// ParseAudioManifest collects `"key": { ... file: "..." ... }` entries
func ParseAudioManifest(src []byte) content.AudioManifest {
	manifest := content.AudioManifest{}
	for _, m := range manifestPattern.FindAllSubmatch(src, -1) {
		file := fileFieldPattern.FindSubmatch(m[2])
		if file == nil {
			continue
		}
		manifest[string(m[1])] = string(file[1])
	}
	return manifest
}

func stringsInLists(src []byte, pattern *regexp.Regexp) []string {
	var out []string
	for _, m := range pattern.FindAllSubmatch(src, -1) {
		for _, q := range quotedPattern.FindAllSubmatch(m[1], -1) {
			if len(q[1]) > 0 {
				out = append(out, string(q[1]))
			} else {
				out = append(out, string(q[2]))
			}
		}
	}
	return out
}
