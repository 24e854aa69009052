package validator

import (
	"github.com/jwebster45206/scene-lint/internal/loader"
	"github.com/jwebster45206/scene-lint/pkg/content"
)

// Input is everything the loaders produced for one run
type Input struct {
	Scenes  *loader.SceneSet
	Items   *content.ItemCatalog
	Endings *content.EndingRefs
	Audio   content.AudioManifest

	// LoadErrors are hard errors already raised while loading sources
	LoadErrors []string
}

// Index is the cross-reference model the rules read from
type Index struct {
	scenes        *loader.SceneSet
	items         *content.ItemCatalog
	endings       *content.EndingRefs
	audio         content.AudioManifest
	externalFlags content.StringSet
}

func newIndex(in Input, opts Options) *Index {
	idx := &Index{
		scenes:        in.Scenes,
		items:         in.Items,
		endings:       in.Endings,
		audio:         in.Audio,
		externalFlags: content.NewStringSet(opts.ExternalFlags...),
	}
	if idx.scenes == nil {
		idx.scenes = &loader.SceneSet{ByID: map[string]*loader.SceneDoc{}}
	}
	if idx.items == nil {
		idx.items = content.NewItemCatalog()
	}
	if idx.endings == nil {
		idx.endings = content.NewEndingRefs()
	}
	if idx.audio == nil {
		idx.audio = content.AudioManifest{}
	}
	// Inventory inspection sets flags from outside scene data
	idx.externalFlags.Add(idx.items.InspectFlags.Sorted()...)
	return idx
}

func (idx *Index) HasScene(id string) bool {
	return idx.scenes.Has(id)
}

func (idx *Index) HasItem(id string) bool {
	return idx.items.IDs.Has(id)
}

func (idx *Index) HasAudioKey(key string) bool {
	return idx.audio.Has(key)
}

func (idx *Index) IsExternalFlag(flag string) bool {
	return idx.externalFlags.Has(flag)
}
