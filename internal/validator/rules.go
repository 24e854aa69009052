package validator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/scene-lint/pkg/content"
)

func (v *Validator) addError(source, format string, args ...any) {
	v.report.AddError(source + ": " + fmt.Sprintf(format, args...))
}

func (v *Validator) addWarning(source, format string, args ...any) {
	v.report.AddWarning(source + ": " + fmt.Sprintf(format, args...))
}

// addItemMiss reports an unknown item. The item catalog evolves independently of
// scenes, so this is a warning unless strict items are requested.
func (v *Validator) addItemMiss(source, format string, args ...any) {
	if v.opts.StrictItems {
		v.addError(source, format, args...)
		return
	}
	v.addWarning(source, format, args...)
}

func (v *Validator) validateScene(source string, scene *content.Scene) {
	v.validateImages(source, scene)
	v.validateNavigation(source, scene)

	eventIDs := v.validateEvents(source, scene)
	interactableIDs := scene.InteractableIDs()
	v.validateEventTargets(source, scene, interactableIDs)
	v.validateInteractables(source, scene, eventIDs, interactableIDs)

	v.validateAudio(source, string(scene.AmbientAudio))
}

func (v *Validator) validateImages(source string, scene *content.Scene) {
	fields := []struct {
		name  string
		value string
	}{
		{"backgroundImage", string(scene.BackgroundImage)},
		{"backgroundImageLowSanity", string(scene.BackgroundImageLowSanity)},
	}
	for _, f := range fields {
		if !strings.HasPrefix(f.value, v.opts.ImagePrefix) {
			continue
		}
		path := filepath.Join(v.opts.PublicDir, filepath.FromSlash(strings.TrimLeft(f.value, "/")))
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			v.addWarning(source, "missing image file for %s: %s", f.name, f.value)
		}
	}
}

func (v *Validator) validateNavigation(source string, scene *content.Scene) {
	for _, nav := range scene.Navigation {
		if nav.TargetSceneID == "" {
			v.addError(source, "navigation missing targetSceneId")
			continue
		}
		if !v.idx.HasScene(string(nav.TargetSceneID)) {
			v.addError(source, "navigation target missing scene: %s", nav.TargetSceneID)
		}
		v.useFlag(string(nav.RequiredFlag))
	}
}

// validateEvents checks each event and returns the ids defined in the scene
func (v *Validator) validateEvents(source string, scene *content.Scene) content.StringSet {
	eventIDs := content.NewStringSet()
	for _, ev := range scene.Events {
		if ev.ID == "" {
			v.addError(source, "event missing id")
			continue
		}
		id := string(ev.ID)
		if eventIDs.Has(id) {
			v.addError(source, "duplicate event id: %s", id)
		}
		eventIDs.Add(id)

		switch ev.Trigger {
		case content.TriggerOnStoryFlag:
			if ev.Flag == "" {
				v.addError(source, "on_storyFlag event missing flag: %s", ev.ID)
			}
		case content.TriggerOnTimer:
			if !ev.TimerDuration.Truthy() {
				v.addWarning(source, "on_timer event missing timerDuration: %s", ev.ID)
			}
		case content.TriggerOnSanityThreshold:
			// Zero is a legitimate threshold, only absence is a defect
			if !ev.SanityThreshold.Present() {
				v.addError(source, "on_sanity_threshold missing sanityThreshold: %s", ev.ID)
			}
		}

		if ev.TeleportTo != "" && !v.idx.HasScene(string(ev.TeleportTo)) {
			v.addError(source, "teleportTo missing scene: %s", ev.TeleportTo)
		}

		v.setFlag(string(ev.SetsFlag))
		v.watchFlag(source, string(ev.Flag))
		v.useFlag(string(ev.BlockedByFlag))
		if ev.Requires != nil {
			v.useFlag(string(ev.Requires.StoryFlag))
			if ev.Requires.Item != "" && !v.idx.HasItem(string(ev.Requires.Item)) {
				v.addItemMiss(source, "requires.item not found in items: %s", ev.Requires.Item)
			}
		}

		v.validateAudio(source, string(ev.Audio))
	}
	return eventIDs
}

// validateEventTargets checks event fields that name an interactable of the same scene
func (v *Validator) validateEventTargets(source string, scene *content.Scene, interactableIDs content.StringSet) {
	for _, ev := range scene.Events {
		if ev.ID == "" {
			continue
		}
		if ev.TargetID != "" && !interactableIDs.Has(string(ev.TargetID)) {
			v.addError(source, "targetId not found: %s", ev.TargetID)
		}
		if ev.RevealInteractable != "" && !interactableIDs.Has(string(ev.RevealInteractable)) {
			v.addError(source, "revealInteractable not found: %s", ev.RevealInteractable)
		}
		if ev.HideInteractable != "" && !interactableIDs.Has(string(ev.HideInteractable)) {
			v.addError(source, "hideInteractable not found: %s", ev.HideInteractable)
		}
	}
}

func (v *Validator) validateInteractables(source string, scene *content.Scene, eventIDs, interactableIDs content.StringSet) {
	for _, it := range scene.Interactables {
		if it.ID == "" {
			v.addError(source, "interactable missing id")
			continue
		}
		if !it.HasRect {
			v.addError(source, "interactable missing rect: %s", it.ID)
		}
		if it.TriggerEvent != "" && !eventIDs.Has(string(it.TriggerEvent)) {
			v.addError(source, "triggerEvent not found: %s", it.TriggerEvent)
		}
		for _, revealed := range it.Reveals {
			if !interactableIDs.Has(revealed) {
				v.addError(source, "reveals not found: %s", revealed)
			}
		}

		if it.RequiredItem != "" && !v.idx.HasItem(string(it.RequiredItem)) {
			v.addItemMiss(source, "requiredItem not found in items: %s", it.RequiredItem)
		}
		if it.GivesItem != "" && !v.idx.HasItem(string(it.GivesItem)) {
			v.addItemMiss(source, "givesItem not found in items: %s", it.GivesItem)
		}

		v.useFlag(string(it.RequiredFlag))
		v.useFlag(it.ForbiddenFlagNames()...)
		v.setFlag(string(it.SetsFlag), string(it.StoryFlag))

		v.validateAudio(source, string(it.AudioTrigger))
	}
}

// validateAudio checks one audio reference against the manifest
func (v *Validator) validateAudio(source, ref string) {
	if ref == "" {
		return
	}
	if strings.HasPrefix(ref, v.opts.RawAudioPrefix) {
		v.addWarning(source, "raw audio path used: %s", ref)
		return
	}
	if !v.idx.HasAudioKey(ref) {
		v.addWarning(source, "audio key not in manifest: %s", ref)
	}
}

// validateWatchedFlags reports on_storyFlag watchers whose flag nothing sets, so the event can never fire
func (v *Validator) validateWatchedFlags() {
	flags := make([]string, 0, len(v.watched))
	for flag := range v.watched {
		flags = append(flags, flag)
	}
	sort.Strings(flags)

	for _, flag := range flags {
		if !v.flagsSet.Has(flag) && !v.idx.IsExternalFlag(flag) {
			v.addWarning(v.watched[flag], "on_storyFlag watches flag never set: %s", flag)
		}
	}
}

func (v *Validator) validateEndings() {
	for _, flag := range v.idx.endings.Flags().Sorted() {
		if !v.idx.IsExternalFlag(flag) && !v.flagsSet.Has(flag) && !v.flagsUsed.Has(flag) {
			v.addWarning("endings", "flag referenced but never set/used: %s", flag)
		}
		// Folded in either way so the dead-flag pass does not report it again
		v.flagsUsed.Add(flag)
	}

	for _, item := range v.idx.endings.RequiredItems.Sorted() {
		if !v.idx.HasItem(item) {
			v.addItemMiss("endings", "requiredItem not found in items: %s", item)
		}
	}
}

// validateUnusedFlags reports flags that are set but never read, in sorted order
func (v *Validator) validateUnusedFlags() {
	produced := v.flagsSet.Union(v.idx.externalFlags)
	for _, flag := range produced.Sorted() {
		if !v.flagsUsed.Has(flag) {
			v.report.AddWarning("flag set but never used: " + flag)
		}
	}
}

func (v *Validator) setFlag(flags ...string) {
	for _, f := range flags {
		if f != "" {
			v.flagsSet.Add(f)
		}
	}
}

// watchFlag records a flag read by an on_storyFlag trigger
func (v *Validator) watchFlag(source, flag string) {
	if flag == "" {
		return
	}
	v.useFlag(flag)
	if _, ok := v.watched[flag]; !ok {
		v.watched[flag] = source
	}
}

func (v *Validator) useFlag(flags ...string) {
	for _, f := range flags {
		if f != "" {
			v.flagsUsed.Add(f)
		}
	}
}
