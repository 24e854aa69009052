package content

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Trigger kinds understood by the runtime event system.
const (
	TriggerOnExamine         = "on_examine"
	TriggerOnEnter           = "on_enter"
	TriggerOnStoryFlag       = "on_storyFlag"
	TriggerOnTimer           = "on_timer"
	TriggerOnSanityThreshold = "on_sanity_threshold"
)

// Scene represents one screen of the narrative with its exits, scripted events and hotspots.
// Every field decodes leniently, see Text and List.
type Scene struct {
	ID                       Text               `json:"id" yaml:"id"`
	Name                     Text               `json:"name,omitempty" yaml:"name,omitempty"`
	BackgroundImage          StringValue        `json:"backgroundImage,omitempty" yaml:"backgroundImage,omitempty"`
	BackgroundImageLowSanity StringValue        `json:"backgroundImageLowSanity,omitempty" yaml:"backgroundImageLowSanity,omitempty"`
	AmbientAudio             StringValue        `json:"ambientAudio,omitempty" yaml:"ambientAudio,omitempty"`
	Navigation               List[Navigation]   `json:"navigation,omitempty" yaml:"navigation,omitempty"`
	Events                   List[Event]        `json:"events,omitempty" yaml:"events,omitempty"`
	Interactables            List[Interactable] `json:"interactables,omitempty" yaml:"interactables,omitempty"`
}

// Navigation is a player-triggered exit to another scene
type Navigation struct {
	TargetSceneID Text `json:"targetSceneId" yaml:"targetSceneId"`
	Label         Text `json:"label,omitempty" yaml:"label,omitempty"`
	RequiredFlag  Text `json:"requiredFlag,omitempty" yaml:"requiredFlag,omitempty"` // Exit is locked until this flag is set
	LockedText    Text `json:"lockedText,omitempty" yaml:"lockedText,omitempty"`
}

// Event is a scripted occurrence inside a scene
type Event struct {
	ID      Text `json:"id" yaml:"id"`
	Trigger Text `json:"trigger" yaml:"trigger"`

	// Trigger conditions
	TargetID        Text   `json:"targetId,omitempty" yaml:"targetId,omitempty"`               // on_examine: interactable being examined
	Flag            Text   `json:"flag,omitempty" yaml:"flag,omitempty"`                       // on_storyFlag: flag being watched
	TimerDuration   Number `json:"timerDuration,omitempty" yaml:"timerDuration,omitempty"`     // on_timer: seconds
	SanityThreshold Number `json:"sanityThreshold,omitempty" yaml:"sanityThreshold,omitempty"` // on_sanity_threshold, zero is valid

	// Effects
	Audio              StringValue `json:"audio,omitempty" yaml:"audio,omitempty"`
	TeleportTo         Text        `json:"teleportTo,omitempty" yaml:"teleportTo,omitempty"`
	SetsFlag           Text        `json:"setsFlag,omitempty" yaml:"setsFlag,omitempty"`
	RevealInteractable Text        `json:"revealInteractable,omitempty" yaml:"revealInteractable,omitempty"`
	HideInteractable   Text        `json:"hideInteractable,omitempty" yaml:"hideInteractable,omitempty"`

	// Control
	Requires      *Requires `json:"requires,omitempty" yaml:"requires,omitempty"`
	BlockedByFlag Text      `json:"blockedByFlag,omitempty" yaml:"blockedByFlag,omitempty"`
}

// Requires gates an event on game state
type Requires struct {
	StoryFlag   Text   `json:"storyFlag,omitempty" yaml:"storyFlag,omitempty"`
	Item        Text   `json:"item,omitempty" yaml:"item,omitempty"`
	SanityBelow Number `json:"sanityBelow,omitempty" yaml:"sanityBelow,omitempty"`
}

// UnmarshalJSON decodes an object and ignores any other value
func (r *Requires) UnmarshalJSON(data []byte) error {
	type plain Requires
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		*r = Requires{}
		return nil
	}
	*r = Requires(p)
	return nil
}

func (r *Requires) UnmarshalYAML(node *yaml.Node) error {
	type plain Requires
	var p plain
	if err := node.Decode(&p); err != nil {
		*r = Requires{}
		return nil
	}
	*r = Requires(p)
	return nil
}

// Interactable is a clickable hotspot. Its rect geometry belongs to the coordinate
// tooling; only whether the key was given at all is kept, so "rect": null counts.
type Interactable struct {
	ID             Text        `json:"id" yaml:"id"`
	Label          Text        `json:"label,omitempty" yaml:"label,omitempty"`
	HasRect        bool        `json:"-" yaml:"-"`
	TriggerEvent   Text        `json:"triggerEvent,omitempty" yaml:"triggerEvent,omitempty"`
	RequiredItem   Text        `json:"requiredItem,omitempty" yaml:"requiredItem,omitempty"`
	GivesItem      Text        `json:"givesItem,omitempty" yaml:"givesItem,omitempty"`
	RequiredFlag   Text        `json:"requiredFlag,omitempty" yaml:"requiredFlag,omitempty"`
	ForbiddenFlag  StringList  `json:"forbiddenFlag,omitempty" yaml:"forbiddenFlag,omitempty"`
	ForbiddenFlags StringList  `json:"forbiddenFlags,omitempty" yaml:"forbiddenFlags,omitempty"`
	SetsFlag       Text        `json:"setsFlag,omitempty" yaml:"setsFlag,omitempty"`
	StoryFlag      Text        `json:"storyFlag,omitempty" yaml:"storyFlag,omitempty"` // Also set on interaction
	AudioTrigger   StringValue `json:"audioTrigger,omitempty" yaml:"audioTrigger,omitempty"`
	Reveals        StringList  `json:"reveals,omitempty" yaml:"reveals,omitempty"`
}

// UnmarshalJSON decodes the hotspot fields and records whether a rect key exists
func (i *Interactable) UnmarshalJSON(data []byte) error {
	type plain Interactable
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*i = Interactable(p)
	_, i.HasRect = keys["rect"]
	return nil
}

func (i *Interactable) UnmarshalYAML(node *yaml.Node) error {
	type plain Interactable
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*i = Interactable(p)
	for k := 0; k+1 < len(node.Content); k += 2 {
		if node.Content[k].Value == "rect" {
			i.HasRect = true
		}
	}
	return nil
}

// ForbiddenFlagNames returns every flag that blocks the interactable, across both field spellings
func (i Interactable) ForbiddenFlagNames() []string {
	names := make([]string, 0, len(i.ForbiddenFlag)+len(i.ForbiddenFlags))
	names = append(names, i.ForbiddenFlag...)
	names = append(names, i.ForbiddenFlags...)
	return names
}

// EventIDs returns the set of non-empty event ids defined in the scene
func (s Scene) EventIDs() StringSet {
	ids := NewStringSet()
	for _, ev := range s.Events {
		if ev.ID != "" {
			ids.Add(string(ev.ID))
		}
	}
	return ids
}

// InteractableIDs returns the set of non-empty interactable ids defined in the scene
func (s Scene) InteractableIDs() StringSet {
	ids := NewStringSet()
	for _, it := range s.Interactables {
		if it.ID != "" {
			ids.Add(string(it.ID))
		}
	}
	return ids
}
