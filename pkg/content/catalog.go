package content

// ItemCatalog holds what the validator needs from the inventory item source
type ItemCatalog struct {
	IDs          StringSet // Every declared item id
	InspectFlags StringSet // Flags set when an item is inspected in the inventory
}

func NewItemCatalog() *ItemCatalog {
	return &ItemCatalog{IDs: NewStringSet(), InspectFlags: NewStringSet()}
}

// EndingRefs is the union of references made by all endings.
// Per-ending granularity is not kept.
type EndingRefs struct {
	RequiredFlags  StringSet
	ForbiddenFlags StringSet
	RequiredItems  StringSet
}

func NewEndingRefs() *EndingRefs {
	return &EndingRefs{
		RequiredFlags:  NewStringSet(),
		ForbiddenFlags: NewStringSet(),
		RequiredItems:  NewStringSet(),
	}
}

// Flags returns required and forbidden flag names together
func (e *EndingRefs) Flags() StringSet {
	return e.RequiredFlags.Union(e.ForbiddenFlags)
}

// AudioManifest maps a symbolic audio key to its file reference
type AudioManifest map[string]string

func (m AudioManifest) Has(key string) bool {
	_, ok := m[key]
	return ok
}
