package lines

import (
	"maps"
	"slices"
)

// ChangeSet records which lines an edit inserted, removed or edited.
// A line inserted and removed within the same set is dropped entirely, and
// inserted or removed lines are never also reported as edited.
type ChangeSet struct {
	inserted map[LineID]struct{}
	removed  map[LineID]struct{}
	edited   map[LineID]struct{}

	// Rebuilt is set when the whole index was reconstructed.
	Rebuilt bool
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		inserted: make(map[LineID]struct{}),
		removed:  make(map[LineID]struct{}),
		edited:   make(map[LineID]struct{}),
	}
}

// MarkInserted records a new line.
func (c *ChangeSet) MarkInserted(id LineID) {
	c.inserted[id] = struct{}{}
	delete(c.edited, id)
}

// MarkRemoved records a removed line.
func (c *ChangeSet) MarkRemoved(id LineID) {
	delete(c.edited, id)
	if _, ok := c.inserted[id]; ok {
		delete(c.inserted, id)
		return
	}
	c.removed[id] = struct{}{}
}

// MarkEdited records a line whose length or delimiter changed.
func (c *ChangeSet) MarkEdited(id LineID) {
	if _, ok := c.inserted[id]; ok {
		return
	}
	if _, ok := c.removed[id]; ok {
		return
	}
	c.edited[id] = struct{}{}
}

// Union folds other into c as if other's marks had been made on c.
func (c *ChangeSet) Union(other *ChangeSet) {
	for id := range other.inserted {
		c.MarkInserted(id)
	}
	for id := range other.removed {
		c.MarkRemoved(id)
	}
	for id := range other.edited {
		c.MarkEdited(id)
	}
	c.Rebuilt = c.Rebuilt || other.Rebuilt
}

// IsEmpty reports whether nothing was recorded.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.inserted) == 0 && len(c.removed) == 0 && len(c.edited) == 0 && !c.Rebuilt
}

// Inserted returns the inserted line IDs in ascending order.
func (c *ChangeSet) Inserted() []LineID {
	return slices.Sorted(maps.Keys(c.inserted))
}

// Removed returns the removed line IDs in ascending order.
func (c *ChangeSet) Removed() []LineID {
	return slices.Sorted(maps.Keys(c.removed))
}

// Edited returns the edited line IDs in ascending order.
func (c *ChangeSet) Edited() []LineID {
	return slices.Sorted(maps.Keys(c.edited))
}

// IsInserted reports whether id was inserted.
func (c *ChangeSet) IsInserted(id LineID) bool {
	_, ok := c.inserted[id]
	return ok
}

// IsRemoved reports whether id was removed.
func (c *ChangeSet) IsRemoved(id LineID) bool {
	_, ok := c.removed[id]
	return ok
}

// IsEdited reports whether id was edited.
func (c *ChangeSet) IsEdited(id LineID) bool {
	_, ok := c.edited[id]
	return ok
}
