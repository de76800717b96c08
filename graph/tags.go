// ABOUTME: TagFilter owns the process-wide tag registry and its show/hide flags.
// ABOUTME: Computes whether a node's tag set is hidden: hide wins, then show, then default-hide when any show is active.
package graph

// Tag is a free-form label used to filter node visibility. Show and Hide are
// never both true.
type Tag struct {
	Name string
	Show bool
	Hide bool
}

// TagFilter is the registry of every tag declared by any node.
type TagFilter struct {
	tags  *OrderedMap[string, *Tag]
	shows int
	hides int
}

// NewTagFilter creates an empty registry.
func NewTagFilter() *TagFilter {
	return &TagFilter{tags: NewOrderedMap[string, *Tag]()}
}

// Register adds a tag if unknown. Returns true when the tag was created.
func (f *TagFilter) Register(name string) bool {
	if _, ok := f.tags.Get(name); ok {
		return false
	}
	f.tags.Set(name, &Tag{Name: name})
	return true
}

// Tag returns a copy of the named tag.
func (f *TagFilter) Tag(name string) (Tag, bool) {
	t, ok := f.tags.Get(name)
	if !ok {
		return Tag{}, false
	}
	return *t, true
}

// Tags returns copies of all tags sorted by name.
func (f *TagFilter) Tags() []Tag {
	out := make([]Tag, 0, f.tags.Len())
	for _, t := range f.tags.Values() {
		out = append(out, *t)
	}
	return out
}

// Filtering reports whether any tag is shown or hidden.
func (f *TagFilter) Filtering() bool {
	return f.shows > 0 || f.hides > 0
}

// SetShow sets the tag's show flag. Showing a tag clears its hide flag.
// Returns true when anything changed; unknown tags are ignored.
func (f *TagFilter) SetShow(name string, show bool) bool {
	t, ok := f.tags.Get(name)
	if !ok {
		return false
	}
	changed := false
	if show && t.Hide {
		f.setHide(t, false)
		changed = true
	}
	if t.Show != show {
		f.setShow(t, show)
		changed = true
	}
	return changed
}

// SetHide sets the tag's hide flag. Hiding a tag clears its show flag.
func (f *TagFilter) SetHide(name string, hide bool) bool {
	t, ok := f.tags.Get(name)
	if !ok {
		return false
	}
	changed := false
	if hide && t.Show {
		f.setShow(t, false)
		changed = true
	}
	if t.Hide != hide {
		f.setHide(t, hide)
		changed = true
	}
	return changed
}

// ToggleShow flips the show flag, clearing hide.
func (f *TagFilter) ToggleShow(name string) bool {
	t, ok := f.tags.Get(name)
	if !ok {
		return false
	}
	return f.SetShow(name, !t.Show)
}

// ToggleHide flips the hide flag, clearing show.
func (f *TagFilter) ToggleHide(name string) bool {
	t, ok := f.tags.Get(name)
	if !ok {
		return false
	}
	return f.SetHide(name, !t.Hide)
}

// ResetAll clears every show and hide flag.
func (f *TagFilter) ResetAll() bool {
	changed := f.Filtering()
	f.tags.Range(func(_ string, t *Tag) bool {
		t.Show = false
		t.Hide = false
		return true
	})
	f.shows = 0
	f.hides = 0
	return changed
}

// Clear forgets every tag.
func (f *TagFilter) Clear() {
	f.tags.Clear()
	f.shows = 0
	f.hides = 0
}

func (f *TagFilter) notInTags(tags map[string]struct{}) bool {
	shown := false
	for name := range tags {
		t, ok := f.tags.Get(name)
		if !ok {
			continue
		}
		if t.Hide {
			return true
		}
		if t.Show {
			shown = true
		}
	}
	if shown {
		return false
	}
	return f.shows > 0
}

func (f *TagFilter) setShow(t *Tag, v bool) {
	if t.Show == v {
		return
	}
	t.Show = v
	if v {
		f.shows++
	} else {
		f.shows--
	}
}

func (f *TagFilter) setHide(t *Tag, v bool) {
	if t.Hide == v {
		return
	}
	t.Hide = v
	if v {
		f.hides++
	} else {
		f.hides--
	}
}
