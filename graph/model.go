// ABOUTME: Model is the single owner of every node, stat and the tag registry of a session.
// ABOUTME: Apply is the idempotent upsert used by live events, snapshot bootstrap and playback alike.
package graph

import (
	"cmp"
	"slices"
	"strings"
)

// Model mirrors the engine's node graph. It is not safe for concurrent use;
// the session serializes every call.
type Model struct {
	nodes map[string]*Node
	tags  *TagFilter
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		nodes: make(map[string]*Node),
		tags:  NewTagFilter(),
	}
}

// Reset drops every node and tag.
func (m *Model) Reset() {
	clear(m.nodes)
	m.tags.Clear()
}

// Len returns the number of nodes.
func (m *Model) Len() int {
	return len(m.nodes)
}

// Node looks a node up by key. The returned node must not be retained across
// mutations by callers outside the owning goroutine.
func (m *Model) Node(key string) (*Node, bool) {
	n, ok := m.nodes[key]
	return n, ok
}

// Nodes returns every node sorted by label, then key.
func (m *Model) Nodes() []*Node {
	out := make([]*Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int {
		if c := cmp.Compare(a.label, b.label); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	return out
}

// Snapshot copies every node, sorted like Nodes.
func (m *Model) Snapshot() []NodeSnapshot {
	nodes := m.Nodes()
	out := make([]NodeSnapshot, len(nodes))
	for i, n := range nodes {
		out[i] = n.Snapshot()
	}
	return out
}

// Tags returns copies of every registered tag sorted by name.
func (m *Model) Tags() []Tag {
	return m.tags.Tags()
}

// Tag returns a copy of the named tag.
func (m *Model) Tag(name string) (Tag, bool) {
	return m.tags.Tag(name)
}

// Apply upserts the node identified by key and merges the fields present in p.
// Applying the same payload twice leaves the model as applying it once.
// An empty key is ignored and returns nil.
func (m *Model) Apply(key string, p NodePayload) *Node {
	if key == "" {
		return nil
	}

	n, ok := m.nodes[key]
	if !ok {
		n = newNode(key)
		m.nodes[key] = n
		n.notInTags = m.tags.notInTags(n.tags)
	}

	// Edges come before status so the first activity check sees final sets.
	for _, c := range p.Children {
		n.addChild(c)
	}
	for _, c := range p.Parents {
		n.addParent(c)
	}

	if p.Description != nil {
		n.description = *p.Description
	}
	if p.Label != nil {
		n.label = *p.Label
	}
	if p.Name != nil {
		n.name = *p.Name
	}

	for _, s := range p.Stats {
		if s.Label == "" {
			continue
		}
		n.upsertStat(s)
	}

	if p.Status != nil && p.Status.IsSet() {
		if n.setStatus(*p.Status) {
			m.tags.Register(string(*p.Status))
			m.refreshNodeTags(n)
		}
	}

	tagsChanged := false
	for _, t := range p.Tags {
		if t == "" {
			continue
		}
		m.tags.Register(t)
		if n.addTag(t) {
			tagsChanged = true
		}
	}
	if tagsChanged {
		m.refreshNodeTags(n)
	}

	return n
}

// SetStatus is shorthand for applying a status-only payload.
func (m *Model) SetStatus(key string, s Status) *Node {
	return m.Apply(key, NodePayload{Status: &s})
}

// RemoveChild drops a child edge and recomputes the node's activity.
func (m *Model) RemoveChild(key, child string) bool {
	n, ok := m.nodes[key]
	if !ok {
		return false
	}
	return n.removeChild(child)
}

// RemoveParent drops a parent edge and recomputes the node's activity.
func (m *Model) RemoveParent(key, parent string) bool {
	n, ok := m.nodes[key]
	if !ok {
		return false
	}
	return n.removeParent(parent)
}

// Search flags every node whose label and name both miss the query,
// case-insensitively. An empty query clears the flag on every node.
func (m *Model) Search(query string) {
	q := strings.ToLower(query)
	for _, n := range m.nodes {
		n.notInSearch = q != "" &&
			!strings.Contains(strings.ToLower(n.label), q) &&
			!strings.Contains(strings.ToLower(n.name), q)
	}
}

// ToggleTagShow flips a tag's show flag and refreshes every node.
func (m *Model) ToggleTagShow(name string) bool {
	return m.refreshIf(m.tags.ToggleShow(name))
}

// ToggleTagHide flips a tag's hide flag and refreshes every node.
func (m *Model) ToggleTagHide(name string) bool {
	return m.refreshIf(m.tags.ToggleHide(name))
}

// TagsFiltering reports whether any tag flag is set.
func (m *Model) TagsFiltering() bool {
	return m.tags.Filtering()
}

// ResetAllTags clears every show and hide flag, restoring full visibility.
func (m *Model) ResetAllTags() bool {
	return m.refreshIf(m.tags.ResetAll())
}

func (m *Model) refreshIf(changed bool) bool {
	if changed {
		m.refreshTags()
	}
	return changed
}

func (m *Model) refreshTags() {
	for _, n := range m.nodes {
		m.refreshNodeTags(n)
	}
}

func (m *Model) refreshNodeTags(n *Node) {
	n.notInTags = m.tags.notInTags(n.tags)
}
