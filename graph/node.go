// ABOUTME: Node is one unit of the engine's pipeline with status, stats, edges and tags.
// ABOUTME: Edges are name-keyed back-references resolved through the owning Model, never pointers.
package graph

import (
	"maps"
	"slices"
)

// Node is the local mirror of one engine node. Fields are only written through
// the owning Model so derived flags stay consistent.
type Node struct {
	key         string
	label       string
	name        string
	description string
	status      Status

	children map[string]struct{}
	parents  map[string]struct{}
	stats    *OrderedMap[string, *Stat]
	tags     map[string]struct{}

	notInSearch bool
	notInTags   bool
	active      bool
}

func newNode(key string) *Node {
	n := &Node{
		key:      key,
		label:    key,
		name:     key,
		children: make(map[string]struct{}),
		parents:  make(map[string]struct{}),
		stats:    NewOrderedMap[string, *Stat](),
		tags:     make(map[string]struct{}),
	}
	n.refreshActive()
	return n
}

// Key returns the backend-assigned identifier of the node.
func (n *Node) Key() string { return n.key }

// Label returns the display name. It is the key until a descriptor sets one.
func (n *Node) Label() string { return n.label }

// Name returns the node name (a duplicate of the key unless overwritten).
func (n *Node) Name() string { return n.name }

// Description returns the node description.
func (n *Node) Description() string { return n.description }

// Status returns the current status.
func (n *Node) Status() Status { return n.status }

// Active is false iff the node has no edges and is stopped.
func (n *Node) Active() bool { return n.active }

// NotInSearch reports whether the last search excluded the node.
func (n *Node) NotInSearch() bool { return n.notInSearch }

// NotInTags reports whether the tag filters hide the node.
func (n *Node) NotInTags() bool { return n.notInTags }

// Children returns the keys of the nodes this node feeds into, sorted.
func (n *Node) Children() []string { return slices.Sorted(maps.Keys(n.children)) }

// Parents returns the keys of the nodes feeding into this node, sorted.
func (n *Node) Parents() []string { return slices.Sorted(maps.Keys(n.parents)) }

// Tags returns the node's tag names, sorted.
func (n *Node) Tags() []string { return slices.Sorted(maps.Keys(n.tags)) }

// HasTag reports whether the node carries the given tag.
func (n *Node) HasTag(name string) bool {
	_, ok := n.tags[name]
	return ok
}

// Stat returns a copy of the stat with the given label.
func (n *Node) Stat(label string) (Stat, bool) {
	s, ok := n.stats.Get(label)
	if !ok {
		return Stat{}, false
	}
	return *s, true
}

// Stats returns copies of all stats sorted by label.
func (n *Node) Stats() []Stat {
	out := make([]Stat, 0, n.stats.Len())
	for _, s := range n.stats.Values() {
		out = append(out, *s)
	}
	return out
}

// addChild adds a child edge and reports whether the set changed.
func (n *Node) addChild(key string) bool {
	if _, ok := n.children[key]; ok {
		return false
	}
	n.children[key] = struct{}{}
	n.refreshActive()
	return true
}

// addParent adds a parent edge and reports whether the set changed.
func (n *Node) addParent(key string) bool {
	if _, ok := n.parents[key]; ok {
		return false
	}
	n.parents[key] = struct{}{}
	n.refreshActive()
	return true
}

func (n *Node) removeChild(key string) bool {
	if _, ok := n.children[key]; !ok {
		return false
	}
	delete(n.children, key)
	n.refreshActive()
	return true
}

func (n *Node) removeParent(key string) bool {
	if _, ok := n.parents[key]; !ok {
		return false
	}
	delete(n.parents, key)
	n.refreshActive()
	return true
}

// setStatus swaps the status and the matching status tag. It returns false
// when the status is unchanged.
func (n *Node) setStatus(s Status) bool {
	if n.status == s {
		return false
	}
	if n.status.IsSet() {
		delete(n.tags, string(n.status))
	}
	n.status = s
	if s.IsSet() {
		n.tags[string(s)] = struct{}{}
	}
	n.refreshActive()
	return true
}

// addTag adds a tag name and reports whether the set changed.
func (n *Node) addTag(name string) bool {
	if _, ok := n.tags[name]; ok {
		return false
	}
	n.tags[name] = struct{}{}
	return true
}

// upsertStat creates the stat on first sight and merges the present fields.
func (n *Node) upsertStat(p StatPayload) {
	s, ok := n.stats.Get(p.Label)
	if !ok {
		s = &Stat{Label: p.Label}
		n.stats.Set(p.Label, s)
	}
	s.merge(p)
}

func (n *Node) refreshActive() {
	n.active = !(len(n.children) == 0 && len(n.parents) == 0 && n.status == StatusStopped)
}

// NodeSnapshot is an immutable copy of a node, safe to hand to other goroutines.
type NodeSnapshot struct {
	Key         string
	Label       string
	Name        string
	Description string
	Status      Status
	Children    []string
	Parents     []string
	Stats       []Stat
	Tags        []string
	NotInSearch bool
	NotInTags   bool
	Active      bool
}

// Visible reports whether neither search nor tag filters hide the node.
func (s NodeSnapshot) Visible() bool {
	return !s.NotInSearch && !s.NotInTags
}

// Snapshot copies the node into a NodeSnapshot.
func (n *Node) Snapshot() NodeSnapshot {
	return NodeSnapshot{
		Key:         n.key,
		Label:       n.label,
		Name:        n.name,
		Description: n.description,
		Status:      n.status,
		Children:    n.Children(),
		Parents:     n.Parents(),
		Stats:       n.Stats(),
		Tags:        n.Tags(),
		NotInSearch: n.notInSearch,
		NotInTags:   n.notInTags,
		Active:      n.active,
	}
}
