// ABOUTME: Stat is a single labelled measurement attached to a node.
// ABOUTME: Stats are created once per (node, label) and merged field by field afterwards.
package graph

// Stat is a measurement reported by a node. Value is already formatted.
type Stat struct {
	Label       string
	Value       string
	Unit        string
	Description string
}

// merge copies the fields present in p onto s.
func (s *Stat) merge(p StatPayload) {
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Unit != nil {
		s.Unit = *p.Unit
	}
	if p.Value != nil {
		s.Value = FormatStatValue(*p.Value)
	}
}
