// ABOUTME: Wire types for node descriptors carried by snapshots and update events.
// ABOUTME: Pointer fields distinguish "absent" from "zero" so partial updates merge correctly.
package graph

// NodePayload is a full or partial node descriptor. Only the fields present in
// the JSON are applied by Model.Apply.
type NodePayload struct {
	Name        *string       `json:"name,omitempty"`
	Label       *string       `json:"label,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *Status       `json:"status,omitempty"`
	Children    []string      `json:"children,omitempty"`
	Parents     []string      `json:"parents,omitempty"`
	Stats       []StatPayload `json:"stats,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
}

// StatPayload is a full or partial stat descriptor, keyed by Label.
type StatPayload struct {
	Label       string   `json:"label"`
	Value       *float64 `json:"value,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// Key returns the node key carried by the payload, or "" when absent.
func (p NodePayload) Key() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}
