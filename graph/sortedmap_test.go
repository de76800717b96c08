// ABOUTME: Tests for OrderedMap insertion order, updates and clearing.
package graph

import (
	"slices"
	"testing"
)

func keys[V any](m *OrderedMap[string, V]) []string {
	var out []string
	m.Range(func(k string, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

func TestOrderedMapKeepsKeysSorted(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", 3)
	m.Set("alpha", 4)

	if got, want := keys(m), []string{"alpha", "mid", "zeta"}; !slices.Equal(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
	if got, want := m.Values(), []int{4, 3, 1}; !slices.Equal(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestOrderedMapRangeStops(t *testing.T) {
	m := NewOrderedMap[string, int]()
	for _, k := range []string{"c", "a", "b"} {
		m.Set(k, 0)
	}
	var seen []string
	m.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return k != "b"
	})
	if want := []string{"a", "b"}; !slices.Equal(seen, want) {
		t.Errorf("Range visited %v, want %v", seen, want)
	}
}

func TestOrderedMapClear(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("a", 1)
	m.Clear()
	if m.Len() != 0 || len(keys(m)) != 0 {
		t.Fatalf("expected empty map after Clear, got %v", keys(m))
	}
	if _, ok := m.Get("a"); ok {
		t.Error("Get after Clear should miss")
	}
	m.Set("b", 2)
	if got := keys(m); !slices.Equal(got, []string{"b"}) {
		t.Errorf("keys = %v after reuse", got)
	}
}
