package table

import (
	"cmp"
	"slices"
)

// Selection is the set of row ids a bulk action will act on. It is keyed
// by id only, so it survives filter changes; callers use Visible to
// restrict it to the rows a user can currently see.
type Selection[K cmp.Ordered] struct {
	ids map[K]struct{}
}

func NewSelection[K cmp.Ordered](ids ...K) *Selection[K] {
	s := &Selection[K]{ids: make(map[K]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *Selection[K]) Add(id K)    { s.ids[id] = struct{}{} }
func (s *Selection[K]) Remove(id K) { delete(s.ids, id) }

// Toggle flips id and reports whether it is now selected.
func (s *Selection[K]) Toggle(id K) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Set replaces the selection, as a "select all on page" checkbox does.
func (s *Selection[K]) Set(ids []K) {
	s.Clear()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection. Lists call it whenever data is reloaded.
func (s *Selection[K]) Clear() { clear(s.ids) }

func (s *Selection[K]) Contains(id K) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection[K]) Len() int { return len(s.ids) }

func (s *Selection[K]) IDs() []K {
	out := make([]K, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Visible splits the selection into ids present in visible and ids that
// the active filter hides. Both results are sorted.
func (s *Selection[K]) Visible(visible []K) (kept, hidden []K) {
	seen := make(map[K]struct{}, len(visible))
	for _, id := range visible {
		seen[id] = struct{}{}
	}
	for _, id := range s.IDs() {
		if _, ok := seen[id]; ok {
			kept = append(kept, id)
		} else {
			hidden = append(hidden, id)
		}
	}
	return kept, hidden
}
