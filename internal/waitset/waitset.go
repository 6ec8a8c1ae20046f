// Package waitset implements the unordered, O(1)-removal container used to
// back condition.Cond's pending wake-ups. It is not a queue: callers must
// not assume any ordering between Add and the index a notify picks.
package waitset

// Set is an unordered collection of *T, supporting O(1) amortised removal
// by index (swap with the last element, then truncate). The zero value is
// an empty, usable Set.
type Set[T any] struct {
	items []*T
	index map[*T]int
}

// Add appends v to the set, returning the index it was stored at.
func (s *Set[T]) Add(v *T) int {
	if s.index == nil {
		s.index = make(map[*T]int)
	}
	i := len(s.items)
	s.items = append(s.items, v)
	s.index[v] = i
	return i
}

// Remove deletes v from the set, if present. O(1) amortised: the last
// element is swapped into v's slot, then the slice is truncated, reading
// the replacement from index length-1 (not length, which would be out of
// bounds on the now-truncated backing array).
func (s *Set[T]) Remove(v *T) {
	i, ok := s.index[v]
	if !ok {
		return
	}
	last := len(s.items) - 1
	if i != last {
		replacement := s.items[last]
		s.items[i] = replacement
		s.index[replacement] = i
	}
	s.items = s.items[:last]
	delete(s.index, v)
}

// Len returns the number of pending items.
func (s *Set[T]) Len() int {
	return len(s.items)
}

// At returns the item at index i. Panics if i is out of range.
func (s *Set[T]) At(i int) *T {
	return s.items[i]
}

// DrainAll removes and returns every item currently in the set, leaving it
// empty. Used by notify-all, which must empty the set before running any
// resolution callback (spec: "so notifications observed by continuations
// cannot re-enter a stale set").
func (s *Set[T]) DrainAll() []*T {
	drained := s.items
	s.items = nil
	s.index = nil
	return drained
}
