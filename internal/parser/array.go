package parser

import "fmt"

// ArrayState tracks a DArray: its length prefix, how many elements have
// been parsed, the element in progress, and collected items.
type ArrayState[S, T any] struct {
	length  UintState
	counted bool
	count   uint64
	index   uint64
	elem    S
	started bool
	items   []T
}

// Count returns the element count announced by the length prefix.
func (s *ArrayState[S, T]) Count() uint64 {
	return s.count
}

// Parsed returns how many elements have completed.
func (s *ArrayState[S, T]) Parsed() uint64 {
	return s.index
}

// DArray is an array whose element count is carried by a preceding Len
// field. Counts above Max reject before any element is parsed.
//
// In collect mode items land in a buffer of capacity Max that is allocated on
// first Init and reused afterwards. With Drop set each element is discarded
// as soon as it completes, so memory stays fixed for any count.
type DArray[L Unsigned, S, T any] struct {
	Len  Uint[L]
	Elem Node[S, T]
	Max  uint64
	Drop bool
}

func (a DArray[L, S, T]) Init(s *ArrayState[S, T]) {
	a.Len.Init(&s.length)
	s.counted = false
	s.count = 0
	s.index = 0
	s.started = false
	a.Elem.Init(&s.elem)
	if a.Drop {
		s.items = nil
		return
	}
	if uint64(cap(s.items)) < a.Max {
		s.items = make([]T, 0, a.Max)
		return
	}
	clear(s.items[:cap(s.items)])
	s.items = s.items[:0]
}

func (a DArray[L, S, T]) Parse(s *ArrayState[S, T], c *Cursor) error {
	if !s.counted {
		if err := a.Len.Parse(&s.length, c); err != nil {
			return err
		}
		s.count = uint64(a.Len.Output(&s.length))
		s.counted = true
		if s.count > a.Max {
			return Reject("array", fmt.Sprintf("count %d exceeds bound %d", s.count, a.Max))
		}
	}
	for s.index < s.count {
		if !s.started {
			a.Elem.Init(&s.elem)
			s.started = true
		}
		if err := a.Elem.Parse(&s.elem, c); err != nil {
			return err
		}
		if !a.Drop {
			s.items = append(s.items, a.Elem.Output(&s.elem))
		}
		s.started = false
		s.index++
	}
	return nil
}

// Output returns the collected items; always empty in drop mode. The slice
// aliases the state and is only valid until the next Init.
func (a DArray[L, S, T]) Output(s *ArrayState[S, T]) []T {
	return s.items
}
