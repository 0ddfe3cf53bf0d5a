package state

// Sequence is a monotonic identifier allocator. Values start at 1 and are
// never reused; 0 is reserved as the "no identifier" sentinel.
type Sequence struct {
	last uint64
}

// Next allocates and returns the next identifier.
func (s *Sequence) Next() uint64 {
	s.last++
	return s.last
}

// Last returns the most recently allocated identifier, or 0 when none has
// been allocated yet.
func (s *Sequence) Last() uint64 {
	return s.last
}
