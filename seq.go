// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import "sync/atomic"

// sequenceAllocator is a monotonic int64 counter of outbound request ids.
// IDs start at 1 and are never reused within a session; the only way to
// reset it is to open a fresh session (spec.md §3).
type sequenceAllocator struct {
	next int64
}

// allocate returns the next strictly increasing id, starting at 1.
func (s *sequenceAllocator) allocate() int64 {
	return atomic.AddInt64(&s.next, 1)
}
