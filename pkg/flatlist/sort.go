package flatlist

import "bytes"

// Sort orders the list in place using heap-sort: slots are exchanged
// through rawSwap's 64-byte stack scratch, which is heap-allocated per
// swap only for elements wider than 64 bytes. If cmp is nil, elements are compared
// byte-lexicographically over their raw encoded slots, matching the
// reference implementation's default comparator.
func (l *FlatList[T]) Sort(cmp func(a, b T) int) {
	n := l.length
	if n < 2 {
		return
	}

	less := func(i, j int) bool {
		if cmp != nil {
			return cmp(l.codec.Decode(l.slot(i)), l.codec.Decode(l.slot(j))) < 0
		}

		return bytes.Compare(l.slot(i), l.slot(j)) < 0
	}

	// Build a max-heap, then repeatedly swap the root (largest) to the
	// end and shrink the heap.
	for start := n/2 - 1; start >= 0; start-- {
		l.siftDown(start, n, less)
	}

	for end := n - 1; end > 0; end-- {
		l.rawSwap(0, end)
		l.siftDown(0, end, less)
	}

	l.bumpGeneration()
}

func (l *FlatList[T]) siftDown(root, size int, less func(i, j int) bool) {
	for {
		child := 2*root + 1
		if child >= size {
			return
		}

		if child+1 < size && less(child, child+1) {
			child++
		}

		if !less(root, child) {
			return
		}

		l.rawSwap(root, child)
		root = child
	}
}

// rawSwap exchanges two slots without index validation or generation
// bookkeeping; callers are responsible for both (sort bumps the
// generation once, after the whole pass).
func (l *FlatList[T]) rawSwap(i, j int) {
	if i == j {
		return
	}

	var tmp [64]byte
	scratch := tmp[:l.width]

	if l.width > len(tmp) {
		scratch = make([]byte, l.width)
	}

	copy(scratch, l.slot(i))
	copy(l.slot(i), l.slot(j))
	copy(l.slot(j), scratch)
}
