package mf

import "sort"

// extent is a live queue's byte range within the arena.
type extent struct {
	start, size uint32
}

// findExtent implements the first-fit allocator of spec §4.3: no free-list
// is stored in the segment, the allocator derives gaps on demand from the
// header table by sorting live queue extents and scanning for the first
// gap at least `need` bytes wide. Release needs no bookkeeping: once a
// header slot stops being live, the next scan sees the combined gap
// (implicit coalescing).
func findExtent(live []extent, arenaSize, need uint32) (offset uint32, ok bool) {
	sort.Slice(live, func(i, j int) bool { return live[i].start < live[j].start })

	cursor := uint32(0)
	for _, e := range live {
		if e.start > cursor && e.start-cursor >= need {
			return cursor, true
		}
		end := e.start + e.size
		if end > cursor {
			cursor = end
		}
	}
	if arenaSize > cursor && arenaSize-cursor >= need {
		return cursor, true
	}
	return 0, false
}

// liveExtents scans the header table for occupied slots, per I3's "pairwise
// disjoint" invariant.
func liveExtents(seg *segment) []extent {
	n := seg.numSlots()
	out := make([]extent, 0, n)
	for i := uint32(0); i < n; i++ {
		h := seg.headerSlot(i)
		if h.free() {
			continue
		}
		out = append(out, extent{start: h.bodyOffset(), size: h.bodySize()})
	}
	return out
}
