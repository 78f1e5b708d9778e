package mf

import (
	"encoding/binary"
	"fmt"
)

// CheckInvariants is the state-inspection helper named in spec §8 (P1): it
// re-derives I1–I7 from the segment's own header table and info block and
// reports the first violation found. It does not take any lock itself —
// callers (typically tests, between operations) are responsible for quiescing
// concurrent activity first.
func CheckInvariants(f *Facility) error {
	seg := f.seg
	n := seg.numSlots()
	info := seg.info()

	var (
		liveCount uint32
		usedBytes uint32
		seenQid   = map[uint32]bool{}
		seenName  = map[string]bool{}
		extents   []extent
	)

	for i := uint32(0); i < n; i++ {
		h := seg.headerSlot(i)
		if h.free() {
			if h.name() != "" {
				return fmt.Errorf("I4 violated: free slot %d has non-empty name", i)
			}
			continue
		}
		liveCount++
		usedBytes += h.bodySize()

		if seenQid[h.qid()] {
			return fmt.Errorf("I4 violated: duplicate qid %d", h.qid())
		}
		seenQid[h.qid()] = true

		if seenName[h.name()] {
			return fmt.Errorf("I4 violated: duplicate name %q", h.name())
		}
		seenName[h.name()] = true

		if h.qid() < 1 || h.qid() > n {
			return fmt.Errorf("I4 violated: qid %d out of range", h.qid())
		}

		ext := extent{start: h.bodyOffset(), size: h.bodySize()}
		if ext.start+ext.size > seg.layout.arenaSize {
			return fmt.Errorf("I3 violated: queue %q extends past arena", h.name())
		}
		for _, other := range extents {
			if ext.start < other.start+other.size && other.start < ext.start+ext.size {
				return fmt.Errorf("I3 violated: queue %q overlaps another queue's body", h.name())
			}
		}
		extents = append(extents, ext)

		// I5 only binds one direction: msg_count==0 implies head==tail==0.
		// The converse does not hold — a message that exactly fills the
		// body also leaves head==tail==0 (see ring.go's reserve), so
		// head==tail==0 alone never proves emptiness; msg_count is the
		// sole authority for that.
		msgCount, head, tail := h.msgCount(), h.headOffset(), h.tailOffset()
		if msgCount == 0 {
			if head != 0 || tail != 0 {
				return fmt.Errorf("I5 violated: queue %q empty but head/tail nonzero", h.name())
			}
		} else {
			if head >= h.bodySize() || tail >= h.bodySize() {
				return fmt.Errorf("I5 violated: queue %q head/tail out of [0,body_size)", h.name())
			}
			// I6: the record at head (after any wrap marker) has a valid
			// length prefix and fits within the body.
			body := seg.body(h)
			at := normalizeHead(body, head)
			length := binary.LittleEndian.Uint32(body[at : at+lengthPrefixSize])
			if length < MinDataLen || length > MaxDataLen || at+lengthPrefixSize+length > h.bodySize() {
				return fmt.Errorf("I6 violated: queue %q has no valid message at head", h.name())
			}
		}
		if h.refCount() > f.cfg.MaxMsgsPerQueue && h.refCount() > 1<<20 {
			return fmt.Errorf("I7 violated: queue %q has implausible ref_count %d", h.name(), h.refCount())
		}
	}

	if info.activeQueueCount() != liveCount {
		return fmt.Errorf("I1 violated: active_queue_count=%d but %d slots live", info.activeQueueCount(), liveCount)
	}
	if info.usedBytes() != usedBytes {
		return fmt.Errorf("I2 violated: used_bytes=%d but live bodies sum to %d", info.usedBytes(), usedBytes)
	}
	if info.freeBytes() != seg.layout.arenaSize-usedBytes {
		return fmt.Errorf("I2 violated: free_bytes=%d but arena_size-used=%d", info.freeBytes(), seg.layout.arenaSize-usedBytes)
	}
	return nil
}
