package mf

import "fmt"

// The queue directory (spec §4.2): a fixed-cardinality table of queue
// headers located by name (create/remove/open) or by qid (send/receive/
// close), with qid assignment and per-queue reference counting. The
// functions that create, remove, open or close assume the caller already
// holds segment_mutex: directory mutation is always a "header-modifying
// API" suspension point per §5. findByQid is also called by Send and
// Receive, which hold only the queue's own mutex.

func findByName(seg *segment, name string) (queueHeaderView, uint32, bool) {
	n := seg.numSlots()
	for i := uint32(0); i < n; i++ {
		h := seg.headerSlot(i)
		if !h.free() && h.name() == name {
			return h, i, true
		}
	}
	return queueHeaderView{}, 0, false
}

func findByQid(seg *segment, qid uint32) (queueHeaderView, uint32, bool) {
	n := seg.numSlots()
	for i := uint32(0); i < n; i++ {
		h := seg.headerSlot(i)
		if !h.free() && h.qid() == qid {
			return h, i, true
		}
	}
	return queueHeaderView{}, 0, false
}

func findFreeSlot(seg *segment) (uint32, bool) {
	n := seg.numSlots()
	for i := uint32(0); i < n; i++ {
		if seg.headerSlot(i).free() {
			return i, true
		}
	}
	return 0, false
}

// lowestFreeQid picks the smallest unused qid in 1..=max_queues (tie-break
// rule from §4.2).
func lowestFreeQid(seg *segment) (uint32, bool) {
	n := seg.numSlots()
	used := make(map[uint32]bool, n)
	for i := uint32(0); i < n; i++ {
		h := seg.headerSlot(i)
		if !h.free() {
			used[h.qid()] = true
		}
	}
	for qid := uint32(1); qid <= n; qid++ {
		if !used[qid] {
			return qid, true
		}
	}
	return 0, false
}

// createQueueLocked performs the allocator-and-header-table half of
// create_queue. Semaphore creation is the caller's job (facility.go),
// ordered first per DESIGN.md's partial-failure rollback rule: semaphores
// created before the header slot is written, so a late failure leaves no
// visible queue.
func createQueueLocked(seg *segment, name string, bodySizeBytes uint32) (qid uint32, err error) {
	if _, _, found := findByName(seg, name); found {
		return 0, fmt.Errorf("create queue %q: %w", name, ErrNameInUse)
	}
	info := seg.info()
	if info.activeQueueCount() >= seg.numSlots() {
		return 0, fmt.Errorf("create queue %q: %w", name, ErrTooManyQueues)
	}
	slotIdx, ok := findFreeSlot(seg)
	if !ok {
		return 0, fmt.Errorf("create queue %q: %w", name, ErrTooManyQueues)
	}
	qid, ok = lowestFreeQid(seg)
	if !ok {
		return 0, fmt.Errorf("create queue %q: %w", name, ErrTooManyQueues)
	}
	offset, ok := findExtent(liveExtents(seg), seg.layout.arenaSize, bodySizeBytes)
	if !ok {
		return 0, fmt.Errorf("create queue %q: %w", name, ErrOutOfSpace)
	}

	h := seg.headerSlot(slotIdx)
	h.setName(name)
	h.setBodySize(bodySizeBytes)
	h.setMsgCount(0)
	h.setBodyOffset(offset)
	h.setHeadOffset(0)
	h.setTailOffset(0)
	h.setRefCount(0)
	h.setQid(qid) // written last: qid!=0 is what makes the slot live (I4)

	info.setActiveQueueCount(info.activeQueueCount() + 1)
	info.setUsedBytes(info.usedBytes() + bodySizeBytes)
	info.setFreeBytes(info.freeBytes() - bodySizeBytes)
	return qid, nil
}

// removeQueueLocked releases a queue's extent and zeroes its header slot
// and body. Semaphore teardown is the caller's job.
func removeQueueLocked(seg *segment, name string) (qid uint32, err error) {
	h, _, found := findByName(seg, name)
	if !found {
		return 0, fmt.Errorf("remove queue %q: %w", name, ErrNotFound)
	}
	if h.refCount() > 0 {
		return 0, fmt.Errorf("remove queue %q: %w", name, ErrBusy)
	}
	qid = h.qid()
	bodySize := h.bodySize()
	body := seg.body(h)
	zeroBytes(body)
	h.clear()

	info := seg.info()
	info.setActiveQueueCount(info.activeQueueCount() - 1)
	info.setUsedBytes(info.usedBytes() - bodySize)
	info.setFreeBytes(info.freeBytes() + bodySize)
	return qid, nil
}

func openQueueLocked(seg *segment, name string) (uint32, error) {
	h, _, found := findByName(seg, name)
	if !found {
		return 0, fmt.Errorf("open queue %q: %w", name, ErrNotFound)
	}
	h.setRefCount(h.refCount() + 1)
	return h.qid(), nil
}

func closeQueueLocked(seg *segment, qid uint32) error {
	h, _, found := findByQid(seg, qid)
	if !found {
		return fmt.Errorf("close queue %d: %w", qid, ErrNotFound)
	}
	if rc := h.refCount(); rc > 0 {
		h.setRefCount(rc - 1)
	}
	return nil
}
